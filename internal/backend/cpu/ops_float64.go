package cpu

import (
	"gonum.org/v1/gonum/floats"

	"github.com/strata-ml/strata/internal/tensor"
)

// Float64 kernels delegate the dense paths to gonum's floats package.

// Float64 inplace operations

func addInplaceFloat64(a, b []float64) {
	floats.Add(a, b)
}

func subInplaceFloat64(a, b []float64) {
	floats.Sub(a, b)
}

func mulInplaceFloat64(a, b []float64) {
	floats.Mul(a, b)
}

func divInplaceFloat64(a, b []float64) {
	floats.Div(a, b)
}

// Float64 vectorized operations

func addVectorizedFloat64(dst, a, b []float64) {
	floats.AddTo(dst, a, b)
}

func subVectorizedFloat64(dst, a, b []float64) {
	floats.SubTo(dst, a, b)
}

func mulVectorizedFloat64(dst, a, b []float64) {
	floats.MulTo(dst, a, b)
}

func divVectorizedFloat64(dst, a, b []float64) {
	floats.DivTo(dst, a, b)
}

// Float64 broadcasting operations (strided access, no gonum equivalent)

func addBroadcastFloat64(dst, a, b []float64, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] + b[bIdx]
	}
}

func subBroadcastFloat64(dst, a, b []float64, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] - b[bIdx]
	}
}

func mulBroadcastFloat64(dst, a, b []float64, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] * b[bIdx]
	}
}

func divBroadcastFloat64(dst, a, b []float64, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] / b[bIdx]
	}
}
