package cpu

import (
	"testing"

	"github.com/strata-ml/strata/internal/tensor"
)

func TestSqrt(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{0, 1, 4, 9}, tensor.Shape{4})
	result := backend.Sqrt(x)
	if !float32SliceEqual(result.AsFloat32(), []float32{0, 1, 2, 3}) {
		t.Errorf("Sqrt = %v", result.AsFloat32())
	}

	y := rawFromFloat64(t, []float64{16, 25}, tensor.Shape{2})
	got := backend.Sqrt(y).AsFloat64()
	if got[0] != 4 || got[1] != 5 {
		t.Errorf("float64 Sqrt = %v", got)
	}
}

func TestSqrtNegativePanics(t *testing.T) {
	backend := New()
	x := rawFromFloat32(t, []float32{-1}, tensor.Shape{1})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for negative input")
		}
	}()
	backend.Sqrt(x)
}

func TestRsqrt(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{4, 16, 64}, tensor.Shape{3})
	result := backend.Rsqrt(x)
	if !float32SliceEqual(result.AsFloat32(), []float32{0.5, 0.25, 0.125}) {
		t.Errorf("Rsqrt = %v", result.AsFloat32())
	}
}

func TestRsqrtZeroPanics(t *testing.T) {
	backend := New()
	x := rawFromFloat32(t, []float32{0}, tensor.Shape{1})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero input")
		}
	}()
	backend.Rsqrt(x)
}

func TestScalarOps(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})

	if got := backend.MulScalar(x, float32(2)).AsFloat32(); !float32SliceEqual(got, []float32{2, 4, 6}) {
		t.Errorf("MulScalar = %v", got)
	}
	if got := backend.AddScalar(x, float32(10)).AsFloat32(); !float32SliceEqual(got, []float32{11, 12, 13}) {
		t.Errorf("AddScalar = %v", got)
	}
	if got := backend.SubScalar(x, float32(1)).AsFloat32(); !float32SliceEqual(got, []float32{0, 1, 2}) {
		t.Errorf("SubScalar = %v", got)
	}
	if got := backend.DivScalar(x, float32(2)).AsFloat32(); !float32SliceEqual(got, []float32{0.5, 1, 1.5}) {
		t.Errorf("DivScalar = %v", got)
	}

	// Scalar ops allocate a fresh result, the source stays intact
	if !float32SliceEqual(x.AsFloat32(), []float32{1, 2, 3}) {
		t.Errorf("source mutated: %v", x.AsFloat32())
	}

	y := rawFromFloat64(t, []float64{3, 6}, tensor.Shape{2})
	got := backend.DivScalar(y, float64(3)).AsFloat64()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("float64 DivScalar = %v", got)
	}
}
