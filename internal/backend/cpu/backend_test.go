package cpu

import (
	"testing"

	"github.com/strata-ml/strata/internal/tensor"
)

// Helper to create test backend.
func newTestBackend() *CPUBackend {
	return New()
}

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-6
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			return false
		}
	}
	return true
}

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func rawFromFloat64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat64(), data)
	return raw
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
}

func TestCPUBackend_Add(t *testing.T) {
	backend := newTestBackend()

	t.Run("SameShapeInplace", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
		b := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

		result := backend.Add(a, b)
		// Unique left operand: result reuses a's buffer
		if result != a {
			t.Error("expected in-place result for unique left operand")
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33, 44}) {
			t.Errorf("Add result = %v", result.AsFloat32())
		}
	})

	t.Run("SameShapeShared", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
		alias := a.Clone()
		b := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

		result := backend.Add(a, b)
		if result == a {
			t.Error("shared buffer must not be overwritten")
		}
		if !float32SliceEqual(alias.AsFloat32(), []float32{1, 2, 3, 4}) {
			t.Errorf("left operand mutated: %v", alias.AsFloat32())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33, 44}) {
			t.Errorf("Add result = %v", result.AsFloat32())
		}
	})

	t.Run("Broadcast", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

		result := backend.Add(a, b)
		if !result.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("broadcast shape = %v", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33, 14, 25, 36}) {
			t.Errorf("broadcast Add = %v", result.AsFloat32())
		}
		// Broadcast path never mutates the operands
		if !float32SliceEqual(a.AsFloat32(), []float32{1, 2, 3, 4, 5, 6}) {
			t.Errorf("left operand mutated: %v", a.AsFloat32())
		}
	})

	t.Run("ChannelBroadcast4D", func(t *testing.T) {
		// [1, 2, 1, 1] against [2, 2, 1, 2], the batchnorm pattern
		a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 2, 1, 2})
		b := rawFromFloat32(t, []float32{100, 200}, tensor.Shape{1, 2, 1, 1})

		result := backend.Add(a, b)
		want := []float32{101, 102, 203, 204, 105, 106, 207, 208}
		if !float32SliceEqual(result.AsFloat32(), want) {
			t.Errorf("channel broadcast Add = %v, want %v", result.AsFloat32(), want)
		}
	})

	t.Run("IncompatibleShapes", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2}, tensor.Shape{2})
		b := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
		defer func() {
			if recover() == nil {
				t.Error("expected panic for incompatible shapes")
			}
		}()
		backend.Add(a, b)
	})
}

func TestCPUBackend_SubMulDiv(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{4})
	aAlias := a.Clone() // force the non-destructive path
	b := rawFromFloat32(t, []float32{2, 4, 5, 8}, tensor.Shape{4})

	sub := backend.Sub(a, b)
	if !float32SliceEqual(sub.AsFloat32(), []float32{8, 16, 25, 32}) {
		t.Errorf("Sub = %v", sub.AsFloat32())
	}

	mul := backend.Mul(a, b)
	if !float32SliceEqual(mul.AsFloat32(), []float32{20, 80, 150, 320}) {
		t.Errorf("Mul = %v", mul.AsFloat32())
	}

	div := backend.Div(a, b)
	if !float32SliceEqual(div.AsFloat32(), []float32{5, 5, 6, 5}) {
		t.Errorf("Div = %v", div.AsFloat32())
	}

	if !float32SliceEqual(aAlias.AsFloat32(), []float32{10, 20, 30, 40}) {
		t.Errorf("left operand mutated: %v", aAlias.AsFloat32())
	}
}

func TestCPUBackend_Float64Kernels(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat64(t, []float64{1, 2, 3}, tensor.Shape{3})
	aAlias := a.Clone()
	b := rawFromFloat64(t, []float64{4, 5, 6}, tensor.Shape{3})

	sum := backend.Add(a, b)
	want := []float64{5, 7, 9}
	for i, v := range sum.AsFloat64() {
		if v != want[i] {
			t.Errorf("float64 Add[%d] = %v, want %v", i, v, want[i])
		}
	}
	for i, v := range aAlias.AsFloat64() {
		if v != []float64{1, 2, 3}[i] {
			t.Errorf("left operand mutated: %v", aAlias.AsFloat64())
		}
	}

	// Broadcast path for float64
	row := rawFromFloat64(t, []float64{10, 20, 30}, tensor.Shape{1, 3})
	grid := rawFromFloat64(t, []float64{1, 1, 1, 2, 2, 2}, tensor.Shape{2, 3})
	prod := backend.Mul(grid, row)
	wantProd := []float64{10, 20, 30, 20, 40, 60}
	for i, v := range prod.AsFloat64() {
		if v != wantProd[i] {
			t.Errorf("float64 broadcast Mul[%d] = %v, want %v", i, v, wantProd[i])
		}
	}
}

func TestCPUBackend_Reshape(t *testing.T) {
	backend := newTestBackend()

	x := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	r := backend.Reshape(x, tensor.Shape{3, 2})
	if !r.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Reshape shape = %v", r.Shape())
	}
	if !float32SliceEqual(r.AsFloat32(), x.AsFloat32()) {
		t.Errorf("Reshape data = %v", r.AsFloat32())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for incompatible reshape")
		}
	}()
	backend.Reshape(x, tensor.Shape{4, 2})
}
