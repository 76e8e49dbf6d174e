package tensor

import "fmt"

// Shape holds tensor dimensions, outermost first. A zero-length shape
// is a scalar.
type Shape []int

// NumElements returns the element count; 1 for a scalar.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate rejects shapes with non-positive dimensions.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("shape: dimension %d must be positive, got %d", i, d)
		}
	}
	return nil
}

// Equal reports whether s and other have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, d := range s {
		if d != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// ComputeStrides returns row-major strides: the innermost dimension has
// stride 1, each outer stride is the product of the dimensions inside it.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// BroadcastShapes resolves the common shape of a and b under the usual
// right-aligned rules: dimensions pair up from the trailing axis, a
// missing or size-1 dimension stretches to match its partner, anything
// else is an error. The bool reports whether either operand actually
// needs stretching, so callers can keep a fast path for already-matching
// shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	stretched := false

	for i := range out {
		da, db := 1, 1
		if j := i - (rank - len(a)); j >= 0 {
			da = a[j]
		}
		if j := i - (rank - len(b)); j >= 0 {
			db = b[j]
		}

		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
			stretched = true
		case db == 1:
			out[i] = da
			stretched = true
		default:
			return nil, false, fmt.Errorf("shape: cannot broadcast %v with %v, axis %d has %d vs %d",
				a, b, i, da, db)
		}
	}
	return out, stretched, nil
}
