package tensor

import "fmt"

// Rank4 is the only rank accepted by the convolution core.
const Rank4 = 4

// Axis indices of an NHWC shape.
const (
	AxisBatch = iota
	AxisHeight
	AxisWidth
	AxisChannel
)

// Axis indices of a filter shape {output_depth, filter_height, filter_width, input_depth}.
const (
	AxisOutputDepth = iota
	AxisFilterHeight
	AxisFilterWidth
	AxisInputDepth
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Dims returns the extent of axis i.
// It panics if i is out of range, like a slice index.
func (s Shape) Dims(i int) int {
	return s[i]
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Offset returns the flat row-major index of element (i0, i1, i2, i3) in a rank-4 shape.
func (s Shape) Offset(i0, i1, i2, i3 int) int {
	return ((i0*s[1]+i1)*s[2]+i2)*s[3] + i3
}

// CheckRank returns an error unless the shape has exactly rank dimensions.
func (s Shape) CheckRank(rank int) error {
	if len(s) != rank {
		return fmt.Errorf("expected rank %d, got rank %d (shape %v)", rank, len(s), s)
	}
	return nil
}

// MatchingDim returns the shared extent of axis ai of a and axis bi of b.
// It fails when the axes are out of range or the extents disagree.
func MatchingDim(a Shape, ai int, b Shape, bi int) (int, error) {
	if ai < 0 || ai >= len(a) {
		return 0, fmt.Errorf("axis %d out of range for shape %v", ai, a)
	}
	if bi < 0 || bi >= len(b) {
		return 0, fmt.Errorf("axis %d out of range for shape %v", bi, b)
	}
	if a[ai] != b[bi] {
		return 0, fmt.Errorf("dimension mismatch: %v[%d]=%d vs %v[%d]=%d", a, ai, a[ai], b, bi, b[bi])
	}
	return a[ai], nil
}
