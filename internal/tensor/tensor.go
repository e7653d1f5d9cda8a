// Package tensor provides the shape and float32 tensor view types used by the convolution core.
package tensor

import "fmt"

// Tensor is a dense row-major float32 view over caller-owned memory.
//
// A Tensor never allocates or frees the slice it wraps (except through Zeros,
// which exists for callers that want the tensor to own fresh storage).
// The shape and strides are fixed at construction.
type Tensor struct {
	shape  Shape     // Tensor dimensions
	stride []int     // Memory strides (row-major)
	data   []float32 // Backing storage, exactly shape.NumElements() long
}

// FromSlice wraps data as a tensor of the given shape without copying.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if n := shape.NumElements(); len(data) != n {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)", len(data), shape, n)
	}
	return &Tensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   data,
	}, nil
}

// Zeros allocates a zero-filled tensor of the given shape.
func Zeros(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return FromSlice(make([]float32, shape.NumElements()), shape)
}

// Full allocates a tensor filled with value.
func Full(shape Shape, value float32) (*Tensor, error) {
	t, err := Zeros(shape)
	if err != nil {
		return nil, err
	}
	t.Fill(value)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's memory strides.
func (t *Tensor) Strides() []int {
	return t.stride
}

// Dims returns the extent of axis i.
func (t *Tensor) Dims(i int) int {
	return t.shape[i]
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the backing slice (zero-copy).
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given index.
func (t *Tensor) At(idx ...int) float32 {
	return t.data[t.flatIndex(idx)]
}

// Set stores value at the given index.
func (t *Tensor) Set(value float32, idx ...int) {
	t.data[t.flatIndex(idx)] = value
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float32) {
	for i := range t.data {
		t.data[i] = value
	}
}

func (t *Tensor) flatIndex(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d does not match tensor rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d with extent %d", v, i, t.shape[i]))
		}
		off += v * t.stride[i]
	}
	return off
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v)", t.shape)
}
