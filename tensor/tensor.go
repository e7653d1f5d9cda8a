// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/conv2d/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{1, 28, 28, 3} is a single 28x28 image with 3 channels.
type Shape = tensor.Shape

// Tensor is a dense row-major float32 view over caller-owned memory.
type Tensor = tensor.Tensor

// Rank4 is the only rank accepted by the convolution core.
const Rank4 = tensor.Rank4

// Axis indices of an NHWC activation shape.
const (
	AxisBatch   = tensor.AxisBatch
	AxisHeight  = tensor.AxisHeight
	AxisWidth   = tensor.AxisWidth
	AxisChannel = tensor.AxisChannel
)

// Axis indices of a filter shape.
const (
	AxisOutputDepth  = tensor.AxisOutputDepth
	AxisFilterHeight = tensor.AxisFilterHeight
	AxisFilterWidth  = tensor.AxisFilterWidth
	AxisInputDepth   = tensor.AxisInputDepth
)

// FromSlice wraps data as a tensor of the given shape without copying.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2, 1})
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros allocates a zero-filled tensor of the given shape.
func Zeros(shape Shape) (*Tensor, error) {
	return tensor.Zeros(shape)
}

// Full allocates a tensor filled with value.
func Full(shape Shape, value float32) (*Tensor, error) {
	return tensor.Full(shape, value)
}

// MatchingDim returns the shared extent of axis ai of a and axis bi of b.
func MatchingDim(a Shape, ai int, b Shape, bi int) (int, error) {
	return tensor.MatchingDim(a, ai, b, bi)
}
