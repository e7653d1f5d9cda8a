// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package conv

import (
	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/tensor"
)

// Params holds stride, dilation, padding and the activation clamp range.
type Params = conv.Params

// DefaultParams returns unit stride and dilation, no padding, no clamp.
func DefaultParams() Params {
	return conv.DefaultParams()
}

// Activation is a fused activation preset expressed as a clamp range.
type Activation = conv.Activation

// Activation presets.
const (
	ActivationNone  = conv.ActivationNone
	ActivationReLU  = conv.ActivationReLU
	ActivationReLU1 = conv.ActivationReLU1
	ActivationReLU6 = conv.ActivationReLU6
)

// ParseActivation converts a preset name ("", "none", "relu", "relu1", "relu6").
func ParseActivation(s string) (Activation, error) {
	return conv.ParseActivation(s)
}

// ActivationRange returns the clamp bounds of a preset.
func ActivationRange(a Activation) (lo, hi float32) {
	return conv.ActivationRange(a)
}

// Strategy is the patch-extraction strategy of the im2col algorithm.
type Strategy = conv.Strategy

// Strategies.
const (
	StrategyPassThrough   = conv.StrategyPassThrough
	StrategyIm2col        = conv.StrategyIm2col
	StrategyDilatedIm2col = conv.StrategyDilatedIm2col
)

// SelectStrategy picks the patch-extraction strategy for a geometry.
// Use Params.Strategy to size buffers: it also accounts for padding.
func SelectStrategy(strideWidth, strideHeight, dilationWidth, dilationHeight, filterWidth, filterHeight int) Strategy {
	return conv.SelectStrategy(strideWidth, strideHeight, dilationWidth, dilationHeight, filterWidth, filterHeight)
}

// Algorithm selects im2col or direct convolution.
type Algorithm = conv.Algorithm

// Algorithms.
const (
	AlgorithmIm2col = conv.AlgorithmIm2col
	AlgorithmDirect = conv.AlgorithmDirect
)

// ParseAlgorithm converts "im2col" or "direct" into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	return conv.ParseAlgorithm(s)
}

// Engine runs convolutions with a fixed kernel and fan-out configuration.
type Engine = conv.Engine

// Option configures an Engine.
type Option = conv.Option

// NewEngine creates an Engine. Without options it uses the detected kernel
// and runs on the calling goroutine.
func NewEngine(opts ...Option) *Engine {
	return conv.NewEngine(opts...)
}

// WithKernel selects the multiply-accumulate kernel.
func WithKernel(k mac.Kernel) Option {
	return conv.WithKernel(k)
}

// WithParallel sets the fan-out configuration.
func WithParallel(cfg parallel.Config) Option {
	return conv.WithParallel(cfg)
}

// OutputShape computes {batch, out_h, out_w, out_depth} for symmetric padding.
func OutputShape(p Params, inputShape, filterShape tensor.Shape) (tensor.Shape, error) {
	return conv.OutputShape(p, inputShape, filterShape)
}

// PatchShape returns the patch-buffer shape {batch, out_h, out_w, fh*fw*in_depth}.
func PatchShape(filterShape, outputShape tensor.Shape) tensor.Shape {
	return conv.PatchShape(filterShape, outputShape)
}

// Convolve runs the im2col algorithm with the default engine.
// scratch must be nil exactly when the selected strategy is pass-through.
func Convolve(p Params, input, filter *tensor.Tensor, bias []float32, output, scratch *tensor.Tensor) error {
	return conv.Convolve(p, input, filter, bias, output, scratch)
}

// ConvolveDirect runs the direct algorithm with the default engine.
func ConvolveDirect(p Params, input, filter *tensor.Tensor, bias []float32, output *tensor.Tensor) error {
	return conv.ConvolveDirect(p, input, filter, bias, output)
}
