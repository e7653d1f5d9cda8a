// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/conv2d/internal/backend/cpu"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend allocates outputs and pools patch buffers around the
// convolution core, so callers only supply input, filter, bias and params.
type Backend = internalcpu.CPUBackend

// Option configures a Backend.
type Option = internalcpu.Option

// WithKernel selects the multiply-accumulate kernel (see conv.NewKernel).
var WithKernel = internalcpu.WithKernel

// WithParallel sets the fan-out configuration.
var WithParallel = internalcpu.WithParallel

// WithAlgorithm selects im2col (default) or direct convolution.
var WithAlgorithm = internalcpu.WithAlgorithm

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/conv2d/backend/cpu"
//	    "github.com/born-ml/conv2d/conv"
//	)
//
//	func main() {
//	    backend := cpu.New(cpu.WithAlgorithm(conv.AlgorithmDirect))
//	    out, err := backend.Conv2D(input, filter, bias, conv.DefaultParams())
//	}
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}
