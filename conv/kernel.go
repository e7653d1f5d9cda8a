// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package conv

import (
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
)

// Kernel is the multiply-accumulate primitive both algorithms reduce to.
type Kernel = mac.Kernel

// KernelVariant selects a Kernel implementation.
type KernelVariant = mac.Variant

// Kernel variants.
const (
	KernelScalar     = mac.Scalar
	KernelVectorized = mac.Vectorized
	KernelBLAS       = mac.BLAS
)

// KernelConfig describes the vector hardware a kernel is tuned for.
type KernelConfig = mac.Config

// DetectKernelConfig returns the configuration suited to the running architecture.
func DetectKernelConfig() KernelConfig {
	return mac.DetectConfig()
}

// NewKernel builds the kernel described by cfg.
//
// Example:
//
//	cfg := conv.DetectKernelConfig()
//	cfg.Variant = conv.KernelBLAS
//	k, err := conv.NewKernel(cfg)
//	engine := conv.NewEngine(conv.WithKernel(k))
func NewKernel(cfg KernelConfig) (Kernel, error) {
	return mac.New(cfg)
}

// ParallelConfig controls how output positions fan out across goroutines.
type ParallelConfig = parallel.Config

// DefaultParallelConfig uses one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialConfig runs everything on the calling goroutine.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}
