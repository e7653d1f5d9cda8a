// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for 2D convolution.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm with pooled patch buffers
//   - Direct algorithm for memory-constrained callers
//   - Kernel variants selected from the host architecture
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/conv2d/backend/cpu"
//	    "github.com/born-ml/conv2d/conv"
//	    "github.com/born-ml/conv2d/tensor"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    input, _ := tensor.Zeros(tensor.Shape{1, 28, 28, 3})
//	    filter, _ := tensor.Zeros(tensor.Shape{16, 3, 3, 3})
//
//	    p := conv.DefaultParams().WithActivation(conv.ActivationReLU)
//	    p.PadWidth, p.PadHeight = 1, 1
//	    output, err := backend.Conv2D(input, filter, nil, p)
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each call borrows its own
// patch buffer and writes only to its own output.
package cpu
