// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the NHWC float32 tensor views consumed by the conv package.
//
// # Overview
//
// A Tensor is a rank-4 view over a caller-owned []float32:
//   - Activations are laid out {batch, height, width, channel}
//   - Filters are laid out {output_depth, filter_height, filter_width, input_depth}
//   - FromSlice wraps existing memory without copying
//
// # Basic Usage
//
//	import "github.com/born-ml/conv2d/tensor"
//
//	func main() {
//	    data := make([]float32, 1*28*28*3)
//	    x, err := tensor.FromSlice(data, tensor.Shape{1, 28, 28, 3})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    x.Set(1, 0, 0, 0, 2)
//	}
//
// Tensors never reallocate their storage. Writers that share a Tensor across
// goroutines must partition the elements they write.
package tensor
