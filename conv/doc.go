// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package conv provides 2D float32 convolution over NHWC tensors.
//
// # Overview
//
// Two interchangeable algorithms compute the same result:
//   - Im2col: gathers receptive fields into a patch buffer and runs one
//     matrix-vector product per output position
//   - Direct: walks every filter tap per output element without a patch buffer
//
// Both add the per-channel bias and clamp to [ActivationMin, ActivationMax].
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/conv2d/conv"
//	    "github.com/born-ml/conv2d/tensor"
//	)
//
//	func main() {
//	    p := conv.DefaultParams().WithActivation(conv.ActivationReLU6)
//	    outShape, _ := conv.OutputShape(p, input.Shape(), filter.Shape())
//	    output, _ := tensor.Zeros(outShape)
//
//	    var scratch *tensor.Tensor
//	    if p.Strategy(fh, fw).NeedsPatchBuffer() {
//	        scratch, _ = tensor.Zeros(conv.PatchShape(filter.Shape(), outShape))
//	    }
//	    err := conv.Convolve(p, input, filter, bias, output, scratch)
//	}
//
// The allocating backend in backend/cpu sizes and pools these buffers for you.
//
// # Errors
//
// Every shape, parameter and buffer check runs before the first write, so a
// failed call leaves output and scratch untouched. Errors wrap one of the
// Err* sentinels and can be tested with errors.Is.
//
// # Thread Safety
//
// An Engine holds only immutable configuration and is safe for concurrent use.
// Concurrent calls must not share output or scratch tensors.
package conv
