// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package conv

import "github.com/born-ml/conv2d/internal/conv"

// Sentinel errors returned (wrapped) by Convolve and ConvolveDirect.
var (
	ErrShapeMismatch           = conv.ErrShapeMismatch
	ErrMissingScratchBuffer    = conv.ErrMissingScratchBuffer
	ErrUnexpectedScratchBuffer = conv.ErrUnexpectedScratchBuffer
	ErrBiasLengthMismatch      = conv.ErrBiasLengthMismatch
	ErrInvalidParams           = conv.ErrInvalidParams
)

// ShapeError describes which tensors disagree. It unwraps to ErrShapeMismatch.
type ShapeError = conv.ShapeError
