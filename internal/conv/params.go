package conv

import (
	"fmt"
	"math"

	"github.com/born-ml/conv2d/internal/im2col"
	"github.com/born-ml/conv2d/internal/tensor"
)

// Params describes one convolution invocation.
type Params struct {
	StrideWidth          int
	StrideHeight         int
	DilationWidthFactor  int
	DilationHeightFactor int
	PadWidth             int // Zero-padding columns on the left edge (and, by convention, the right).
	PadHeight            int // Zero-padding rows on the top edge (and, by convention, the bottom).

	// Output clamp interval. [-Inf, +Inf] disables clamping.
	ActivationMin float32
	ActivationMax float32
}

// DefaultParams returns unit stride and dilation, no padding and no activation clamp.
func DefaultParams() Params {
	lo, hi := ActivationRange(ActivationNone)
	return Params{
		StrideWidth:          1,
		StrideHeight:         1,
		DilationWidthFactor:  1,
		DilationHeightFactor: 1,
		ActivationMin:        lo,
		ActivationMax:        hi,
	}
}

// WithActivation returns a copy of p clamped to the range of a.
func (p Params) WithActivation(a Activation) Params {
	p.ActivationMin, p.ActivationMax = ActivationRange(a)
	return p
}

// Validate checks stride, dilation and the activation interval.
func (p Params) Validate() error {
	if p.StrideWidth < 1 || p.StrideHeight < 1 {
		return fmt.Errorf("%w: stride %dx%d must be >= 1", ErrInvalidParams, p.StrideHeight, p.StrideWidth)
	}
	if p.DilationWidthFactor < 1 || p.DilationHeightFactor < 1 {
		return fmt.Errorf("%w: dilation %dx%d must be >= 1", ErrInvalidParams, p.DilationHeightFactor, p.DilationWidthFactor)
	}
	lo, hi := float64(p.ActivationMin), float64(p.ActivationMax)
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return fmt.Errorf("%w: activation range [%v, %v]", ErrInvalidParams, p.ActivationMin, p.ActivationMax)
	}
	return nil
}

func (p Params) window() im2col.Window {
	return im2col.Window{
		StrideWidth:    p.StrideWidth,
		StrideHeight:   p.StrideHeight,
		DilationWidth:  p.DilationWidthFactor,
		DilationHeight: p.DilationHeightFactor,
		PadWidth:       p.PadWidth,
		PadHeight:      p.PadHeight,
	}
}

// Activation names a fused clamp interval.
type Activation int

// Fused activations.
const (
	ActivationNone  Activation = iota // [-Inf, +Inf]
	ActivationReLU                    // [0, +Inf]
	ActivationReLU1                   // [-1, 1]
	ActivationReLU6                   // [0, 6]
)

// String returns the activation name.
func (a Activation) String() string {
	switch a {
	case ActivationNone:
		return "none"
	case ActivationReLU:
		return "relu"
	case ActivationReLU1:
		return "relu1"
	case ActivationReLU6:
		return "relu6"
	default:
		return "unknown"
	}
}

// ParseActivation converts a name produced by Activation.String back into an Activation.
func ParseActivation(s string) (Activation, error) {
	for _, a := range []Activation{ActivationNone, ActivationReLU, ActivationReLU1, ActivationReLU6} {
		if a.String() == s {
			return a, nil
		}
	}
	if s == "" {
		return ActivationNone, nil
	}
	return ActivationNone, fmt.Errorf("unknown activation %q", s)
}

// ActivationRange returns the clamp interval of a.
func ActivationRange(a Activation) (lo, hi float32) {
	inf := float32(math.Inf(1))
	switch a {
	case ActivationReLU:
		return 0, inf
	case ActivationReLU1:
		return -1, 1
	case ActivationReLU6:
		return 0, 6
	default:
		return -inf, inf
	}
}

// OutputShape computes {batch, out_h, out_w, out_depth} for symmetric padding:
//
//	out = (in + 2*pad - ((k-1)*dilation + 1)) / stride + 1
func OutputShape(p Params, inputShape, filterShape tensor.Shape) (tensor.Shape, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkRank4("output shape", "input", inputShape); err != nil {
		return nil, err
	}
	if err := checkRank4("output shape", "filter", filterShape); err != nil {
		return nil, err
	}
	effH := (filterShape[tensor.AxisFilterHeight]-1)*p.DilationHeightFactor + 1
	effW := (filterShape[tensor.AxisFilterWidth]-1)*p.DilationWidthFactor + 1
	spanH := inputShape[tensor.AxisHeight] + 2*p.PadHeight - effH
	spanW := inputShape[tensor.AxisWidth] + 2*p.PadWidth - effW
	if spanH < 0 || spanW < 0 {
		return nil, &ShapeError{
			Op:      "output shape",
			Tensor:  "input",
			Tensor2: "filter",
			Details: fmt.Sprintf("receptive field %dx%d does not fit input %v padded by %dx%d", effH, effW, inputShape, p.PadHeight, p.PadWidth),
		}
	}
	outH := spanH/p.StrideHeight + 1
	outW := spanW/p.StrideWidth + 1
	return tensor.Shape{inputShape[tensor.AxisBatch], outH, outW, filterShape[tensor.AxisOutputDepth]}, nil
}

// PatchShape returns the patch buffer shape {batch, out_h, out_w, fh*fw*in_depth}.
func PatchShape(filterShape, outputShape tensor.Shape) tensor.Shape {
	return tensor.Shape{
		outputShape[tensor.AxisBatch],
		outputShape[tensor.AxisHeight],
		outputShape[tensor.AxisWidth],
		filterShape[tensor.AxisFilterHeight] * filterShape[tensor.AxisFilterWidth] * filterShape[tensor.AxisInputDepth],
	}
}
