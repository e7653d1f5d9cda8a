package conv

import (
	"fmt"

	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
)

const opDirect = "conv2d direct"

// ConvolveDirect computes output = clamp(conv(input, filter) + bias) by walking
// every filter tap. Taps that land outside the input contribute nothing.
func (e *Engine) ConvolveDirect(p Params, input, filter *tensor.Tensor, bias []float32, output *tensor.Tensor) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", opDirect, err)
	}
	if input == nil || filter == nil || output == nil {
		return &ShapeError{Op: opDirect, Tensor: "input/filter/output", Details: "nil tensor"}
	}
	in, fs, out := input.Shape(), filter.Shape(), output.Shape()
	for _, t := range []struct {
		name  string
		shape tensor.Shape
	}{{"input", in}, {"filter", fs}, {"output", out}} {
		if err := checkRank4(opDirect, t.name, t.shape); err != nil {
			return err
		}
	}

	batches, err := matchDim(opDirect, "input", in, tensor.AxisBatch, "output", out, tensor.AxisBatch)
	if err != nil {
		return err
	}
	depth, err := matchDim(opDirect, "input", in, tensor.AxisChannel, "filter", fs, tensor.AxisInputDepth)
	if err != nil {
		return err
	}
	outputDepth, err := matchDim(opDirect, "filter", fs, tensor.AxisOutputDepth, "output", out, tensor.AxisChannel)
	if err != nil {
		return err
	}
	if err := checkBias(opDirect, bias, outputDepth); err != nil {
		return err
	}

	inHeight, inWidth := in[tensor.AxisHeight], in[tensor.AxisWidth]
	filterHeight, filterWidth := fs[tensor.AxisFilterHeight], fs[tensor.AxisFilterWidth]
	inData, filterData, outData := input.Data(), filter.Data(), output.Data()

	parallel.ForPositions(batches, out[tensor.AxisHeight], out[tensor.AxisWidth], func(b, outY, outX int) {
		inXOrigin := outX*p.StrideWidth - p.PadWidth
		inYOrigin := outY*p.StrideHeight - p.PadHeight
		dst := outData[out.Offset(b, outY, outX, 0):][:outputDepth]

		for oc := range dst {
			var total float32
			for fy := 0; fy < filterHeight; fy++ {
				inY := inYOrigin + fy*p.DilationHeightFactor
				if inY < 0 || inY >= inHeight {
					continue
				}
				for fx := 0; fx < filterWidth; fx++ {
					inX := inXOrigin + fx*p.DilationWidthFactor
					if inX < 0 || inX >= inWidth {
						continue
					}
					a := inData[in.Offset(b, inY, inX, 0):][:depth]
					w := filterData[fs.Offset(oc, fy, fx, 0):][:depth]
					total = e.kernel.Accumulate(total, a, w)
				}
			}
			var biasValue float32
			if bias != nil {
				biasValue = bias[oc]
			}
			dst[oc] = clamp(total+biasValue, p.ActivationMin, p.ActivationMax)
		}
	}, e.par)
	return nil
}
