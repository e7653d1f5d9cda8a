package cpu

import (
	"fmt"

	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/tensor"
)

// Conv2D performs 2D convolution and returns a newly allocated output.
//
// Input shape:  [batch, height, width, in_channels]
// Filter shape: [out_channels, filter_h, filter_w, in_channels]
// Output shape: [batch, out_h, out_w, out_channels]
//
// with symmetric padding:
//
//	out_h = (H + 2*pad_h - ((filter_h-1)*dilation_h + 1)) / stride_h + 1
//	out_w = (W + 2*pad_w - ((filter_w-1)*dilation_w + 1)) / stride_w + 1
//
// bias may be nil. When the im2col algorithm needs a patch buffer, one is
// borrowed from the backend's pool for the duration of the call.
func (cpu *CPUBackend) Conv2D(input, filter *tensor.Tensor, bias []float32, p conv.Params) (*tensor.Tensor, error) {
	if input == nil || filter == nil {
		return nil, fmt.Errorf("conv2d: %w: nil input or filter", conv.ErrShapeMismatch)
	}
	outShape, err := conv.OutputShape(p, input.Shape(), filter.Shape())
	if err != nil {
		return nil, fmt.Errorf("conv2d: %w", err)
	}
	output, err := tensor.Zeros(outShape)
	if err != nil {
		return nil, fmt.Errorf("conv2d: failed to create output tensor: %w", err)
	}
	if err := cpu.Conv2DInto(output, input, filter, bias, p); err != nil {
		return nil, err
	}
	return output, nil
}

// Conv2DInto is Conv2D writing into a caller-provided output.
func (cpu *CPUBackend) Conv2DInto(output, input, filter *tensor.Tensor, bias []float32, p conv.Params) error {
	if cpu.algorithm == conv.AlgorithmDirect {
		return cpu.engine.ConvolveDirect(p, input, filter, bias, output)
	}

	if output == nil || filter == nil || filter.Shape().Rank() != tensor.Rank4 || output.Shape().Rank() != tensor.Rank4 {
		// Let the core report the shape problem.
		return cpu.engine.Convolve(p, input, filter, bias, output, nil)
	}
	strategy := p.Strategy(filter.Dims(tensor.AxisFilterHeight), filter.Dims(tensor.AxisFilterWidth))
	if !strategy.NeedsPatchBuffer() {
		return cpu.engine.Convolve(p, input, filter, bias, output, nil)
	}

	patchShape := conv.PatchShape(filter.Shape(), output.Shape())
	if err := patchShape.Validate(); err != nil {
		return fmt.Errorf("conv2d: patch buffer: %w", err)
	}
	buf := cpu.scratch.get(patchShape.NumElements())
	defer cpu.scratch.put(buf)

	scratch, err := tensor.FromSlice(*buf, patchShape)
	if err != nil {
		return fmt.Errorf("conv2d: patch buffer: %w", err)
	}
	return cpu.engine.Convolve(p, input, filter, bias, output, scratch)
}
