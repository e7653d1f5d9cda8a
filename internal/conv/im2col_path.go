package conv

import (
	"fmt"

	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
)

const opIm2col = "conv2d im2col"

// Convolve computes output = clamp(conv(input, filter) + bias) through patch extraction.
//
// scratch must be a {batch, out_h, out_w, fh*fw*in_depth} buffer exactly when
// Params.Strategy asks for patch extraction, and nil otherwise. bias may be nil.
func (e *Engine) Convolve(p Params, input, filter *tensor.Tensor, bias []float32, output, scratch *tensor.Tensor) error {
	plan, err := e.planIm2col(p, input, filter, bias, output, scratch)
	if err != nil {
		return err
	}

	// Fill the patch buffer completely before any position reads it.
	switch plan.strategy {
	case StrategyDilatedIm2col:
		err = e.extractor.DilatedIm2col(p.window(), 0, input, filter.Shape(), output.Shape(), scratch)
	case StrategyIm2col:
		err = e.extractor.Im2col(p.window(), plan.filterHeight, plan.filterWidth, 0, input, scratch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", opIm2col, err)
	}

	e.multiplyPositions(plan, filter.Data(), output)
	e.addBiasActivation(output.Data(), bias, plan.outputDepth, p.ActivationMin, p.ActivationMax)
	return nil
}

// im2colPlan is the validated geometry of one im2col call.
type im2colPlan struct {
	strategy                  Strategy
	source                    *tensor.Tensor // patch buffer or the input itself
	batches, outHeight        int
	outWidth, depth           int
	outputDepth               int
	filterHeight, filterWidth int
}

func (e *Engine) planIm2col(p Params, input, filter *tensor.Tensor, bias []float32, output, scratch *tensor.Tensor) (*im2colPlan, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", opIm2col, err)
	}
	if input == nil || filter == nil || output == nil {
		return nil, &ShapeError{Op: opIm2col, Tensor: "input/filter/output", Details: "nil tensor"}
	}
	for _, t := range []struct {
		name  string
		shape tensor.Shape
	}{{"input", input.Shape()}, {"filter", filter.Shape()}, {"output", output.Shape()}} {
		if err := checkRank4(opIm2col, t.name, t.shape); err != nil {
			return nil, err
		}
	}
	if _, err := matchDim(opIm2col, "input", input.Shape(), tensor.AxisChannel, "filter", filter.Shape(), tensor.AxisInputDepth); err != nil {
		return nil, err
	}

	plan := &im2colPlan{
		filterHeight: filter.Dims(tensor.AxisFilterHeight),
		filterWidth:  filter.Dims(tensor.AxisFilterWidth),
	}
	plan.strategy = p.Strategy(plan.filterHeight, plan.filterWidth)

	switch {
	case plan.strategy.NeedsPatchBuffer() && scratch == nil:
		return nil, fmt.Errorf("%s: %w: strategy %s needs shape %v", opIm2col, ErrMissingScratchBuffer,
			plan.strategy, PatchShape(filter.Shape(), output.Shape()))
	case !plan.strategy.NeedsPatchBuffer() && scratch != nil:
		return nil, fmt.Errorf("%s: %w: strategy %s reads the input directly", opIm2col, ErrUnexpectedScratchBuffer, plan.strategy)
	}

	if plan.strategy.NeedsPatchBuffer() {
		want := PatchShape(filter.Shape(), output.Shape())
		if !scratch.Shape().Equal(want) {
			return nil, &ShapeError{Op: opIm2col, Tensor: "patch buffer", Details: fmt.Sprintf("got %v, want %v", scratch.Shape(), want)}
		}
		if _, err := matchDim(opIm2col, "input", input.Shape(), tensor.AxisBatch, "patch buffer", scratch.Shape(), tensor.AxisBatch); err != nil {
			return nil, err
		}
		plan.source = scratch
	} else {
		// The input doubles as the patch grid, so its spatial extent must be the output's.
		for _, axis := range []int{tensor.AxisHeight, tensor.AxisWidth} {
			if _, err := matchDim(opIm2col, "input", input.Shape(), axis, "output", output.Shape(), axis); err != nil {
				return nil, err
			}
		}
		plan.source = input
	}

	src := plan.source.Shape()
	var err error
	if plan.batches, err = matchDim(opIm2col, "patch source", src, tensor.AxisBatch, "output", output.Shape(), tensor.AxisBatch); err != nil {
		return nil, err
	}
	// The filter is read as an {output_depth, fh*fw*in_depth} matrix.
	if rowLen := plan.filterHeight * plan.filterWidth * filter.Dims(tensor.AxisInputDepth); rowLen != src[tensor.AxisChannel] {
		return nil, &ShapeError{Op: opIm2col, Tensor: "filter", Tensor2: "patch source",
			Details: fmt.Sprintf("filter row length %d vs source depth %d", rowLen, src[tensor.AxisChannel])}
	}
	if plan.outputDepth, err = matchDim(opIm2col, "filter", filter.Shape(), tensor.AxisOutputDepth, "output", output.Shape(), tensor.AxisChannel); err != nil {
		return nil, err
	}
	if err := checkBias(opIm2col, bias, plan.outputDepth); err != nil {
		return nil, err
	}

	plan.outHeight = output.Dims(tensor.AxisHeight)
	plan.outWidth = output.Dims(tensor.AxisWidth)
	plan.depth = src[tensor.AxisChannel]
	return plan, nil
}

// multiplyPositions writes every output channel of every position with one fused kernel call.
func (e *Engine) multiplyPositions(plan *im2colPlan, weights []float32, output *tensor.Tensor) {
	src, out := plan.source.Data(), output.Data()
	srcStrides, outStrides := plan.source.Strides(), output.Strides()

	parallel.ForPositions(plan.batches, plan.outHeight, plan.outWidth, func(b, y, x int) {
		in := b*srcStrides[0] + y*srcStrides[1] + x*srcStrides[2]
		o := b*outStrides[0] + y*outStrides[1] + x*outStrides[2]
		e.kernel.MatVec(out[o:o+plan.outputDepth], weights, src[in:in+plan.depth])
	}, e.par)
}

// addBiasActivation adds bias[i % depth] (zero when bias is nil) to every element and clamps it.
func (e *Engine) addBiasActivation(out, bias []float32, depth int, lo, hi float32) {
	rows := len(out) / depth
	parallel.For(rows, func(r int) {
		row := out[r*depth : (r+1)*depth]
		if bias == nil {
			for c, v := range row {
				row[c] = clamp(v, lo, hi)
			}
			return
		}
		for c, v := range row {
			row[c] = clamp(v+bias[c], lo, hi)
		}
	}, e.par)
}
