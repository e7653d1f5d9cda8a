// Package im2col extracts zero-padded convolution patches into a staging buffer.
//
// The destination is an NHWC tensor of shape
// {batch, output_height, output_width, filter_height*filter_width*input_depth}.
// The innermost run for one output position is ordered (filter_y, filter_x, channel),
// which matches the row layout of a {output_depth, filter_height, filter_width, input_depth}
// filter, so each position multiplies against the filter as a plain matrix-vector product.
package im2col

import (
	"fmt"

	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
)

// Window is the sliding-window geometry of a convolution.
type Window struct {
	StrideWidth    int
	StrideHeight   int
	DilationWidth  int
	DilationHeight int
	PadWidth       int
	PadHeight      int
}

// Extractor fills patch buffers. The zero value runs sequentially.
type Extractor struct {
	Parallel parallel.Config
}

// Im2col extracts undilated patches of a filterHeight×filterWidth window.
// Dilation factors in w are ignored. Elements outside the input are set to zero.
func (e Extractor) Im2col(w Window, filterHeight, filterWidth int, zero float32, input, dst *tensor.Tensor) error {
	w.DilationWidth, w.DilationHeight = 1, 1
	g, err := newGeometry(w, filterHeight, filterWidth, input, dst)
	if err != nil {
		return fmt.Errorf("im2col: %w", err)
	}
	in, out := input.Data(), dst.Data()
	parallel.ForPositions(g.batches, g.outHeight, g.outWidth, func(b, y, x int) {
		g.fillContiguous(in, out, zero, b, y, x)
	}, e.Parallel)
	return nil
}

// DilatedIm2col extracts patches with the dilation factors of w.
// The filter extent comes from filterShape {out_depth, fh, fw, in_depth} and the spatial
// extent of the patch grid from outputShape; dst must agree with both.
func (e Extractor) DilatedIm2col(w Window, zero float32, input *tensor.Tensor, filterShape, outputShape tensor.Shape, dst *tensor.Tensor) error {
	if err := filterShape.CheckRank(tensor.Rank4); err != nil {
		return fmt.Errorf("dilated im2col: filter: %w", err)
	}
	if err := outputShape.CheckRank(tensor.Rank4); err != nil {
		return fmt.Errorf("dilated im2col: output: %w", err)
	}
	g, err := newGeometry(w, filterShape[tensor.AxisFilterHeight], filterShape[tensor.AxisFilterWidth], input, dst)
	if err != nil {
		return fmt.Errorf("dilated im2col: %w", err)
	}
	if g.outHeight != outputShape[tensor.AxisHeight] || g.outWidth != outputShape[tensor.AxisWidth] {
		return fmt.Errorf("dilated im2col: patch grid %dx%d does not match output %v",
			g.outHeight, g.outWidth, outputShape)
	}
	in, out := input.Data(), dst.Data()
	parallel.ForPositions(g.batches, g.outHeight, g.outWidth, func(b, y, x int) {
		g.fillTaps(in, out, zero, b, y, x)
	}, e.Parallel)
	return nil
}

// geometry caches the extents one extraction needs.
type geometry struct {
	Window
	batches, inHeight, inWidth, depth int
	filterHeight, filterWidth         int
	outHeight, outWidth, patchDepth   int
}

func newGeometry(w Window, filterHeight, filterWidth int, input, dst *tensor.Tensor) (*geometry, error) {
	if err := input.Shape().CheckRank(tensor.Rank4); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if err := dst.Shape().CheckRank(tensor.Rank4); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	if w.StrideWidth < 1 || w.StrideHeight < 1 || w.DilationWidth < 1 || w.DilationHeight < 1 {
		return nil, fmt.Errorf("stride and dilation must be >= 1, got %+v", w)
	}
	if filterHeight < 1 || filterWidth < 1 {
		return nil, fmt.Errorf("filter extent %dx%d must be positive", filterHeight, filterWidth)
	}
	batches, err := tensor.MatchingDim(input.Shape(), tensor.AxisBatch, dst.Shape(), tensor.AxisBatch)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	g := &geometry{
		Window:       w,
		batches:      batches,
		inHeight:     input.Dims(tensor.AxisHeight),
		inWidth:      input.Dims(tensor.AxisWidth),
		depth:        input.Dims(tensor.AxisChannel),
		filterHeight: filterHeight,
		filterWidth:  filterWidth,
		outHeight:    dst.Dims(tensor.AxisHeight),
		outWidth:     dst.Dims(tensor.AxisWidth),
		patchDepth:   dst.Dims(tensor.AxisChannel),
	}
	if want := filterHeight * filterWidth * g.depth; g.patchDepth != want {
		return nil, fmt.Errorf("destination depth %d, want %d (%dx%dx%d)",
			g.patchDepth, want, filterHeight, filterWidth, g.depth)
	}
	return g, nil
}

func (g *geometry) inputRow(b, y int) int {
	return (b*g.inHeight + y) * g.inWidth * g.depth
}

func (g *geometry) patch(out []float32, b, y, x int) []float32 {
	start := ((b*g.outHeight+y)*g.outWidth + x) * g.patchDepth
	return out[start : start+g.patchDepth]
}

// fillContiguous copies whole in-bounds filter rows at once; with unit dilation
// the taps of one filter row are adjacent in the input.
func (g *geometry) fillContiguous(in, out []float32, zero float32, b, y, x int) {
	dst := g.patch(out, b, y, x)
	inY0 := y*g.StrideHeight - g.PadHeight
	inX0 := x*g.StrideWidth - g.PadWidth
	rowLen := g.filterWidth * g.depth

	// In-bounds tap range of a filter row.
	fxStart := max(0, -inX0)
	fxEnd := min(g.filterWidth, g.inWidth-inX0)

	for fy := 0; fy < g.filterHeight; fy++ {
		row := dst[fy*rowLen : (fy+1)*rowLen]
		inY := inY0 + fy
		if inY < 0 || inY >= g.inHeight || fxStart >= fxEnd {
			fill(row, zero)
			continue
		}
		fill(row[:fxStart*g.depth], zero)
		src := g.inputRow(b, inY) + (inX0+fxStart)*g.depth
		copy(row[fxStart*g.depth:fxEnd*g.depth], in[src:src+(fxEnd-fxStart)*g.depth])
		fill(row[fxEnd*g.depth:], zero)
	}
}

// fillTaps resolves every tap separately, as dilation spreads them apart.
func (g *geometry) fillTaps(in, out []float32, zero float32, b, y, x int) {
	dst := g.patch(out, b, y, x)
	inY0 := y*g.StrideHeight - g.PadHeight
	inX0 := x*g.StrideWidth - g.PadWidth

	for fy := 0; fy < g.filterHeight; fy++ {
		inY := inY0 + fy*g.DilationHeight
		for fx := 0; fx < g.filterWidth; fx++ {
			inX := inX0 + fx*g.DilationWidth
			tap := dst[(fy*g.filterWidth+fx)*g.depth : (fy*g.filterWidth+fx+1)*g.depth]
			if inY < 0 || inY >= g.inHeight || inX < 0 || inX >= g.inWidth {
				fill(tap, zero)
				continue
			}
			src := g.inputRow(b, inY) + inX*g.depth
			copy(tap, in[src:src+g.depth])
		}
	}
}

func fill(s []float32, v float32) {
	for i := range s {
		s[i] = v
	}
}
