// Package conv implements float32 2D convolution over NHWC tensors.
//
// Two algorithms share one parameter set and one numeric kernel:
//
//   - Engine.Convolve: patch extraction (im2col) followed by one fused
//     matrix-vector product per output position, then a single bias and
//     activation pass over the whole output.
//   - Engine.ConvolveDirect: the sliding-window loop that resolves every
//     filter tap against the input and treats out-of-bounds taps as zero.
//
// Tensors are caller-owned. The input is {batch, height, width, channel}, the
// filter {output_depth, filter_height, filter_width, input_depth} and the output
// {batch, output_height, output_width, output_depth}. Every precondition is checked
// before the first write, so a failed call leaves the output untouched.
//
// Engines are immutable after construction and safe for concurrent use, provided
// concurrent calls do not share a patch buffer or an output tensor.
package conv
