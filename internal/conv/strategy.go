package conv

// Strategy is the source the im2col path feeds into the multiply-accumulate kernel.
type Strategy int

// Strategies, in the order SelectStrategy considers them.
const (
	// StrategyPassThrough reads the input directly: 1x1 filter, unit stride, no dilation.
	StrategyPassThrough Strategy = iota
	// StrategyIm2col extracts undilated patches.
	StrategyIm2col
	// StrategyDilatedIm2col extracts patches with dilated taps.
	StrategyDilatedIm2col
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyPassThrough:
		return "pass-through"
	case StrategyIm2col:
		return "im2col"
	case StrategyDilatedIm2col:
		return "dilated-im2col"
	default:
		return "unknown"
	}
}

// NeedsPatchBuffer reports whether the strategy writes a patch buffer.
func (s Strategy) NeedsPatchBuffer() bool {
	return s != StrategyPassThrough
}

// SelectStrategy picks the patch source for the given geometry.
// Any dilation selects dilated extraction; otherwise any stride or a filter
// larger than 1x1 selects ordinary extraction.
func SelectStrategy(strideWidth, strideHeight, dilationWidth, dilationHeight, filterWidth, filterHeight int) Strategy {
	if dilationWidth != 1 || dilationHeight != 1 {
		return StrategyDilatedIm2col
	}
	if strideWidth != 1 || strideHeight != 1 || filterWidth != 1 || filterHeight != 1 {
		return StrategyIm2col
	}
	return StrategyPassThrough
}

// Strategy returns the strategy for p and a filter of the given shape.
// Padding rules out reading the input in place, so a padded pointwise
// convolution extracts ordinary patches instead.
func (p Params) Strategy(filterHeight, filterWidth int) Strategy {
	s := SelectStrategy(p.StrideWidth, p.StrideHeight, p.DilationWidthFactor, p.DilationHeightFactor, filterWidth, filterHeight)
	if s == StrategyPassThrough && (p.PadWidth != 0 || p.PadHeight != 0) {
		return StrategyIm2col
	}
	return s
}
