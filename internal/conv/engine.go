package conv

import (
	"fmt"
	"strings"

	"github.com/born-ml/conv2d/internal/im2col"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
)

// Algorithm selects which convolution path a caller wants.
type Algorithm int

// Supported algorithms.
const (
	AlgorithmIm2col Algorithm = iota
	AlgorithmDirect
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmIm2col:
		return "im2col"
	case AlgorithmDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseAlgorithm converts a name produced by Algorithm.String back into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "im2col", "":
		return AlgorithmIm2col, nil
	case "direct", "reference":
		return AlgorithmDirect, nil
	default:
		return AlgorithmIm2col, fmt.Errorf("unknown algorithm %q", s)
	}
}

// Engine runs convolutions with a fixed kernel and parallelism configuration.
type Engine struct {
	kernel    mac.Kernel
	par       parallel.Config
	extractor im2col.Extractor
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel sets the multiply-accumulate kernel.
func WithKernel(k mac.Kernel) Option {
	return func(e *Engine) {
		if k != nil {
			e.kernel = k
		}
	}
}

// WithParallel sets how output positions are spread across goroutines.
func WithParallel(cfg parallel.Config) Option {
	return func(e *Engine) {
		e.par = cfg
	}
}

// NewEngine returns an engine using mac.Default() on the calling goroutine,
// unless options say otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		kernel: mac.Default(),
		par:    parallel.Sequential(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.extractor = im2col.Extractor{Parallel: e.par}
	return e
}

// Kernel returns the engine's multiply-accumulate kernel.
func (e *Engine) Kernel() mac.Kernel {
	return e.kernel
}

// Run dispatches to Convolve or ConvolveDirect.
// The direct path does not take a patch buffer, so scratch must be nil for it.
func (e *Engine) Run(alg Algorithm, p Params, input, filter *tensor.Tensor, bias []float32, output, scratch *tensor.Tensor) error {
	switch alg {
	case AlgorithmIm2col:
		return e.Convolve(p, input, filter, bias, output, scratch)
	case AlgorithmDirect:
		if scratch != nil {
			return fmt.Errorf("conv2d direct: %w", ErrUnexpectedScratchBuffer)
		}
		return e.ConvolveDirect(p, input, filter, bias, output)
	default:
		return fmt.Errorf("%w: unknown algorithm %d", ErrInvalidParams, int(alg))
	}
}

// Convolve runs the im2col path with a default engine.
func Convolve(p Params, input, filter *tensor.Tensor, bias []float32, output, scratch *tensor.Tensor) error {
	return NewEngine().Convolve(p, input, filter, bias, output, scratch)
}

// ConvolveDirect runs the direct path with a default engine.
func ConvolveDirect(p Params, input, filter *tensor.Tensor, bias []float32, output *tensor.Tensor) error {
	return NewEngine().ConvolveDirect(p, input, filter, bias, output)
}

// clamp returns x limited to [lo, hi]. NaN passes through unchanged.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
