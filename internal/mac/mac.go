// Package mac implements the multiply-accumulate primitives shared by the convolution paths.
//
// Every variant satisfies the same Kernel contract; the variant in use is picked
// from a Config rather than from process-wide state, so two engines in one
// process can run different variants side by side.
package mac

import (
	"errors"
	"fmt"
	"strings"
)

// Kernel is the numeric reduction contract used by both convolution paths.
//
// Implementations perform no padding, bounds checking, bias or activation.
// Callers guarantee slice lengths agree.
type Kernel interface {
	// Name identifies the variant (for logs, benchmarks and CLI output).
	Name() string

	// Accumulate returns acc + Σ a[i]*b[i] over len(a) elements.
	Accumulate(acc float32, a, b []float32) float32

	// MatVec writes out[c] = Σ_i in[i]*weights[c*len(in)+i] for every c in [0, len(out)).
	// weights holds len(out) rows of len(in) values.
	MatVec(out, weights, in []float32)
}

// Variant selects a Kernel implementation.
type Variant int

// Supported kernel variants.
const (
	Scalar Variant = iota
	Vectorized
	BLAS
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Scalar:
		return "scalar"
	case Vectorized:
		return "vectorized"
	case BLAS:
		return "blas"
	default:
		return "unknown"
	}
}

// ParseVariant converts a name produced by Variant.String back into a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "generic":
		return Scalar, nil
	case "vectorized", "vector", "simd":
		return Vectorized, nil
	case "blas", "gonum":
		return BLAS, nil
	default:
		return Scalar, fmt.Errorf("mac: unknown kernel variant %q", s)
	}
}

// MaxVectorLength is the widest lane count the vectorized kernel accepts.
const MaxVectorLength = 16

// ElementWidth32 is the only element width (in bits) the kernels support.
const ElementWidth32 = 32

// ErrInvalidConfig is returned for configurations no kernel can honor.
var ErrInvalidConfig = errors.New("mac: invalid kernel configuration")

// Config describes the vector hardware a kernel is tuned for.
type Config struct {
	Variant      Variant // Which implementation to build.
	VectorLength int     // Lanes per vector register (1 disables lane blocking).
	ElementWidth int     // Element width in bits; must be 32.
}

// DetectConfig returns the configuration suited to the running architecture.
func DetectConfig() Config {
	lanes := archVectorLength
	v := Vectorized
	if lanes <= 1 {
		v = Scalar
		lanes = 1
	}
	return Config{
		Variant:      v,
		VectorLength: lanes,
		ElementWidth: ElementWidth32,
	}
}

// Validate reports whether the configuration can be honored.
func (c Config) Validate() error {
	if c.ElementWidth != ElementWidth32 {
		return fmt.Errorf("%w: element width %d (only %d supported)", ErrInvalidConfig, c.ElementWidth, ElementWidth32)
	}
	if c.VectorLength < 1 || c.VectorLength > MaxVectorLength {
		return fmt.Errorf("%w: vector length %d (must be in [1, %d])", ErrInvalidConfig, c.VectorLength, MaxVectorLength)
	}
	switch c.Variant {
	case Scalar, Vectorized, BLAS:
	default:
		return fmt.Errorf("%w: variant %d", ErrInvalidConfig, int(c.Variant))
	}
	return nil
}

// New builds the kernel described by cfg.
func New(cfg Config) (Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Variant {
	case Vectorized:
		if cfg.VectorLength == 1 {
			return ScalarKernel{}, nil
		}
		return VectorKernel{lanes: cfg.VectorLength}, nil
	case BLAS:
		return BLASKernel{}, nil
	default:
		return ScalarKernel{}, nil
	}
}

// Default returns the kernel for DetectConfig.
func Default() Kernel {
	k, err := New(DetectConfig())
	if err != nil {
		return ScalarKernel{}
	}
	return k
}
