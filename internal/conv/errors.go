package conv

import (
	"errors"
	"fmt"

	"github.com/born-ml/conv2d/internal/tensor"
)

// Common errors.
var (
	ErrShapeMismatch           = errors.New("shape mismatch")
	ErrMissingScratchBuffer    = errors.New("patch buffer required but not supplied")
	ErrUnexpectedScratchBuffer = errors.New("patch buffer supplied but not needed")
	ErrBiasLengthMismatch      = errors.New("bias length does not match output depth")
	ErrInvalidParams           = errors.New("invalid convolution parameters")
)

// ShapeError provides detailed information about shape validation failures.
// It matches ErrShapeMismatch under errors.Is.
type ShapeError struct {
	Op      string // Operation that failed (e.g., "conv2d im2col")
	Tensor  string // Primary tensor involved
	Tensor2 string // Secondary tensor (for agreement checks)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: %s: %s vs %s: %s", e.Op, ErrShapeMismatch, e.Tensor, e.Tensor2, e.Details)
	}
	return fmt.Sprintf("%s: %s: %s: %s", e.Op, ErrShapeMismatch, e.Tensor, e.Details)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func checkRank4(op, name string, s tensor.Shape) error {
	if err := s.CheckRank(tensor.Rank4); err != nil {
		return &ShapeError{Op: op, Tensor: name, Details: err.Error()}
	}
	return nil
}

// matchDim wraps tensor.MatchingDim into a ShapeError naming both tensors.
func matchDim(op, aName string, a tensor.Shape, ai int, bName string, b tensor.Shape, bi int) (int, error) {
	n, err := tensor.MatchingDim(a, ai, b, bi)
	if err != nil {
		return 0, &ShapeError{Op: op, Tensor: aName, Tensor2: bName, Details: err.Error()}
	}
	return n, nil
}

func checkBias(op string, bias []float32, outputDepth int) error {
	if bias != nil && len(bias) != outputDepth {
		return fmt.Errorf("%s: %w: got %d values for %d output channels", op, ErrBiasLengthMismatch, len(bias), outputDepth)
	}
	return nil
}
