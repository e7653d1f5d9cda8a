package im2col

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns a tensor holding 1, 2, 3, ... in row-major order.
func sequence(t *testing.T, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.Zeros(shape)
	require.NoError(t, err)
	for i := range x.Data() {
		x.Data()[i] = float32(i + 1)
	}
	return x
}

// poisoned returns a buffer pre-filled with NaN so unwritten slots are detectable.
func poisoned(t *testing.T, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.Full(shape, float32(math.NaN()))
	require.NoError(t, err)
	return x
}

func unit() Window {
	return Window{StrideWidth: 1, StrideHeight: 1, DilationWidth: 1, DilationHeight: 1}
}

func TestIm2col_NoPadding(t *testing.T) {
	input := sequence(t, tensor.Shape{1, 3, 3, 1})
	dst := poisoned(t, tensor.Shape{1, 2, 2, 4})

	require.NoError(t, Extractor{}.Im2col(unit(), 2, 2, 0, input, dst))

	want := []float32{
		1, 2, 4, 5,
		2, 3, 5, 6,
		4, 5, 7, 8,
		5, 6, 8, 9,
	}
	assert.Equal(t, want, dst.Data())
}

func TestIm2col_ZeroPadding(t *testing.T) {
	input := sequence(t, tensor.Shape{1, 3, 3, 1})
	dst := poisoned(t, tensor.Shape{1, 3, 3, 9})
	w := unit()
	w.PadWidth, w.PadHeight = 1, 1

	require.NoError(t, Extractor{}.Im2col(w, 3, 3, 0, input, dst))

	// Top-left patch: first row and column fall outside the input.
	assert.Equal(t, []float32{0, 0, 0, 0, 1, 2, 0, 4, 5}, dst.Data()[:9])
	// Centre patch sees the whole input.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, dst.Data()[4*9:5*9])
	for i, v := range dst.Data() {
		assert.False(t, math.IsNaN(float64(v)), "slot %d left unwritten", i)
	}
}

func TestIm2col_ZeroValueIsUsed(t *testing.T) {
	input := sequence(t, tensor.Shape{1, 1, 1, 1})
	dst := poisoned(t, tensor.Shape{1, 1, 1, 9})
	w := unit()
	w.PadWidth, w.PadHeight = 1, 1

	require.NoError(t, Extractor{}.Im2col(w, 3, 3, -7, input, dst))
	assert.Equal(t, []float32{-7, -7, -7, -7, 1, -7, -7, -7, -7}, dst.Data())
}

func TestIm2col_StrideAndChannels(t *testing.T) {
	input := sequence(t, tensor.Shape{1, 4, 4, 2})
	dst := poisoned(t, tensor.Shape{1, 2, 2, 8})
	w := unit()
	w.StrideWidth, w.StrideHeight = 2, 2

	require.NoError(t, Extractor{}.Im2col(w, 2, 2, 0, input, dst))

	// Output (1,1) starts at input (2,2): channels interleave per tap.
	at := func(y, x, c int) float32 { return input.At(0, y, x, c) }
	want := []float32{
		at(2, 2, 0), at(2, 2, 1), at(2, 3, 0), at(2, 3, 1),
		at(3, 2, 0), at(3, 2, 1), at(3, 3, 0), at(3, 3, 1),
	}
	assert.Equal(t, want, dst.Data()[3*8:4*8])
}

func TestDilatedIm2col_Corners(t *testing.T) {
	input := sequence(t, tensor.Shape{1, 3, 3, 1})
	dst := poisoned(t, tensor.Shape{1, 1, 1, 4})
	w := unit()
	w.DilationWidth, w.DilationHeight = 2, 2

	err := Extractor{}.DilatedIm2col(w, 0, input, tensor.Shape{1, 2, 2, 1}, tensor.Shape{1, 1, 1, 1}, dst)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 3, 7, 9}, dst.Data())
}

func TestDilatedIm2col_MatchesOrdinaryAtUnitDilation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	input, err := tensor.Zeros(tensor.Shape{2, 5, 6, 3})
	require.NoError(t, err)
	for i := range input.Data() {
		input.Data()[i] = rng.Float32()
	}

	w := Window{StrideWidth: 2, StrideHeight: 1, DilationWidth: 1, DilationHeight: 1, PadWidth: 1, PadHeight: 2}
	patchShape := tensor.Shape{2, 6, 3, 3 * 3 * 3}
	ordinary := poisoned(t, patchShape)
	dilated := poisoned(t, patchShape)

	require.NoError(t, Extractor{}.Im2col(w, 3, 3, 0, input, ordinary))
	require.NoError(t, Extractor{}.DilatedIm2col(w, 0, input, tensor.Shape{4, 3, 3, 3}, tensor.Shape{2, 6, 3, 4}, dilated))
	assert.Equal(t, ordinary.Data(), dilated.Data())
}

func TestIm2col_ParallelMatchesSequential(t *testing.T) {
	input := sequence(t, tensor.Shape{3, 8, 8, 2})
	w := Window{StrideWidth: 1, StrideHeight: 1, DilationWidth: 2, DilationHeight: 2, PadWidth: 2, PadHeight: 2}
	patchShape := tensor.Shape{3, 8, 8, 3 * 3 * 2}
	seq := poisoned(t, patchShape)
	par := poisoned(t, patchShape)

	filter := tensor.Shape{1, 3, 3, 2}
	output := tensor.Shape{3, 8, 8, 1}
	require.NoError(t, Extractor{Parallel: parallel.Sequential()}.DilatedIm2col(w, 0, input, filter, output, seq))
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 4}
	require.NoError(t, Extractor{Parallel: cfg}.DilatedIm2col(w, 0, input, filter, output, par))
	assert.Equal(t, seq.Data(), par.Data())
}

func TestIm2col_Errors(t *testing.T) {
	input := sequence(t, tensor.Shape{1, 3, 3, 2})

	t.Run("depth", func(t *testing.T) {
		dst := poisoned(t, tensor.Shape{1, 2, 2, 4})
		assert.Error(t, Extractor{}.Im2col(unit(), 2, 2, 0, input, dst))
	})
	t.Run("batch", func(t *testing.T) {
		dst := poisoned(t, tensor.Shape{2, 2, 2, 8})
		assert.Error(t, Extractor{}.Im2col(unit(), 2, 2, 0, input, dst))
	})
	t.Run("rank", func(t *testing.T) {
		dst := poisoned(t, tensor.Shape{4, 8})
		assert.Error(t, Extractor{}.Im2col(unit(), 2, 2, 0, input, dst))
	})
	t.Run("stride", func(t *testing.T) {
		dst := poisoned(t, tensor.Shape{1, 2, 2, 8})
		assert.Error(t, Extractor{}.Im2col(Window{}, 2, 2, 0, input, dst))
	})
	t.Run("dilated output grid", func(t *testing.T) {
		dst := poisoned(t, tensor.Shape{1, 2, 2, 8})
		w := unit()
		w.DilationWidth = 2
		err := Extractor{}.DilatedIm2col(w, 0, input, tensor.Shape{1, 2, 2, 2}, tensor.Shape{1, 1, 1, 1}, dst)
		assert.Error(t, err)
	})
}
