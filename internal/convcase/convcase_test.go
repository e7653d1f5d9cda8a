package convcase

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
engine:
  kernel: vectorized
  vector_length: 4
  workers: 2
cases:
  - name: strided
    input: {shape: [1, 4, 4, 1], pattern: sequence}
    filter: {shape: [2, 2, 2, 1], fill: 0.5}
    bias: [1, 2]
    params: {stride: [2, 2], activation: relu, activation_max: 20}
`

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Cases, 1)

	k, err := f.Engine.BuildKernel()
	require.NoError(t, err)
	require.IsType(t, mac.VectorKernel{}, k)
	assert.Equal(t, 4, k.(mac.VectorKernel).Lanes())
	assert.True(t, f.Engine.ParallelConfig().Enabled)

	p, err := f.Cases[0].Params.ConvParams()
	require.NoError(t, err)
	assert.Equal(t, 2, p.StrideHeight)
	assert.Equal(t, 2, p.StrideWidth)
	assert.Equal(t, 1, p.DilationWidthFactor)
	assert.Equal(t, float32(0), p.ActivationMin)
	assert.Equal(t, float32(20), p.ActivationMax)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(strings.NewReader("cases: []\n"))
	assert.True(t, errors.Is(err, ErrNoCases))

	_, err = Load(strings.NewReader("cases:\n  - name: x\n    bogus: 1\n"))
	assert.Error(t, err, "unknown fields must be rejected")

	_, err = Load(strings.NewReader("cases:\n  - input: {shape: [1]}\n"))
	assert.Error(t, err, "cases need a name")
}

func TestCase_Fixture(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	c := f.Cases[0]

	fx, err := c.Fixture(conv.AlgorithmIm2col)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 2, 2}, fx.Output.Shape())
	require.NotNil(t, fx.Scratch)
	assert.Equal(t, tensor.Shape{1, 2, 2, 4}, fx.Scratch.Shape())

	direct, err := c.Fixture(conv.AlgorithmDirect)
	require.NoError(t, err)
	assert.Nil(t, direct.Scratch)

	e, err := f.Engine.BuildEngine()
	require.NoError(t, err)
	require.NoError(t, fx.Run(e, conv.AlgorithmIm2col))
	require.NoError(t, direct.Run(e, conv.AlgorithmDirect))

	// Window sums of the 4x4 sequence are 14, 22, 46, 54; halved, plus bias, capped at 20.
	want := []float32{8, 9, 12, 13, 20, 20, 20, 20}
	assert.InDeltaSlice(t, want, fx.Output.Data(), 1e-5)
	assert.InDeltaSlice(t, want, direct.Output.Data(), 1e-5)
}

func TestTensorSpec_Build(t *testing.T) {
	x, err := TensorSpec{Shape: []int{2, 2}, Values: []float32{1, 2, 3, 4}}.Build()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())

	_, err = TensorSpec{Shape: []int{2, 2}, Values: []float32{1}}.Build()
	assert.Error(t, err)

	_, err = TensorSpec{Shape: []int{2}, Pattern: "spiral"}.Build()
	assert.Error(t, err)

	_, err = TensorSpec{Shape: []int{0, 2}}.Build()
	assert.Error(t, err)
}

func TestParamsSpec_Infinity(t *testing.T) {
	f, err := Load(strings.NewReader(`
cases:
  - name: open
    params: {activation_min: -.inf, activation_max: .inf}
`))
	require.NoError(t, err)
	p, err := f.Cases[0].Params.ConvParams()
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(p.ActivationMin), -1))
	assert.True(t, math.IsInf(float64(p.ActivationMax), 1))
}

func TestLoadFile_ReferenceVectors(t *testing.T) {
	f, err := LoadFile("../../testdata/reference_vectors.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, f.Cases)

	_, err = LoadFile("does-not-exist.yaml")
	assert.Error(t, err)
}
