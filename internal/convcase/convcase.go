// Package convcase loads convolution cases from YAML and turns them into ready-to-run tensors.
//
// Case files are shared by the reference-vector tests and the born-conv CLI:
//
//	engine:
//	  kernel: blas
//	cases:
//	  - name: ones_2x2
//	    input:  {shape: [1, 3, 3, 1], fill: 1}
//	    filter: {shape: [1, 2, 2, 1], fill: 1}
//	    params: {stride: [1, 1], dilation: [1, 1], padding: [0, 0], activation: none}
//	    expected: [4, 4, 4, 4]
package convcase

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
	"gopkg.in/yaml.v3"
)

// File is the top-level document of a case file.
type File struct {
	Engine EngineSpec `yaml:"engine"`
	Cases  []Case     `yaml:"cases"`
}

// EngineSpec configures the engine cases run on.
type EngineSpec struct {
	Kernel       string `yaml:"kernel"`        // scalar | vectorized | blas; empty detects.
	VectorLength int    `yaml:"vector_length"` // 0 keeps the detected width.
	Workers      int    `yaml:"workers"`       // 0 or 1 runs sequentially.
}

// TensorSpec describes tensor contents. Exactly one of Fill, Values or Pattern is used.
type TensorSpec struct {
	Shape   []int     `yaml:"shape"`
	Fill    *float32  `yaml:"fill,omitempty"`
	Values  []float32 `yaml:"values,omitempty"`
	Pattern string    `yaml:"pattern,omitempty"` // "sequence": 1, 2, 3, ...
}

// ParamsSpec mirrors conv.Params with [height, width] pairs.
type ParamsSpec struct {
	Stride        [2]int   `yaml:"stride"`
	Dilation      [2]int   `yaml:"dilation"`
	Padding       [2]int   `yaml:"padding"`
	Activation    string   `yaml:"activation"`
	ActivationMin *float32 `yaml:"activation_min,omitempty"`
	ActivationMax *float32 `yaml:"activation_max,omitempty"`
}

// Case is one convolution with its expected output.
type Case struct {
	Name        string     `yaml:"name"`
	Input       TensorSpec `yaml:"input"`
	Filter      TensorSpec `yaml:"filter"`
	Bias        []float32  `yaml:"bias,omitempty"`
	Params      ParamsSpec `yaml:"params"`
	OutputShape []int      `yaml:"output_shape,omitempty"` // Computed from params when empty.
	Expected    []float32  `yaml:"expected,omitempty"`
	Tolerance   float64    `yaml:"tolerance,omitempty"`
}

// ErrNoCases is returned for documents without any case.
var ErrNoCases = errors.New("case file has no cases")

// Load decodes a case file, rejecting unknown fields.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode case file: %w", err)
	}
	if len(f.Cases) == 0 {
		return nil, ErrNoCases
	}
	for i, c := range f.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("case %d: missing name", i)
		}
	}
	return &f, nil
}

// LoadFile opens and decodes path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// BuildKernel builds the multiply-accumulate kernel the file asks for.
func (s EngineSpec) BuildKernel() (mac.Kernel, error) {
	cfg := mac.DetectConfig()
	if s.Kernel != "" {
		v, err := mac.ParseVariant(s.Kernel)
		if err != nil {
			return nil, err
		}
		cfg.Variant = v
	}
	if s.VectorLength > 0 {
		cfg.VectorLength = s.VectorLength
	}
	return mac.New(cfg)
}

// ParallelConfig returns the fan-out configuration the file asks for.
func (s EngineSpec) ParallelConfig() parallel.Config {
	if s.Workers <= 1 {
		return parallel.Sequential()
	}
	return parallel.Config{Enabled: true, NumWorkers: s.Workers, MinChunkSize: 16}
}

// BuildEngine builds the engine the file asks for.
func (s EngineSpec) BuildEngine() (*conv.Engine, error) {
	k, err := s.BuildKernel()
	if err != nil {
		return nil, err
	}
	return conv.NewEngine(conv.WithKernel(k), conv.WithParallel(s.ParallelConfig())), nil
}

// ConvParams converts the YAML params into conv.Params. Zero strides and dilations default to 1.
func (p ParamsSpec) ConvParams() (conv.Params, error) {
	act, err := conv.ParseActivation(p.Activation)
	if err != nil {
		return conv.Params{}, err
	}
	out := conv.DefaultParams().WithActivation(act)
	out.StrideHeight, out.StrideWidth = orOne(p.Stride[0]), orOne(p.Stride[1])
	out.DilationHeightFactor, out.DilationWidthFactor = orOne(p.Dilation[0]), orOne(p.Dilation[1])
	out.PadHeight, out.PadWidth = p.Padding[0], p.Padding[1]
	if p.ActivationMin != nil {
		out.ActivationMin = *p.ActivationMin
	}
	if p.ActivationMax != nil {
		out.ActivationMax = *p.ActivationMax
	}
	return out, out.Validate()
}

func orOne(v int) int {
	if v == 0 {
		return 1
	}
	return v
}

// Build materializes the description as a freshly allocated tensor.
func (s TensorSpec) Build() (*tensor.Tensor, error) {
	shape := tensor.Shape(s.Shape)
	t, err := tensor.Zeros(shape)
	if err != nil {
		return nil, err
	}
	data := t.Data()
	switch {
	case len(s.Values) > 0:
		if len(s.Values) != len(data) {
			return nil, fmt.Errorf("%d values for shape %v (%d elements)", len(s.Values), shape, len(data))
		}
		copy(data, s.Values)
	case s.Pattern == "sequence":
		for i := range data {
			data[i] = float32(i + 1)
		}
	case s.Pattern != "":
		return nil, fmt.Errorf("unknown pattern %q", s.Pattern)
	case s.Fill != nil:
		t.Fill(*s.Fill)
	}
	return t, nil
}

// Fixture holds everything one call needs.
type Fixture struct {
	Params  conv.Params
	Input   *tensor.Tensor
	Filter  *tensor.Tensor
	Bias    []float32
	Output  *tensor.Tensor
	Scratch *tensor.Tensor // Allocated only for the im2col path when extraction is needed.
}

// Fixture builds tensors for running c with alg.
func (c Case) Fixture(alg conv.Algorithm) (*Fixture, error) {
	p, err := c.Params.ConvParams()
	if err != nil {
		return nil, fmt.Errorf("%s: params: %w", c.Name, err)
	}
	input, err := c.Input.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: input: %w", c.Name, err)
	}
	filter, err := c.Filter.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: filter: %w", c.Name, err)
	}
	outShape := tensor.Shape(c.OutputShape)
	if len(outShape) == 0 {
		if outShape, err = conv.OutputShape(p, input.Shape(), filter.Shape()); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	output, err := tensor.Zeros(outShape)
	if err != nil {
		return nil, fmt.Errorf("%s: output: %w", c.Name, err)
	}

	fx := &Fixture{Params: p, Input: input, Filter: filter, Bias: c.Bias, Output: output}
	if alg == conv.AlgorithmIm2col && filter.Shape().Rank() == tensor.Rank4 && outShape.Rank() == tensor.Rank4 &&
		p.Strategy(filter.Dims(tensor.AxisFilterHeight), filter.Dims(tensor.AxisFilterWidth)).NeedsPatchBuffer() {
		if fx.Scratch, err = tensor.Zeros(conv.PatchShape(filter.Shape(), outShape)); err != nil {
			return nil, fmt.Errorf("%s: patch buffer: %w", c.Name, err)
		}
	}
	return fx, nil
}

// Run executes the fixture on e with alg.
func (fx *Fixture) Run(e *conv.Engine, alg conv.Algorithm) error {
	return e.Run(alg, fx.Params, fx.Input, fx.Filter, fx.Bias, fx.Output, fx.Scratch)
}

// Tol returns the comparison tolerance, defaulting to 1e-5.
func (c Case) Tol() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return 1e-5
}
