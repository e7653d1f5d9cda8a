package cpu

import (
	"errors"
	"sync"
	"testing"

	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
)

func newTensor(t *testing.T, shape tensor.Shape, f func(i int) float32) *tensor.Tensor {
	t.Helper()
	x, err := tensor.Zeros(shape)
	if err != nil {
		t.Fatalf("Zeros(%v): %v", shape, err)
	}
	for i := range x.Data() {
		x.Data()[i] = f(i)
	}
	return x
}

func ones(int) float32 { return 1 }

func params(stride, padding int) conv.Params {
	p := conv.DefaultParams()
	p.StrideWidth, p.StrideHeight = stride, stride
	p.PadWidth, p.PadHeight = padding, padding
	return p
}

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 3, 3, 1] - single channel 3x3 image
	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := newTensor(t, tensor.Shape{1, 3, 3, 1}, func(i int) float32 { return float32(i + 1) })

	// Filter: [1, 2, 2, 1] - identity-like diagonal
	// 1 0
	// 0 1
	filter := newTensor(t, tensor.Shape{1, 2, 2, 1}, func(i int) float32 { return []float32{1, 0, 0, 1}[i] })

	output, err := backend.Conv2D(input, filter, nil, params(1, 0))
	if err != nil {
		t.Fatalf("Conv2D: %v", err)
	}

	expectedShape := tensor.Shape{1, 2, 2, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Diagonal sums: 1+5, 2+6, 4+8, 5+9
	expected := []float32{6, 8, 12, 14}
	for i, exp := range expected {
		if output.Data()[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, output.Data()[i])
		}
	}
}

// TestConv2D_WithPadding tests Conv2D with zero padding.
func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := newTensor(t, tensor.Shape{1, 3, 3, 1}, ones)
	filter := newTensor(t, tensor.Shape{1, 3, 3, 1}, ones)

	output, err := backend.Conv2D(input, filter, nil, params(1, 1))
	if err != nil {
		t.Fatalf("Conv2D: %v", err)
	}

	expectedShape := tensor.Shape{1, 3, 3, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Corner: 4 valid elements, edge: 6, center: 9
	expected := []float32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}
	for i, exp := range expected {
		if output.Data()[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, output.Data()[i])
		}
	}
}

// TestConv2D_WithStride tests Conv2D with stride > 1.
func TestConv2D_WithStride(t *testing.T) {
	backend := New()

	input := newTensor(t, tensor.Shape{1, 4, 4, 1}, func(i int) float32 { return float32(i + 1) })
	filter := newTensor(t, tensor.Shape{1, 2, 2, 1}, ones)

	output, err := backend.Conv2D(input, filter, nil, params(2, 0))
	if err != nil {
		t.Fatalf("Conv2D: %v", err)
	}

	// [0,0] patch: [1,2,5,6] -> 14
	// [0,2] patch: [3,4,7,8] -> 22
	// [2,0] patch: [9,10,13,14] -> 46
	// [2,2] patch: [11,12,15,16] -> 54
	expected := []float32{14, 22, 46, 54}
	for i, exp := range expected {
		if output.Data()[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, output.Data()[i])
		}
	}
}

// TestConv2D_MultiChannel tests Conv2D with multiple input/output channels.
func TestConv2D_MultiChannel(t *testing.T) {
	backend := New()

	// Input: [1, 3, 3, 2]; channel 0 is all 1s, channel 1 all 2s.
	input := newTensor(t, tensor.Shape{1, 3, 3, 2}, func(i int) float32 { return float32(i%2 + 1) })

	// Filter: [2, 2, 2, 2]; output channel 0 all 1s, output channel 1 all 0.5s.
	filter := newTensor(t, tensor.Shape{2, 2, 2, 2}, func(i int) float32 {
		if i < 8 {
			return 1
		}
		return 0.5
	})

	output, err := backend.Conv2D(input, filter, []float32{0, 1}, params(1, 0))
	if err != nil {
		t.Fatalf("Conv2D: %v", err)
	}

	expectedShape := tensor.Shape{1, 2, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Each patch: 4*1 + 4*2 = 12. Channel 1 halves it and adds its bias of 1.
	for i, v := range output.Data() {
		want := float32(12)
		if i%2 == 1 {
			want = 7
		}
		if v != want {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, want, v)
		}
	}
}

// TestConv2D_Batch tests Conv2D with batch size > 1.
func TestConv2D_Batch(t *testing.T) {
	backend := New()

	// Batch 0: [1,2,3,4], batch 1: [5,6,7,8]
	input := newTensor(t, tensor.Shape{2, 2, 2, 1}, func(i int) float32 { return float32(i + 1) })
	filter := newTensor(t, tensor.Shape{1, 2, 2, 1}, ones)

	output, err := backend.Conv2D(input, filter, nil, params(1, 0))
	if err != nil {
		t.Fatalf("Conv2D: %v", err)
	}

	expectedShape := tensor.Shape{2, 1, 1, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}
	if output.Data()[0] != 10.0 {
		t.Errorf("Batch 0: expected 10.0, got %.1f", output.Data()[0])
	}
	if output.Data()[1] != 26.0 {
		t.Errorf("Batch 1: expected 26.0, got %.1f", output.Data()[1])
	}
}

// TestConv2D_PaddedPointwise checks both algorithms accept a padded 1x1 filter.
func TestConv2D_PaddedPointwise(t *testing.T) {
	input := newTensor(t, tensor.Shape{1, 3, 3, 1}, ones)
	filter := newTensor(t, tensor.Shape{1, 1, 1, 1}, ones)

	// Border of zeros around the 3x3 input.
	expected := []float32{
		0, 0, 0, 0, 0,
		0, 1, 1, 1, 0,
		0, 1, 1, 1, 0,
		0, 1, 1, 1, 0,
		0, 0, 0, 0, 0,
	}
	for _, alg := range []conv.Algorithm{conv.AlgorithmIm2col, conv.AlgorithmDirect} {
		backend := New(WithAlgorithm(alg))
		output, err := backend.Conv2D(input, filter, nil, params(1, 1))
		if err != nil {
			t.Fatalf("%s: Conv2D: %v", alg, err)
		}
		if !output.Shape().Equal(tensor.Shape{1, 5, 5, 1}) {
			t.Fatalf("%s: expected shape [1 5 5 1], got %v", alg, output.Shape())
		}
		for i, exp := range expected {
			if output.Data()[i] != exp {
				t.Errorf("%s: Output[%d]: expected %.1f, got %.1f", alg, i, exp, output.Data()[i])
			}
		}
	}
}

// TestConv2D_MatchesDirect verifies the im2col backend matches the direct-loop backend.
func TestConv2D_MatchesDirect(t *testing.T) {
	im2colBackend := New(WithKernel(mac.BLASKernel{}))
	directBackend := New(WithAlgorithm(conv.AlgorithmDirect), WithKernel(mac.ScalarKernel{}))

	input := newTensor(t, tensor.Shape{1, 4, 4, 2}, func(i int) float32 { return float32(i % 7) })
	filter := newTensor(t, tensor.Shape{3, 3, 3, 2}, func(i int) float32 { return float32((i % 5) - 2) })

	configs := [][3]int{
		{1, 0, 1}, // stride, padding, dilation
		{1, 1, 1},
		{2, 0, 1},
		{1, 2, 2},
	}

	// Pointwise filter, padded and unpadded.
	pointwise := newTensor(t, tensor.Shape{3, 1, 1, 2}, func(i int) float32 { return float32(i) - 2.5 })
	for _, pad := range []int{0, 1} {
		a, err := im2colBackend.Conv2D(input, pointwise, nil, params(1, pad))
		if err != nil {
			t.Fatalf("im2col pointwise pad=%d: %v", pad, err)
		}
		b, err := directBackend.Conv2D(input, pointwise, nil, params(1, pad))
		if err != nil {
			t.Fatalf("direct pointwise pad=%d: %v", pad, err)
		}
		for i := range a.Data() {
			if a.Data()[i] != b.Data()[i] {
				t.Errorf("pointwise pad=%d index %d: im2col=%.4f, direct=%.4f", pad, i, a.Data()[i], b.Data()[i])
			}
		}
	}

	for _, cfg := range configs {
		p := params(cfg[0], cfg[1])
		p.DilationWidthFactor, p.DilationHeightFactor = cfg[2], cfg[2]

		a, err := im2colBackend.Conv2D(input, filter, []float32{1, -1, 0.5}, p)
		if err != nil {
			t.Fatalf("im2col %v: %v", cfg, err)
		}
		b, err := directBackend.Conv2D(input, filter, []float32{1, -1, 0.5}, p)
		if err != nil {
			t.Fatalf("direct %v: %v", cfg, err)
		}

		if !a.Shape().Equal(b.Shape()) {
			t.Fatalf("Shape mismatch %v: im2col=%v, direct=%v", cfg, a.Shape(), b.Shape())
		}
		for i := range a.Data() {
			diff := a.Data()[i] - b.Data()[i]
			if diff < -0.001 || diff > 0.001 {
				t.Errorf("Value mismatch at index %d %v: im2col=%.4f, direct=%.4f", i, cfg, a.Data()[i], b.Data()[i])
			}
		}
	}
}

func TestConv2D_Errors(t *testing.T) {
	backend := New()
	input := newTensor(t, tensor.Shape{1, 3, 3, 1}, ones)

	if _, err := backend.Conv2D(input, newTensor(t, tensor.Shape{1, 4, 4, 1}, ones), nil, params(1, 0)); !errors.Is(err, conv.ErrShapeMismatch) {
		t.Errorf("filter larger than input: expected ErrShapeMismatch, got %v", err)
	}
	if _, err := backend.Conv2D(input, newTensor(t, tensor.Shape{1, 2, 2, 3}, ones), nil, params(1, 0)); !errors.Is(err, conv.ErrShapeMismatch) {
		t.Errorf("depth mismatch: expected ErrShapeMismatch, got %v", err)
	}
	if _, err := backend.Conv2D(input, newTensor(t, tensor.Shape{2, 2, 2, 1}, ones), []float32{1}, params(1, 0)); !errors.Is(err, conv.ErrBiasLengthMismatch) {
		t.Errorf("bias: expected ErrBiasLengthMismatch, got %v", err)
	}
	if _, err := backend.Conv2D(input, newTensor(t, tensor.Shape{1, 2, 2, 1}, ones), nil, params(0, 0)); !errors.Is(err, conv.ErrInvalidParams) {
		t.Errorf("stride 0: expected ErrInvalidParams, got %v", err)
	}
	if _, err := backend.Conv2D(nil, nil, nil, params(1, 0)); !errors.Is(err, conv.ErrShapeMismatch) {
		t.Errorf("nil tensors: expected ErrShapeMismatch, got %v", err)
	}
}

// TestConv2D_ConcurrentCalls checks pooled patch buffers are never shared between calls.
func TestConv2D_ConcurrentCalls(t *testing.T) {
	backend := New(WithParallel(parallel.Sequential()))
	filter := newTensor(t, tensor.Shape{1, 3, 3, 1}, ones)

	inputs := make([]*tensor.Tensor, 32)
	for g := range inputs {
		v := float32(g)
		inputs[g] = newTensor(t, tensor.Shape{1, 5, 5, 1}, func(int) float32 { return v })
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(inputs))
	for g, input := range inputs {
		wg.Add(1)
		go func(v float32, input *tensor.Tensor) {
			defer wg.Done()
			out, err := backend.Conv2D(input, filter, nil, params(1, 1))
			if err != nil {
				errs <- err
				return
			}
			// Centre sees all nine taps.
			if got := out.At(0, 2, 2, 0); got != 9*v {
				errs <- errors.New("patch buffer shared between concurrent calls")
			}
		}(float32(g), input)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNew_Options(t *testing.T) {
	b := New(WithAlgorithm(conv.AlgorithmDirect), WithKernel(mac.ScalarKernel{}))
	if b.Name() != "CPU" {
		t.Errorf("Name: expected CPU, got %s", b.Name())
	}
	if b.Algorithm() != conv.AlgorithmDirect {
		t.Errorf("Algorithm: expected direct, got %s", b.Algorithm())
	}
	if b.Engine().Kernel().Name() != "scalar" {
		t.Errorf("Kernel: expected scalar, got %s", b.Engine().Kernel().Name())
	}
}

func TestScratchPool(t *testing.T) {
	sp := newScratchPool()
	buf := sp.get(12)
	if len(*buf) != 12 {
		t.Fatalf("Expected 12 elements, got %d", len(*buf))
	}
	sp.put(buf)
	if again := sp.get(12); len(*again) != 12 {
		t.Fatalf("Expected 12 elements, got %d", len(*again))
	}
	if other := sp.get(5); len(*other) != 5 {
		t.Fatalf("Expected 5 elements, got %d", len(*other))
	}
}

func BenchmarkConv2D(b *testing.B) {
	backend := New()
	input, _ := tensor.Full(tensor.Shape{1, 28, 28, 8}, 0.5)
	filter, _ := tensor.Full(tensor.Shape{16, 3, 3, 8}, 0.25)
	p := params(1, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := backend.Conv2D(input, filter, nil, p); err != nil {
			b.Fatal(err)
		}
	}
}
