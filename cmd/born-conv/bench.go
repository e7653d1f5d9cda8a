package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
	"github.com/born-ml/conv2d/internal/tensor"
)

type benchConfig struct {
	Batch      int
	Size       int
	Channels   int
	Filters    int
	FilterSize int
	Stride     int
	Dilation   int
	Iterations int
	Sequential bool
}

// runBench times both algorithms for every kernel variant on one synthetic layer.
func runBench(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(w)

	var cfg benchConfig
	fs.IntVar(&cfg.Batch, "batch", 1, "Batch size")
	fs.IntVar(&cfg.Size, "size", 32, "Input height and width")
	fs.IntVar(&cfg.Channels, "channels", 16, "Input channels")
	fs.IntVar(&cfg.Filters, "filters", 32, "Output channels")
	fs.IntVar(&cfg.FilterSize, "k", 3, "Filter height and width")
	fs.IntVar(&cfg.Stride, "stride", 1, "Stride in both directions")
	fs.IntVar(&cfg.Dilation, "dilation", 1, "Dilation in both directions")
	fs.IntVar(&cfg.Iterations, "iterations", 10, "Iterations per measurement")
	fs.BoolVar(&cfg.Sequential, "sequential", false, "Run on a single goroutine")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.Iterations < 1 {
		return fmt.Errorf("bench: iterations must be >= 1, got %d", cfg.Iterations)
	}

	p := conv.DefaultParams()
	p.StrideWidth, p.StrideHeight = cfg.Stride, cfg.Stride
	p.DilationWidthFactor, p.DilationHeightFactor = cfg.Dilation, cfg.Dilation
	p.PadWidth, p.PadHeight = cfg.FilterSize/2*cfg.Dilation, cfg.FilterSize/2*cfg.Dilation

	input, err := tensor.Full(tensor.Shape{cfg.Batch, cfg.Size, cfg.Size, cfg.Channels}, 0.5)
	if err != nil {
		return fmt.Errorf("bench: input: %w", err)
	}
	filter, err := tensor.Full(tensor.Shape{cfg.Filters, cfg.FilterSize, cfg.FilterSize, cfg.Channels}, 0.01)
	if err != nil {
		return fmt.Errorf("bench: filter: %w", err)
	}
	outShape, err := conv.OutputShape(p, input.Shape(), filter.Shape())
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	output, err := tensor.Zeros(outShape)
	if err != nil {
		return err
	}
	var scratch *tensor.Tensor
	strategy := p.Strategy(cfg.FilterSize, cfg.FilterSize)
	if strategy.NeedsPatchBuffer() {
		if scratch, err = tensor.Zeros(conv.PatchShape(filter.Shape(), outShape)); err != nil {
			return err
		}
	}

	par := parallel.DefaultConfig()
	if cfg.Sequential {
		par = parallel.Sequential()
	}

	// 2 flops per multiply-accumulate.
	flops := 2 * float64(outShape.NumElements()) * float64(cfg.FilterSize*cfg.FilterSize*cfg.Channels)

	fmt.Fprintf(w, "input=%v filter=%v output=%v strategy=%s workers=%d\n",
		input.Shape(), filter.Shape(), outShape, strategy, workers(par))
	fmt.Fprintf(w, "%-12s %-8s %12s %10s\n", "kernel", "algo", "time/op", "GFLOPS")

	detected := mac.DetectConfig()
	for _, v := range []mac.Variant{mac.Scalar, mac.Vectorized, mac.BLAS} {
		kcfg := detected
		kcfg.Variant = v
		k, err := mac.New(kcfg)
		if err != nil {
			return err
		}
		e := conv.NewEngine(conv.WithKernel(k), conv.WithParallel(par))
		for _, alg := range []conv.Algorithm{conv.AlgorithmIm2col, conv.AlgorithmDirect} {
			s := scratch
			if alg == conv.AlgorithmDirect {
				s = nil
			}
			d, err := timeRuns(cfg.Iterations, func() error {
				return e.Run(alg, p, input, filter, nil, output, s)
			})
			if err != nil {
				return fmt.Errorf("bench %s/%s: %w", v, alg, err)
			}
			fmt.Fprintf(w, "%-12s %-8s %12s %10.2f\n", v, alg, d, flops/d.Seconds()/1e9)
		}
	}
	return nil
}

// timeRuns returns the mean duration of n calls to f after one warm-up call.
func timeRuns(n int, f func() error) (time.Duration, error) {
	if err := f(); err != nil {
		return 0, err
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := f(); err != nil {
			return 0, err
		}
	}
	return time.Since(start) / time.Duration(n), nil
}

func workers(cfg parallel.Config) int {
	if !cfg.Enabled {
		return 1
	}
	return cfg.NumWorkers
}
