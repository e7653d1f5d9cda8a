package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/convcase"
)

var errCaseFailed = errors.New("one or more cases failed")

type runConfig struct {
	Algorithm string
	Kernel    string
	Verbose   bool
}

// runCases executes every case of a case file on the selected algorithms and
// reports the max abs deviation from the expected values and between algorithms.
func runCases(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(w)

	var cfg runConfig
	fs.StringVar(&cfg.Algorithm, "algorithm", "both", "Algorithm to run (im2col, direct, both)")
	fs.StringVar(&cfg.Kernel, "kernel", "", "Override the file's kernel variant (scalar, vectorized, blas)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Print output values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("run: expected exactly one case file")
	}

	algs, err := parseAlgorithms(cfg.Algorithm)
	if err != nil {
		return err
	}

	file, err := convcase.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if cfg.Kernel != "" {
		file.Engine.Kernel = cfg.Kernel
	}
	engine, err := file.Engine.BuildEngine()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "kernel=%s cases=%d\n", engine.Kernel().Name(), len(file.Cases))

	failed := 0
	for _, c := range file.Cases {
		ok, err := runCase(w, engine, c, algs, cfg.Verbose)
		if err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCaseFailed, failed, len(file.Cases))
	}
	return nil
}

func runCase(w io.Writer, e *conv.Engine, c convcase.Case, algs []conv.Algorithm, verbose bool) (bool, error) {
	ok := true
	outputs := make([][]float32, 0, len(algs))
	for _, alg := range algs {
		fx, err := c.Fixture(alg)
		if err != nil {
			return false, err
		}
		if err := fx.Run(e, alg); err != nil {
			return false, fmt.Errorf("%s: %w", alg, err)
		}
		out := fx.Output.Data()
		outputs = append(outputs, out)

		status := "ok"
		if len(c.Expected) > 0 {
			diff := maxAbsDiff(out, c.Expected)
			if diff > c.Tol() {
				status = "FAIL"
				ok = false
			}
			fmt.Fprintf(w, "%-32s %-7s %-4s max|diff|=%.3g\n", c.Name, alg, status, diff)
		} else {
			fmt.Fprintf(w, "%-32s %-7s %v\n", c.Name, alg, fx.Output.Shape())
		}
		if verbose {
			fmt.Fprintf(w, "  %v\n", out)
		}
	}
	if len(outputs) == 2 {
		diff := maxAbsDiff(outputs[0], outputs[1])
		if diff > c.Tol() {
			ok = false
		}
		fmt.Fprintf(w, "%-32s paths   max|diff|=%.3g\n", c.Name, diff)
	}
	return ok, nil
}

func parseAlgorithms(s string) ([]conv.Algorithm, error) {
	if s == "both" {
		return []conv.Algorithm{conv.AlgorithmIm2col, conv.AlgorithmDirect}, nil
	}
	alg, err := conv.ParseAlgorithm(s)
	if err != nil {
		return nil, err
	}
	return []conv.Algorithm{alg}, nil
}

// maxAbsDiff returns the largest elementwise |a-b|, or +Inf when lengths differ.
// NaN in the same slot of both slices counts as equal.
func maxAbsDiff(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var m float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if math.IsNaN(x) && math.IsNaN(y) {
			continue
		}
		d := math.Abs(x - y)
		if math.IsNaN(d) {
			return math.Inf(1)
		}
		if d > m {
			m = d
		}
	}
	return m
}
