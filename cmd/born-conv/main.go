// Package main provides the born-conv CLI for running and timing convolutions.
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "born-conv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, w io.Writer) error {
	if len(args) == 0 {
		usage(w)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(w, "born-conv %s\n", version)
		return nil
	case "run":
		return runCases(args[1:], w)
	case "bench":
		return runBench(args[1:], w)
	case "help", "-h", "--help":
		usage(w)
		return nil
	default:
		usage(w)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "born-conv - NHWC float32 convolution")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version               Show version")
	fmt.Fprintln(w, "  run [flags] <file>    Run the cases in a YAML case file")
	fmt.Fprintln(w, "  bench [flags]         Time both algorithms for each kernel variant")
}
