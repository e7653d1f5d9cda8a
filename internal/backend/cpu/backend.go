// Package cpu implements the allocating CPU backend on top of the convolution core.
package cpu

import (
	"github.com/born-ml/conv2d/internal/conv"
	"github.com/born-ml/conv2d/internal/mac"
	"github.com/born-ml/conv2d/internal/parallel"
)

// CPUBackend owns output and patch-buffer allocation so callers only supply
// the input, filter, bias and parameters.
type CPUBackend struct {
	engine    *conv.Engine
	algorithm conv.Algorithm
	scratch   *scratchPool
}

// Option configures a CPUBackend.
type Option func(*backendConfig)

type backendConfig struct {
	kernel    mac.Kernel
	par       parallel.Config
	algorithm conv.Algorithm
}

// WithKernel selects the multiply-accumulate kernel.
func WithKernel(k mac.Kernel) Option {
	return func(c *backendConfig) { c.kernel = k }
}

// WithParallel sets the fan-out configuration.
func WithParallel(cfg parallel.Config) Option {
	return func(c *backendConfig) { c.par = cfg }
}

// WithAlgorithm selects im2col (default) or direct convolution.
func WithAlgorithm(a conv.Algorithm) Option {
	return func(c *backendConfig) { c.algorithm = a }
}

// New creates a new CPU backend: detected kernel, parallel across CPUs, im2col.
func New(opts ...Option) *CPUBackend {
	cfg := backendConfig{
		kernel:    mac.Default(),
		par:       parallel.DefaultConfig(),
		algorithm: conv.AlgorithmIm2col,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CPUBackend{
		engine:    conv.NewEngine(conv.WithKernel(cfg.kernel), conv.WithParallel(cfg.par)),
		algorithm: cfg.algorithm,
		scratch:   newScratchPool(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Engine returns the engine the backend runs on.
func (cpu *CPUBackend) Engine() *conv.Engine {
	return cpu.engine
}

// Algorithm returns the configured convolution algorithm.
func (cpu *CPUBackend) Algorithm() conv.Algorithm {
	return cpu.algorithm
}
