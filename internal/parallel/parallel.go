// Package parallel provides the worker fan-out used by the convolution paths.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// Sequential returns a configuration that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
// Each index is handed to exactly one goroutine; For returns after all of them finish.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForPositions runs f once for every (batch, y, x) triple of an NHWC grid.
//
// The triples are flattened to one index in batch → y → x order and handed to
// For, so work is chunked over all positions at once. Splitting by batch alone
// would leave workers idle for the common batch size of 1.
// Each position writes a disjoint slice of the output, so f needs no locking.
func ForPositions(batch, height, width int, f func(b, y, x int), cfg Config) {
	plane := height * width
	if plane == 0 {
		return
	}
	For(batch*plane, func(k int) {
		b := k / plane
		rem := k % plane
		f(b, rem/width, rem%width)
	}, cfg)
}
