package cpu

import "sync"

// scratchPool recycles patch buffers by element count.
// A buffer is held by exactly one call between get and put.
type scratchPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

func newScratchPool() *scratchPool {
	return &scratchPool{pools: make(map[int]*sync.Pool)}
}

func (sp *scratchPool) pool(n int) *sync.Pool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	p, ok := sp.pools[n]
	if !ok {
		p = &sync.Pool{New: func() any {
			buf := make([]float32, n)
			return &buf
		}}
		sp.pools[n] = p
	}
	return p
}

// get returns a buffer of exactly n elements. Contents are unspecified.
func (sp *scratchPool) get(n int) *[]float32 {
	return sp.pool(n).Get().(*[]float32)
}

func (sp *scratchPool) put(buf *[]float32) {
	sp.pool(len(*buf)).Put(buf)
}
