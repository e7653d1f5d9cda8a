package mac

// VectorKernel accumulates in independent lanes and reduces them at the end,
// mirroring the register layout of a vector unit of the configured width.
type VectorKernel struct {
	lanes int
}

// Name returns "vectorized".
func (VectorKernel) Name() string { return Vectorized.String() }

// Lanes returns the configured vector length.
func (k VectorKernel) Lanes() int { return k.lanes }

// Accumulate returns acc + Σ a[i]*b[i].
func (k VectorKernel) Accumulate(acc float32, a, b []float32) float32 {
	return acc + k.dot(a, b[:len(a)])
}

// MatVec writes out[c] = Σ_i in[i]*weights[c*len(in)+i].
func (k VectorKernel) MatVec(out, weights, in []float32) {
	depth := len(in)
	for c := range out {
		out[c] = k.dot(in, weights[c*depth:(c+1)*depth])
	}
}

func (k VectorKernel) dot(a, b []float32) float32 {
	var reg [MaxVectorLength]float32
	lanes := k.lanes
	n := len(a)
	body := n - n%lanes

	for i := 0; i < body; i += lanes {
		va := a[i : i+lanes]
		vb := b[i : i+lanes]
		for l := range va {
			reg[l] += va[l] * vb[l]
		}
	}

	// Horizontal reduction, then the tail.
	var sum float32
	for l := 0; l < lanes; l++ {
		sum += reg[l]
	}
	for i := body; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
