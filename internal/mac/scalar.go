package mac

// ScalarKernel is the generic one-element-at-a-time implementation.
type ScalarKernel struct{}

// Name returns "scalar".
func (ScalarKernel) Name() string { return Scalar.String() }

// Accumulate returns acc + Σ a[i]*b[i].
func (ScalarKernel) Accumulate(acc float32, a, b []float32) float32 {
	b = b[:len(a)]
	var sum float32
	for i, v := range a {
		sum += v * b[i]
	}
	return acc + sum
}

// MatVec writes out[c] = Σ_i in[i]*weights[c*len(in)+i].
func (ScalarKernel) MatVec(out, weights, in []float32) {
	depth := len(in)
	for c := range out {
		row := weights[c*depth : (c+1)*depth]
		var sum float32
		for i, v := range in {
			sum += v * row[i]
		}
		out[c] = sum
	}
}
