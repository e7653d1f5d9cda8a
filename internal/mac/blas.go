package mac

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// BLASKernel delegates to the gonum float32 BLAS (Sdot / Sgemv).
// Any implementation registered with blas32.Use (e.g. a cgo OpenBLAS binding) is picked up.
type BLASKernel struct{}

// Name returns "blas".
func (BLASKernel) Name() string { return BLAS.String() }

// Accumulate returns acc + Σ a[i]*b[i].
func (BLASKernel) Accumulate(acc float32, a, b []float32) float32 {
	if len(a) == 0 {
		return acc
	}
	x := blas32.Vector{N: len(a), Inc: 1, Data: a}
	y := blas32.Vector{N: len(a), Inc: 1, Data: b[:len(a)]}
	return acc + blas32.Dot(x, y)
}

// MatVec writes out = W·in with W the len(out)×len(in) row-major weight matrix.
func (BLASKernel) MatVec(out, weights, in []float32) {
	rows, cols := len(out), len(in)
	if rows == 0 {
		return
	}
	if cols == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	w := blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: weights[:rows*cols]}
	x := blas32.Vector{N: cols, Inc: 1, Data: in}
	y := blas32.Vector{N: rows, Inc: 1, Data: out}
	// beta == 0 overwrites out without reading it.
	blas32.Gemv(blas.NoTrans, 1, w, x, 0, y)
}
