// Public domain.

package xsec

import "gonum.org/v1/gonum/mat"

// Elements are the seven independent elements of a propagation matrix,
// indexed by A, B, C, D, U, V, W.
//
//	A  B  C  D
//	B  A  U  V
//	C -U  A  W
//	D -V -W  A
type Elements [7]float64

const (
	A = iota
	B
	C
	D
	U
	V
	W
)

// Dense returns the leading stokes by stokes block of the matrix.
func (e *Elements) Dense(stokes int) *mat.Dense {
	m := mat.NewDense(stokes, stokes, nil)
	e.Into(m)
	return m
}

// Into writes the matrix into m, which must be square of the Stokes
// dimension.
func (e *Elements) Into(m *mat.Dense) {
	full := [4][4]float64{
		{e[A], e[B], e[C], e[D]},
		{e[B], e[A], e[U], e[V]},
		{e[C], -e[U], e[A], e[W]},
		{e[D], -e[V], -e[W], e[A]},
	}
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, full[i][j])
		}
	}
}

// Vector returns the first column, the Stokes vector form used for source
// terms.
func (e *Elements) Vector(stokes int) []float64 {
	v := make([]float64, stokes)
	copy(v, e[:stokes])
	return v
}

// Add adds s times o to e.
func (e *Elements) Add(s float64, o *Elements) {
	for i := range e {
		e[i] += s * o[i]
	}
}

// Result holds a propagation matrix per frequency and its derivatives per
// Jacobian target.  It also serves for the NLTE source excess, where only
// the first column is meaningful.
type Result struct {
	Stokes int
	K      []Elements   // [frequency]
	DK     [][]Elements // [target][frequency]
}

// NewResult allocates a zeroed Result.
func NewResult(stokes, nf, nt int) *Result {
	r := &Result{Stokes: stokes, K: make([]Elements, nf), DK: make([][]Elements, nt)}
	for i := range r.DK {
		r.DK[i] = make([]Elements, nf)
	}
	return r
}

// Reset zeroes r.
func (r *Result) Reset() {
	for i := range r.K {
		r.K[i] = Elements{}
	}
	for _, d := range r.DK {
		for i := range d {
			d[i] = Elements{}
		}
	}
}
