// Public domain.

// Package rte integrates the polarized radiative transfer equation along a
// path, giving radiance at every path point and the Jacobian of the sensor
// radiance.
package rte

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/soniakeys/radxfer/internal/derivative"
	"github.com/soniakeys/radxfer/internal/path"
	"github.com/soniakeys/radxfer/internal/phys"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/xsec"
)

// Result is a forward calculation along a path ordered from the sensor
// outward.
type Result struct {
	Stokes int

	// X is radiance [point][frequency][stokes].  X[0] is at the sensor and
	// the last point holds the background.
	X [][][]float64

	// T is the transmission [point][frequency] of the layer between point
	// i+1 and point i.  The last point has the identity.
	T [][]*mat.Dense

	// DX is the derivative of sensor radiance [target][point][frequency][stokes]
	// with respect to each target evaluated at each path point.  For a
	// target not tied to the atmosphere, such as a line parameter, the
	// total derivative is the sum over points.
	DX [][][][]float64

	// Background is the derivative [frequency] of sensor radiance with
	// respect to the background radiance.
	Background []*mat.Dense
}

func newResult(stokes, np, nf, nt int) *Result {
	r := &Result{
		Stokes:     stokes,
		X:          make([][][]float64, np),
		T:          make([][]*mat.Dense, np),
		DX:         make([][][][]float64, nt),
		Background: make([]*mat.Dense, nf),
	}
	vecs := func() [][]float64 {
		v := make([][]float64, nf)
		flat := make([]float64, nf*stokes)
		for i := range v {
			v[i] = flat[i*stokes : (i+1)*stokes]
		}
		return v
	}
	for ip := range r.X {
		r.X[ip] = vecs()
		r.T[ip] = make([]*mat.Dense, nf)
		for iv := range r.T[ip] {
			r.T[ip][iv] = identity(stokes)
		}
	}
	for t := range r.DX {
		r.DX[t] = make([][][]float64, np)
		for ip := range r.DX[t] {
			r.DX[t][ip] = vecs()
		}
	}
	for iv := range r.Background {
		r.Background[iv] = identity(stokes)
	}
	return r
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Sensor returns radiance at the sensor [frequency][stokes].
func (r *Result) Sensor() [][]float64 {
	return r.X[0]
}

// Compute runs the forward model for radiance background [frequency][stokes]
// entering the far end of pts.
//
// Layers are processed from the far end toward the sensor.  Each uses the
// mean propagation matrix of its two ends over their Euclidean distance
// and the mean of their source functions.
func Compute(background [][]float64, freqs []float64, targets []derivative.Target,
	bands []xsec.Band, pts []path.Point, stokes int) (*Result, error) {
	if stokes < 1 || stokes > 4 {
		return nil, rxerr.Configf("Stokes dimension %d", stokes)
	}
	if len(pts) == 0 {
		return nil, rxerr.Configf("empty path")
	}
	if len(background) != len(freqs) {
		return nil, rxerr.Configf("background has %d frequencies, want %d",
			len(background), len(freqs))
	}
	for iv, b := range background {
		if len(b) != stokes {
			return nil, rxerr.Configf("background at frequency %d has Stokes dimension %d, want %d",
				iv, len(b), stokes)
		}
	}
	np, nf, nt := len(pts), len(freqs), len(targets)
	r := newResult(stokes, np, nf, nt)
	for iv, b := range background {
		copy(r.X[np-1][iv], b)
	}

	near, far := xsec.NewResult(stokes, nf, nt), xsec.NewResult(stokes, nf, nt)
	snear, sfar := xsec.NewResult(stokes, nf, nt), xsec.NewResult(stokes, nf, nt)
	if err := xsec.Compute(near, snear, freqs, bands, &pts[np-1], targets); err != nil {
		return nil, err
	}
	temp := derivative.Index(targets, derivative.Atm{Kind: derivative.Temperature})
	l := newLayer(stokes, nt)
	for ip := np - 2; ip >= 0; ip-- {
		near, far = far, near
		snear, sfar = sfar, snear
		if err := xsec.Compute(near, snear, freqs, bands, &pts[ip], targets); err != nil {
			return nil, err
		}
		dist := path.Dist(&pts[ip], &pts[ip+1])
		tfar, tnear := pts[ip+1].Atm.Temperature, pts[ip].Atm.Temperature
		for iv, f := range freqs {
			l.far.set(far, sfar, iv, phys.Planck(f, tfar), phys.DPlanckDT(f, tfar), temp)
			l.near.set(near, snear, iv, phys.Planck(f, tnear), phys.DPlanckDT(f, tnear), temp)
			l.step(r, ip, iv, dist)
		}
	}
	return r, nil
}

// end is the state at one end of a layer at one frequency.
type end struct {
	k    *mat.Dense
	j    *mat.VecDense   // source function
	ks   *mat.VecDense   // K⁻¹ S
	dk   []*mat.Dense    // [target]
	dj   []*mat.VecDense // [target]
	zero []bool          // [target] no dependence
	s, v *mat.VecDense
}

func newEnd(n, nt int) end {
	e := end{
		k:    mat.NewDense(n, n, nil),
		j:    mat.NewVecDense(n, nil),
		ks:   mat.NewVecDense(n, nil),
		dk:   make([]*mat.Dense, nt),
		dj:   make([]*mat.VecDense, nt),
		zero: make([]bool, nt),
		s:    mat.NewVecDense(n, nil),
		v:    mat.NewVecDense(n, nil),
	}
	for i := range e.dk {
		e.dk[i] = mat.NewDense(n, n, nil)
		e.dj[i] = mat.NewVecDense(n, nil)
	}
	return e
}

func nonzero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return true
		}
	}
	return false
}

// set loads frequency iv of propagation matrix k and source excess s, with
// Planck radiance b and its temperature derivative db, and forms the source
// function J = B e0 + K⁻¹ S and its derivatives.  temp is the index of the
// temperature target or -1.
func (e *end) set(k, s *xsec.Result, iv int, b, db float64, temp int) {
	n := k.Stokes
	k.K[iv].Into(e.k)
	e.j.Zero()
	e.j.SetVec(0, b)

	// The excess is only used when some part of it is nonzero and K can be
	// solved.
	excess := nonzero(s.K[iv][:n])
	for t := range s.DK {
		excess = excess || nonzero(s.DK[t][iv][:n])
	}
	e.ks.Zero()
	if excess {
		for i := 0; i < n; i++ {
			e.s.SetVec(i, s.K[iv][i])
		}
		if err := e.ks.SolveVec(e.k, e.s); err != nil {
			e.ks.Zero()
			excess = false
		}
		e.j.AddVec(e.j, e.ks)
	}

	for t := range e.dk {
		k.DK[t][iv].Into(e.dk[t])
		dj := e.dj[t]
		dj.Zero()
		if t == temp {
			dj.SetVec(0, db)
		}
		if excess {
			// K⁻¹ (dS - dK K⁻¹ S)
			e.v.MulVec(e.dk[t], e.ks)
			for i := 0; i < n; i++ {
				e.s.SetVec(i, s.DK[t][iv][i]-e.v.AtVec(i))
			}
			if err := e.v.SolveVec(e.k, e.s); err == nil {
				dj.AddVec(dj, e.v)
			}
		}
		e.zero[t] = !nonzero(k.DK[t][iv][:]) && !nonzero(dj.RawVector().Data)
	}
}

// layer is the workspace for one layer step.
type layer struct {
	n         int
	far, near end
	id        *mat.Dense
	m, et     *mat.Dense // -r K̄, E - T
	dm, dt    *mat.Dense
	tmp       *mat.Dense
	block     *mat.Dense // 2n × 2n
	bexp      *mat.Dense
	j, diff   *mat.VecDense
	v, w      *mat.VecDense
}

func newLayer(n, nt int) *layer {
	l := &layer{
		n:    n,
		far:  newEnd(n, nt),
		near: newEnd(n, nt),
		id:   identity(n),
		m:    mat.NewDense(n, n, nil),
		et:   mat.NewDense(n, n, nil),
		dm:   mat.NewDense(n, n, nil),
		dt:   mat.NewDense(n, n, nil),
		tmp:  mat.NewDense(n, n, nil),
		j:    mat.NewVecDense(n, nil),
		diff: mat.NewVecDense(n, nil),
		v:    mat.NewVecDense(n, nil),
		w:    mat.NewVecDense(n, nil),
	}
	if n > 2 {
		l.block = mat.NewDense(2*n, 2*n, nil)
		l.bexp = mat.NewDense(2*n, 2*n, nil)
	}
	return l
}

// step computes radiance at point ip, frequency iv, from radiance at point
// ip+1 across a layer of length dist, and carries the Jacobian forward.
func (l *layer) step(r *Result, ip, iv int, dist float64) {
	n := l.n
	l.m.Add(l.far.k, l.near.k)
	l.m.Scale(-dist/2, l.m)
	t := r.T[ip][iv]
	l.expm(t, l.m)
	l.et.Sub(l.id, t)

	l.j.AddVec(l.far.j, l.near.j)
	l.j.ScaleVec(.5, l.j)

	// new = T old + (E - T) J, which leaves old unchanged when T = E.
	old := mat.NewVecDense(n, r.X[ip+1][iv])
	x := mat.NewVecDense(n, r.X[ip][iv])
	l.v.MulVec(t, old)
	l.w.MulVec(l.et, l.j)
	x.AddVec(l.v, l.w)

	l.diff.SubVec(old, l.j)
	np := len(r.X)
	for ti, d := range r.DX {
		for k := ip + 1; k < np; k++ {
			if !nonzero(d[k][iv]) {
				continue
			}
			v := mat.NewVecDense(n, d[k][iv])
			l.v.MulVec(t, v)
			v.CopyVec(l.v)
		}
		l.direct(ti, &l.far, t, d[ip+1][iv], dist)
		l.direct(ti, &l.near, t, d[ip][iv], dist)
	}
	bg := r.Background[iv]
	l.tmp.Mul(t, bg)
	bg.Copy(l.tmp)
}

// direct adds to dst the derivative of the new radiance with respect to
// target ti at end e: dT (old - J) + (E - T) dJ / 2.
func (l *layer) direct(ti int, e *end, t *mat.Dense, dst []float64, dist float64) {
	if e.zero[ti] {
		return
	}
	l.dm.Scale(-dist/2, e.dk[ti])
	l.dexpm(l.dt, l.m, l.dm, t)
	l.v.MulVec(l.dt, l.diff)
	l.w.MulVec(l.et, e.dj[ti])
	l.w.ScaleVec(.5, l.w)
	d := mat.NewVecDense(l.n, dst)
	d.AddVec(d, l.v)
	d.AddVec(d, l.w)
}

func isZero(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		if nonzero(m.RawRowView(i)[:c]) {
			return false
		}
	}
	return true
}

// expm sets t to exp(m).  Stokes dimensions 1 and 2 use closed forms; a
// zero matrix gives the identity exactly.
func (l *layer) expm(t, m *mat.Dense) {
	switch l.n {
	case 1:
		t.Set(0, 0, math.Exp(m.At(0, 0)))
	case 2:
		ea := math.Exp(m.At(0, 0))
		b := m.At(0, 1)
		c, s := ea*math.Cosh(b), ea*math.Sinh(b)
		t.Set(0, 0, c)
		t.Set(0, 1, s)
		t.Set(1, 0, s)
		t.Set(1, 1, c)
	default:
		if isZero(m) {
			t.Copy(l.id)
			return
		}
		t.Exp(m)
	}
}

// dexpm sets dt to the derivative of exp(m) along dm, where t = exp(m).
//
// In Stokes dimensions 1 and 2 the matrices commute.  Otherwise the
// derivative is the upper right block of exp([[m, dm], [0, m]]).
func (l *layer) dexpm(dt, m, dm, t *mat.Dense) {
	n := l.n
	if n <= 2 {
		dt.Mul(dm, t)
		return
	}
	l.block.Zero()
	l.block.Slice(0, n, 0, n).(*mat.Dense).Copy(m)
	l.block.Slice(n, 2*n, n, 2*n).(*mat.Dense).Copy(m)
	l.block.Slice(0, n, n, 2*n).(*mat.Dense).Copy(dm)
	l.bexp.Exp(l.block)
	dt.Copy(l.bexp.Slice(0, n, n, 2*n))
}
