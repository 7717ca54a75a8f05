// Public domain.

package rte_test

import (
	"errors"
	"math"
	"testing"

	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/derivative"
	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/path"
	"github.com/soniakeys/radxfer/internal/phys"
	"github.com/soniakeys/radxfer/internal/rte"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/species"
	"github.com/soniakeys/radxfer/internal/xsec"
	"github.com/soniakeys/radxfer/internal/zeeman"
)

const f0 = 100e9

func o2Band(shift float64) xsec.Band {
	return xsec.Band{
		Isotope: species.O2_66,
		Shape:   lineshape.Voigt,
		T0:      296,
		Lines: []xsec.Line{{
			F0: f0, S0: 1e-18, E0: 1e-20,
			Model: lineshape.HitranModel(species.O2_66, 10e3, 15e3, shift, .7),
		}},
	}
}

func air(p, t float64) atm.Point {
	return atm.Point{
		Pressure:    p,
		Temperature: t,
		Species:     []species.Isotope{species.O2_66, species.N2_44},
		VMR:         []float64{.21, .78},
	}
}

// column returns points above one another, nearest first, seen along a
// slant line of sight.
func column(states ...atm.Point) []path.Point {
	za, aa := unit.AngleFromDeg(150), unit.AngleFromDeg(30)
	pts := make([]path.Point, len(states))
	for i, s := range states {
		alt := float64(len(states)-1-i) * 1000
		pts[i] = path.Point{Nav: geom.NewNav(geom.Earth, 0, 0, 0, alt, za, aa), Atm: s}
	}
	return pts
}

func planck(freqs []float64, t float64, stokes int) [][]float64 {
	b := make([][]float64, len(freqs))
	for i, f := range freqs {
		b[i] = make([]float64, stokes)
		b[i][0] = phys.Planck(f, t)
	}
	return b
}

func TestZeroAbsorption(t *testing.T) {
	freqs := []float64{f0 - 1e6, f0, f0 + 1e6}
	h2o := o2Band(0)
	h2o.Isotope = species.H2O_161
	h2o.Lines[0].Model = lineshape.HitranModel(species.H2O_161, 10e3, 15e3, 0, .7)
	targets := []derivative.Target{
		derivative.Atm{Kind: derivative.Temperature},
		derivative.VMR{Isotope: species.O2_66},
	}
	for _, stokes := range []int{1, 4} {
		bg := make([][]float64, len(freqs))
		for i := range bg {
			bg[i] = []float64{1e-15, 2e-17, -3e-17, 1e-18}[:stokes]
		}
		for _, bands := range [][]xsec.Band{nil, {h2o}} {
			pts := column(air(8e3, 265), air(9e3, 270), air(10e3, 275))
			r, err := rte.Compute(bg, freqs, targets, bands, pts, stokes)
			require.NoError(t, err)
			assert.Equal(t, bg, r.Sensor())
			for _, d := range r.DX {
				for _, p := range d {
					for _, v := range p {
						assert.Equal(t, make([]float64, stokes), v)
					}
				}
			}
			id := mat.NewDiagDense(stokes, nil)
			for i := 0; i < stokes; i++ {
				id.SetDiag(i, 1)
			}
			for iv := range freqs {
				assert.True(t, mat.Equal(id, r.Background[iv]))
				assert.True(t, mat.Equal(id, r.T[0][iv]))
			}
		}
	}
}

func TestConfiguration(t *testing.T) {
	freqs := []float64{f0}
	pts := column(air(9e3, 270), air(10e3, 275))
	for _, c := range []struct {
		bg     [][]float64
		pts    []path.Point
		stokes int
		bands  []xsec.Band
	}{
		{planck(freqs, 300, 1), nil, 1, nil},
		{planck(freqs, 300, 1), pts, 0, nil},
		{planck(freqs, 300, 2), pts, 1, nil},
		{nil, pts, 1, nil},
		{planck(freqs, 300, 1), pts, 1, []xsec.Band{{Isotope: species.O2_66}}},
	} {
		_, err := rte.Compute(c.bg, freqs, nil, c.bands, c.pts, c.stokes)
		assert.True(t, errors.Is(err, rxerr.ErrConfiguration), "%v", err)
	}
}

// TestSingleLine is the two point O2 case: a 10 kPa, 275 K point and a
// 9 kPa, 270 K point one km apart, seen against a 299.7 K background.
func TestSingleLine(t *testing.T) {
	freqs := []float64{f0 - 50e6, f0 - 1e6, f0, f0 + 1e6, f0 + 50e6}
	bands := []xsec.Band{o2Band(0)}
	pts := column(air(9e3, 270), air(10e3, 275))
	require.InDelta(t, 1000, path.Dist(&pts[0], &pts[1]), 1e-6)

	k := xsec.NewResult(1, len(freqs), 0)
	za, aa := pts[1].Nav.LOS()
	require.NoError(t, xsec.ComputeAt(k, nil, freqs, bands, &pts[1].Atm, za, aa, nil))
	assert.Greater(t, k.K[2][xsec.A], k.K[1][xsec.A])
	assert.Greater(t, k.K[2][xsec.A], k.K[3][xsec.A])

	targets := []derivative.Target{derivative.Atm{Kind: derivative.Temperature}}
	bg := planck(freqs, 299.7, 1)
	r, err := rte.Compute(bg, freqs, targets, bands, pts, 1)
	require.NoError(t, err)
	r.ToBrightness(freqs)
	for iv := range freqs {
		assert.Less(t, r.Sensor()[iv][0], 299.7)
		assert.Greater(t, r.Sensor()[iv][0], 265.)
	}

	const dT = .1
	for ip := range pts {
		bt := func(h float64) []float64 {
			p := column(air(9e3, 270), air(10e3, 275))
			p[ip].Atm.Temperature += h
			r, err := rte.Compute(bg, freqs, nil, bands, p, 1)
			require.NoError(t, err)
			r.ToBrightness(freqs)
			out := make([]float64, len(freqs))
			for iv := range freqs {
				out[iv] = r.Sensor()[iv][0]
			}
			return out
		}
		plus, minus := bt(dT), bt(-dT)
		for iv := range freqs {
			num := (plus[iv] - minus[iv]) / (2 * dT)
			ana := r.DX[0][ip][iv][0]
			assert.InDelta(t, num, ana, .01*math.Abs(num)+1e-6,
				"point %d frequency %d", ip, iv)
		}
	}
}

func TestBrightness(t *testing.T) {
	freqs := []float64{f0}
	th, tv := 250., 230.
	bh, bv := phys.Planck(f0, th), phys.Planck(f0, tv)
	bg := [][]float64{{bh + bv, bh - bv}}
	r, err := rte.Compute(bg, freqs, nil, nil, column(air(1e3, 250)), 2)
	require.NoError(t, err)
	r.ToBrightness(freqs)
	assert.InDelta(t, th-tv, r.Sensor()[0][1], 1e-9)
	// The background sensitivity is now the brightness Jacobian.
	d := phys.DInvPlanck(f0, bh)
	assert.InEpsilon(t, .5*(d-phys.DInvPlanck(f0, bv)), r.Background[0].At(1, 0), 1e-9)
}

// atmStep perturbs one atmospheric input at one point.
type atmStep struct {
	target derivative.Target
	step   float64
	apply  func(a *atm.Point, h float64)
}

// lineStep perturbs a band input.
type lineStep struct {
	target derivative.Target
	step   float64
	apply  func(b []xsec.Band, h float64)
}

type scenario struct {
	stokes int
	freqs  []float64
	bands  func() []xsec.Band
	points func() []path.Point
	bg     [][]float64
}

func (s *scenario) sensor(t *testing.T, bands []xsec.Band, pts []path.Point) [][]float64 {
	r, err := rte.Compute(s.bg, s.freqs, nil, bands, pts, s.stokes)
	require.NoError(t, err)
	return r.Sensor()
}

func maxAbs(scale float64, v []float64) float64 {
	for _, x := range v {
		scale = math.Max(scale, math.Abs(x))
	}
	return scale
}

// check compares the analytic Jacobian with central differences.
func (s *scenario) check(t *testing.T, as []atmStep, ls []lineStep) {
	var targets []derivative.Target
	for _, a := range as {
		targets = append(targets, a.target)
	}
	for _, l := range ls {
		targets = append(targets, l.target)
	}
	pts := s.points()
	r, err := rte.Compute(s.bg, s.freqs, targets, s.bands(), pts, s.stokes)
	require.NoError(t, err)
	// A central difference cannot resolve less than the rounding of the
	// radiance itself divided by the step.
	var rmax float64
	for _, v := range r.Sensor() {
		rmax = maxAbs(rmax, v)
	}
	noise := func(step float64) float64 { return 1e-12 * rmax / step }

	for ti, a := range as {
		var scale float64
		for _, p := range r.DX[ti] {
			for _, v := range p {
				scale = maxAbs(scale, v)
			}
		}
		require.Greater(t, scale, 0., a.target.String())
		for ip := range pts {
			plus, minus := s.points(), s.points()
			a.apply(&plus[ip].Atm, a.step)
			a.apply(&minus[ip].Atm, -a.step)
			sp, sm := s.sensor(t, s.bands(), plus), s.sensor(t, s.bands(), minus)
			for iv := range s.freqs {
				for k := 0; k < s.stokes; k++ {
					num := (sp[iv][k] - sm[iv][k]) / (2 * a.step)
					assert.InDelta(t, num, r.DX[ti][ip][iv][k], 1e-4*scale+noise(a.step),
						"%s point %d frequency %d stokes %d", a.target, ip, iv, k)
				}
			}
		}
	}
	for li, l := range ls {
		ti := len(as) + li
		total := make([][]float64, len(s.freqs))
		var scale float64
		for iv := range total {
			total[iv] = make([]float64, s.stokes)
			for ip := range pts {
				for k := range total[iv] {
					total[iv][k] += r.DX[ti][ip][iv][k]
				}
			}
			scale = maxAbs(scale, total[iv])
		}
		require.Greater(t, scale, 0., l.target.String())
		plus, minus := s.bands(), s.bands()
		l.apply(plus, l.step)
		l.apply(minus, -l.step)
		sp, sm := s.sensor(t, plus, s.points()), s.sensor(t, minus, s.points())
		for iv := range s.freqs {
			for k := 0; k < s.stokes; k++ {
				num := (sp[iv][k] - sm[iv][k]) / (2 * l.step)
				assert.InDelta(t, num, total[iv][k], 1e-4*scale+noise(l.step),
					"%s frequency %d stokes %d", l.target, iv, k)
			}
		}
	}
}

func atmSteps() []atmStep {
	return []atmStep{
		{derivative.Atm{Kind: derivative.Temperature}, 1e-3,
			func(a *atm.Point, h float64) { a.Temperature += h }},
		{derivative.Atm{Kind: derivative.Pressure}, 1e-1,
			func(a *atm.Point, h float64) { a.Pressure += h }},
		{derivative.Atm{Kind: derivative.WindV}, 1,
			func(a *atm.Point, h float64) { a.Wind[1] += h }},
		{derivative.VMR{Isotope: species.O2_66}, 1e-5,
			func(a *atm.Point, h float64) { a.VMR[0] += h }},
	}
}

func lineSteps() []lineStep {
	return []lineStep{
		{derivative.Line{Kind: derivative.Center}, 1e3,
			func(b []xsec.Band, h float64) { b[0].Lines[0].F0 += h }},
		{derivative.Line{Kind: derivative.Strength}, 1e-22,
			func(b []xsec.Band, h float64) { b[0].Lines[0].S0 += h }},
		{derivative.Line{Kind: derivative.Shape, Param: lineshape.G0,
			Coef: lineshape.X0, Broadener: species.Bath}, 1,
			func(b []xsec.Band, h float64) { b[0].Lines[0].Model.Rows[1].P[lineshape.G0].X[0] += h }},
	}
}

func grid(center, step float64, n int) []float64 {
	f := make([]float64, 2*n+1)
	for i := range f {
		f[i] = center + float64(i-n)*step
	}
	return f
}

func TestJacobianScalar(t *testing.T) {
	freqs := grid(f0, 40e6, 3)
	s := scenario{
		stokes: 1,
		freqs:  freqs,
		bands: func() []xsec.Band {
			b := o2Band(300)
			b.Normalization = xsec.VVH
			b.Mirroring = xsec.MirrorLorentz
			return []xsec.Band{b}
		},
		points: func() []path.Point {
			pts := column(air(8e3, 265), air(9e3, 270), air(10e3, 275))
			pts[1].Atm.Wind = [3]float64{5, 10, -1}
			return pts
		},
		bg: planck(freqs, 290, 1),
	}
	s.check(t, atmSteps(), lineSteps())
}

func TestJacobianZeeman(t *testing.T) {
	freqs := grid(f0, 400e3, 5)
	bg := planck(freqs, phys.CMB, 4)
	for i := range bg {
		bg[i][1] = .1 * bg[i][0]
	}
	s := scenario{
		stokes: 4,
		freqs:  freqs,
		bands: func() []xsec.Band {
			b := o2Band(300)
			b.Zeeman = true
			b.Lines[0].Zeeman = &zeeman.Model{Gu: 2.0023, Gl: 1.001, Ju: 1, Jl: 2}
			return []xsec.Band{b}
		},
		points: func() []path.Point {
			pts := column(air(100, 230), air(150, 235), air(200, 240))
			for i := range pts {
				pts[i].Atm.Mag = [3]float64{20e-6, -10e-6 + 2e-6*float64(i), 40e-6}
			}
			return pts
		},
		bg: bg,
	}
	steps := atmSteps()
	for k := 0; k < 3; k++ {
		k := k
		steps = append(steps, atmStep{derivative.Atm{Kind: derivative.MagU + derivative.AtmKind(k)}, 1e-9,
			func(a *atm.Point, h float64) { a.Mag[k] += h }})
	}
	s.check(t, steps, lineSteps()[:1])
}

func TestJacobianNLTE(t *testing.T) {
	freqs := grid(f0, 40e6, 3)
	s := scenario{
		stokes: 1,
		freqs:  freqs,
		bands: func() []xsec.Band {
			b := o2Band(300)
			b.Population = xsec.NLTE
			l := &b.Lines[0]
			l.A, l.Gu, l.Gl = 1e-6, 3, 5
			l.NLTEUpper, l.NLTELower = 0, 1
			return []xsec.Band{b}
		},
		points: func() []path.Point {
			pts := column(air(8e3, 265), air(9e3, 270), air(10e3, 275))
			for i := range pts {
				pts[i].Atm.NLTE = []float64{.02, .1}
			}
			return pts
		},
		bg: planck(freqs, phys.CMB, 1),
	}
	s.check(t, atmSteps(), lineSteps()[:1])
}
