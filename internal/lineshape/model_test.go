// Public domain.

package lineshape_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	ls "github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/species"
)

type mix map[species.Isotope]float64

func (m mix) VMROf(s species.Isotope) float64 { return m[s] }

func (m mix) Has(s species.Isotope) bool {
	_, ok := m[s]
	return ok
}

func central(f func(float64) float64, x, h float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{Formula: fd.Central, Step: h})
}

func TestSingleParameterDerivatives(t *testing.T) {
	const t0, temp, p = 296., 231.5, 5e4
	for m := ls.T0; m <= ls.DPL; m++ {
		for _, pres := range []int{0, 1, 2} {
			s := ls.SingleParameter{Temp: m, Pres: pres, X: [4]float64{2e-5, .7, .3, -.2}}
			if m == ls.LMAER {
				s.X = [4]float64{1.1, 1.3, .9, .6}
			}
			at := func(t, t0, p float64) float64 { return s.At(t, t0, p) }
			num := central(func(x float64) float64 { return at(x, t0, p) }, temp, 1e-3)
			near(t, num, s.DT(temp, t0, p), "%s DT", m)
			num = central(func(x float64) float64 { return at(temp, t0, x) }, p, 1)
			near(t, num, s.DP(temp, t0, p), "%s DP", m)
			num = central(func(x float64) float64 { return at(temp, x, p) }, t0, 1e-3)
			near(t, num, s.DT0(temp, t0, p), "%s DT0", m)
			for c := ls.X0; c < ls.NCoef; c++ {
				num := central(func(x float64) float64 {
					q := s
					q.X[c] = x
					return q.At(temp, t0, p)
				}, s.X[c], 1e-4*math.Abs(s.X[c]))
				near(t, num, s.DX(c, temp, t0, p), "%s DX %s", m, c)
			}
		}
	}
}

func near(t *testing.T, want, got float64, msg ...interface{}) {
	assert.InDelta(t, want, got, 1e-6*math.Abs(want)+1e-15, msg...)
}

func TestLMAERNodes(t *testing.T) {
	s := ls.SingleParameter{Temp: ls.LMAER, X: [4]float64{4, 3, 2, 1}}
	assert.InDelta(t, 4, s.At(200, 296, 1), 1e-12)
	assert.InDelta(t, 3, s.At(250, 296, 1), 1e-12)
	assert.InDelta(t, 2, s.At(296, 296, 1), 1e-12)
	assert.InDelta(t, 1, s.At(340, 296, 1), 1e-12)
	// extrapolation continues the end intervals
	assert.InDelta(t, 5, s.At(150, 296, 1), 1e-12)
}

func TestHitranModel(t *testing.T) {
	m := ls.HitranModel(species.O2_66, 1.8e-2, 2e-2, -1e-3, .75)
	require.NoError(t, m.Validate())
	const temp, p = 250., 1e4
	vmr := mix{species.O2_66: .21}
	x := m.At(temp, 296, p, vmr)
	r := 296 / temp
	g := (.21*2e-2 + .79*1.8e-2) * p * math.Pow(r, .75)
	assert.InEpsilon(t, g, x[ls.G0], 1e-12)
	assert.InEpsilon(t, -1e-3*p, x[ls.D0], 1e-12)
	assert.Zero(t, x[ls.G2])

	dp := m.DP(temp, 296, p, vmr)
	assert.InEpsilon(t, g/p, dp[ls.G0], 1e-12)

	// The Bath row absorbs the remainder, so d/dVMR is the row difference.
	dv := m.DVMR(species.O2_66, temp, 296, p, vmr)
	assert.InEpsilon(t, (2e-2-1.8e-2)*p*math.Pow(r, .75), dv[ls.G0], 1e-9)
	assert.Zero(t, dv[ls.D0])
	assert.Equal(t, ls.Params{}, m.DVMR(species.H2O_161, temp, 296, p, vmr))
}

func TestModelDerivatives(t *testing.T) {
	var m ls.Model
	row := func(s species.Isotope, g, n, d float64) ls.Broadener {
		b := ls.Broadener{Species: s}
		b.P[ls.G0] = ls.SingleParameter{Temp: ls.T1, Pres: 1, X: [4]float64{g, n}}
		b.P[ls.D0] = ls.SingleParameter{Temp: ls.T5, Pres: 1, X: [4]float64{d, .2}}
		b.P[ls.Y] = ls.SingleParameter{Temp: ls.DPL, Pres: 1, X: [4]float64{1e-6, .8, 2e-7, -.3}}
		return b
	}
	m.Rows = []ls.Broadener{
		row(species.N2_44, 1.6e-2, .74, -8e-4),
		row(species.H2O_161, 9e-2, .8, -1e-3),
		row(species.Bath, 1.7e-2, .7, -9e-4),
	}
	require.NoError(t, m.Validate())
	vmr := mix{species.N2_44: .78, species.H2O_161: .01, species.O2_66: .21}
	const temp, p = 270., 3e4

	dt := m.DT(temp, 296, p, vmr)
	for q := ls.G0; q < ls.NParam; q++ {
		num := central(func(x float64) float64 { return m.At(x, 296, p, vmr)[q] }, temp, 1e-3)
		assert.InDelta(t, num, dt[q], 1e-6*(1+math.Abs(num)), "DT %s", q)
	}
	for _, s := range []species.Isotope{species.N2_44, species.H2O_161} {
		dv := m.DVMR(s, temp, 296, p, vmr)
		for q := ls.G0; q < ls.NParam; q++ {
			num := central(func(x float64) float64 {
				v := mix{}
				for k, y := range vmr {
					v[k] = y
				}
				v[s] = x
				return m.At(temp, 296, p, v)[q]
			}, vmr[s], 1e-6)
			assert.InDelta(t, num, dv[q], 1e-6*(1+math.Abs(num)), "DVMR %s %s", s, q)
		}
	}
	dx := m.DX(species.H2O_161, ls.X1, temp, 296, p, vmr)
	num := central(func(x float64) float64 {
		mm := ls.Model{Rows: append([]ls.Broadener(nil), m.Rows...)}
		mm.Rows[1].P[ls.G0].X[1] = x
		return mm.At(temp, 296, p, vmr)[ls.G0]
	}, .8, 1e-6)
	assert.InEpsilon(t, num, dx[ls.G0], 1e-6)
	assert.Zero(t, m.DX(species.CO2_626, ls.X0, temp, 296, p, vmr)[ls.G0])
}

func TestModelValidate(t *testing.T) {
	m := ls.Model{Rows: []ls.Broadener{{Species: species.Bath}, {Species: species.Bath}}}
	assert.Error(t, m.Validate())
	m = ls.Model{Rows: []ls.Broadener{{Species: species.Isotope(99)}}}
	assert.Error(t, m.Validate())
	m = ls.Model{Rows: []ls.Broadener{{Species: species.Bath}}}
	m.Rows[0].P[ls.G0].Temp = ls.TempModel(42)
	assert.Error(t, m.Validate())
	m = ls.Model{Rows: []ls.Broadener{{Species: species.Bath}, {Species: species.O3_666}}}
	assert.Error(t, m.Validate())
}
