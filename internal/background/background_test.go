// Public domain.

package background_test

import (
	"context"
	"math"
	"testing"

	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/background"
	"github.com/soniakeys/radxfer/internal/derivative"
	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/interp"
	"github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/path"
	"github.com/soniakeys/radxfer/internal/phys"
	"github.com/soniakeys/radxfer/internal/rte"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/sensor"
	"github.com/soniakeys/radxfer/internal/species"
	"github.com/soniakeys/radxfer/internal/xsec"
)

const f0 = 100e9

var freqs = []float64{f0 - 20e6, f0, f0 + 5e6}

// field is a small grid around latitude 5, longitude 8 with the
// temperature varying on every axis.
func field(t *testing.T) *atm.Field {
	alt := []float64{0, 10e3, 20e3}
	lat := []float64{0, 10}
	lon := []float64{0, 20}
	sp := []species.Isotope{species.O2_66, species.N2_44}
	var pts []atm.Point
	for ia := range alt {
		for ila := range lat {
			for ilo := range lon {
				pts = append(pts, atm.Point{
					Pressure:    2e4 / float64(1+3*ia) * (1 + .05*float64(ila)),
					Temperature: 285 - 25*float64(ia) + 2*float64(ila) - 3*float64(ilo),
					Species:     sp,
					VMR:         []float64{.21 - .01*float64(ilo), .78},
				})
			}
		}
	}
	f, err := atm.NewField([]float64{0}, alt, lat, lon, pts)
	require.NoError(t, err)
	return f
}

func bands() []xsec.Band {
	return []xsec.Band{{
		Isotope: species.O2_66,
		Shape:   lineshape.Voigt,
		T0:      296,
		Lines: []xsec.Line{{
			F0: f0, S0: 1e-18, E0: 1e-20,
			Model: lineshape.HitranModel(species.O2_66, 10e3, 15e3, 0, .7),
		}},
	}}
}

func boresight(alt, za float64) geom.Nav {
	return geom.NewNav(geom.Earth, 0, unit.AngleFromDeg(5), unit.AngleFromDeg(8),
		alt, unit.AngleFromDeg(za), unit.AngleFromDeg(30))
}

func pencil(stokes int, pols ...sensor.Polarization) sensor.Properties {
	return sensor.Properties{
		Stokes:        stokes,
		Freqs:         freqs,
		Beams:         sensor.Pencil(),
		Polarizations: pols,
	}
}

func TestSurface(t *testing.T) {
	f := field(t)
	s := background.NewSurface(f)
	assert.Equal(t, []int{1, 2, 2}, s.Shape())
	assert.Equal(t, []float64{285, 282, 287, 284}, s.Temp)

	x, cs := s.Compute(0, 0, 20, freqs, 2)
	require.Len(t, cs, 1)
	assert.Equal(t, 1, cs[0].Index)
	assert.Equal(t, phys.Planck(f0, 282), x[1][0])
	assert.Equal(t, 0., x[1][1])

	x, cs = s.Compute(0, 5, 10, freqs, 1)
	assert.Len(t, cs, 4)
	var want float64
	for _, temp := range s.Temp {
		want += phys.Planck(f0, temp) / 4
	}
	assert.InEpsilon(t, want, x[1][0], 1e-14)
	// the average of Planck radiances exceeds Planck of the average
	assert.Greater(t, x[1][0], phys.Planck(f0, 284.5))

	// longitude wraps, latitude clips
	_, cs = s.Compute(0, 95, 380, freqs, 1)
	assert.Equal(t, []interp.Corner{{Weight: 1, Index: 3}}, cs)
}

func TestSpace(t *testing.T) {
	x := background.Space(freqs, 3)
	for iv, f := range freqs {
		assert.Equal(t, []float64{phys.Planck(f, phys.CMB), 0, 0}, x[iv])
	}
	var b background.Background
	nav := boresight(30e3, 20)
	got, cs := b.Compute(path.Space, &nav, freqs, 3)
	assert.Nil(t, cs)
	assert.Equal(t, x, got)
}

func TestLayout(t *testing.T) {
	f := field(t)
	targets := []derivative.Target{
		derivative.Line{Kind: derivative.Center},
		derivative.Atm{Kind: derivative.Temperature},
		derivative.Surface{},
		derivative.VMR{Isotope: species.O2_66},
	}
	bs, n := background.Layout(targets, f, background.NewSurface(f))
	assert.Equal(t, 1+12+4+12, n)
	assert.Equal(t, []int{0, 1, 13, 17}, []int{bs[0].Offset, bs[1].Offset, bs[2].Offset, bs[3].Offset})
	assert.Equal(t, []int{1, 12, 4, 12}, []int{bs[0].N, bs[1].N, bs[2].N, bs[3].N})
}

func TestPencilMatchesForward(t *testing.T) {
	f := field(t)
	targets := []derivative.Target{derivative.Atm{Kind: derivative.Temperature}}
	s, err := background.NewScene(f, bands(), targets, 900)
	require.NoError(t, err)
	pos := boresight(25e3, 150)
	c, err := s.Convolve(context.Background(), pos, pencil(1, sensor.I))
	require.NoError(t, err)
	assert.Equal(t, []path.Background{path.Surface}, c.Ends)
	c2, err := background.ComputeConvolution(context.Background(), f, nil, pos,
		s.Bands, targets, pencil(1, sensor.I), 900)
	require.NoError(t, err)
	assert.Equal(t, c.Rad, c2.Rad)
	_, err = background.ComputeConvolution(context.Background(), f, nil, pos,
		s.Bands, targets, pencil(1, sensor.I), 0)
	assert.ErrorIs(t, err, rxerr.ErrConfiguration)

	pts, end, err := path.Trace(pos, f, 900, f.Top())
	require.NoError(t, err)
	require.Equal(t, path.Surface, end)
	b, _ := s.Background.Compute(end, &pts[len(pts)-1].Nav, freqs, 1)
	r, err := rte.Compute(b, freqs, targets, s.Bands, pts, 1)
	require.NoError(t, err)
	for iv := range freqs {
		assert.InEpsilon(t, r.Sensor()[iv][0], c.Rad[c.Row(iv, 0)], 1e-12)
		// temperature derivatives summed over the grid equal those summed
		// over the path
		var want, got float64
		for ip := range pts {
			want += r.DX[0][ip][iv][0]
		}
		for j := 0; j < c.Blocks[0].N; j++ {
			got += c.Jac.Get(c.Row(iv, 0), j)
		}
		assert.InEpsilon(t, want, got, 1e-9)
	}
}

func TestMissSeesSpace(t *testing.T) {
	f := field(t)
	s, err := background.NewScene(f, bands(), []derivative.Target{derivative.Surface{}}, 900)
	require.NoError(t, err)
	c, err := s.Convolve(context.Background(), boresight(100e3, 20), pencil(1, sensor.I))
	require.NoError(t, err)
	assert.Equal(t, []path.Background{path.Space}, c.Ends)
	for iv, fr := range freqs {
		assert.Equal(t, phys.Planck(fr, phys.CMB), c.Rad[iv])
	}
	for _, x := range c.Jac.Elements {
		assert.Equal(t, 0., x)
	}
}

func TestBeamOrderReduction(t *testing.T) {
	f := field(t)
	targets := []derivative.Target{
		derivative.Atm{Kind: derivative.Temperature},
		derivative.Surface{},
	}
	s, err := background.NewScene(f, bands(), targets, 900)
	require.NoError(t, err)
	pos := boresight(25e3, 150)
	p := pencil(1, sensor.I)
	want, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)
	p.Beams = []sensor.Beam{{Weight: .5}, {Weight: .5}}
	got, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)
	assert.Equal(t, want.Rad, got.Rad)
	assert.Equal(t, want.Jac.Elements, got.Jac.Elements)

	// a Gaussian beam is repeatable
	p.Beams, err = sensor.GaussianBeam(unit.AngleFromDeg(2), 8, 1)
	require.NoError(t, err)
	a, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)
	b, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)
	assert.Equal(t, a.Rad, b.Rad)
	assert.Equal(t, a.Jac.Elements, b.Jac.Elements)
	assert.NotEqual(t, want.Rad, a.Rad)
}

func TestCanceled(t *testing.T) {
	s, err := background.NewScene(field(t), bands(), nil, 900)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Convolve(ctx, boresight(25e3, 150), pencil(1, sensor.I))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolarizations(t *testing.T) {
	s, err := background.NewScene(field(t), bands(),
		[]derivative.Target{derivative.Atm{Kind: derivative.Temperature}}, 900)
	require.NoError(t, err)
	c, err := s.Convolve(context.Background(), boresight(25e3, 150),
		pencil(2, sensor.I, sensor.IpQ, sensor.ImQ, sensor.Q))
	require.NoError(t, err)
	for iv := range freqs {
		i := c.Rad[c.Row(iv, 0)]
		assert.Equal(t, i, c.Rad[c.Row(iv, 1)])
		assert.Equal(t, i, c.Rad[c.Row(iv, 2)])
		assert.Equal(t, 0., c.Rad[c.Row(iv, 3)])
		for j := 0; j < c.Jac.Shape[1]; j++ {
			assert.Equal(t, c.Jac.Get(c.Row(iv, 0), j), c.Jac.Get(c.Row(iv, 1), j))
		}
	}
}

func TestBrightness(t *testing.T) {
	s, err := background.NewScene(field(t), bands(),
		[]derivative.Target{derivative.Atm{Kind: derivative.Temperature}}, 900)
	require.NoError(t, err)
	pos := boresight(25e3, 150)
	p := pencil(1, sensor.I)
	rad, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)
	p.Brightness = true
	bt, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)
	for iv, fr := range freqs {
		assert.InEpsilon(t, phys.InvPlanck(fr, rad.Rad[iv]), bt.Rad[iv], 1e-12)
		assert.Greater(t, bt.Rad[iv], 200.)
		assert.Less(t, bt.Rad[iv], 290.)
		d := phys.DInvPlanck(fr, rad.Rad[iv])
		for j := 0; j < rad.Jac.Shape[1]; j++ {
			assert.InDelta(t, d*rad.Jac.Get(iv, j), bt.Jac.Get(iv, j), 1e-12)
		}
	}
}

// TestJacobian checks every column against central differences of the
// convolved radiance.
func TestJacobian(t *testing.T) {
	f := field(t)
	bs := bands()
	targets := []derivative.Target{
		derivative.Atm{Kind: derivative.Temperature},
		derivative.Atm{Kind: derivative.Pressure},
		derivative.VMR{Isotope: species.O2_66},
		derivative.Surface{},
		derivative.Line{Kind: derivative.Center},
	}
	s, err := background.NewScene(f, bs, targets, 900)
	require.NoError(t, err)
	pos := boresight(25e3, 150)
	p := pencil(1, sensor.I)
	c, err := s.Convolve(context.Background(), pos, p)
	require.NoError(t, err)

	type column struct {
		name  string
		col   int
		h     float64
		apply func(float64)
	}
	var cols []column
	for i := range f.Points {
		pt := &f.Points[i]
		cols = append(cols,
			column{"temperature", c.Blocks[0].Offset + i, .05,
				func(d float64) { pt.Temperature += d }},
			column{"pressure", c.Blocks[1].Offset + i, 1,
				func(d float64) { pt.Pressure += d }},
			column{"VMR", c.Blocks[2].Offset + i, 1e-4,
				func(d float64) { pt.VMR[0] += d }})
	}
	temp := s.Background.Surface.Temp
	for i := range temp {
		cols = append(cols, column{"surface", c.Blocks[3].Offset + i, .05,
			func(d float64) { temp[i] += d }})
	}
	cols = append(cols, column{"center", c.Blocks[4].Offset, 1e3,
		func(d float64) { bs[0].Lines[0].F0 += d }})

	// Differences of radiance this small are limited by its rounding.
	var rmax float64
	for _, r := range c.Rad {
		rmax = math.Max(rmax, math.Abs(r))
	}
	var nonzero int
	for _, col := range cols {
		col.apply(col.h)
		hi, err := s.Convolve(context.Background(), pos, p)
		require.NoError(t, err)
		col.apply(-2 * col.h)
		lo, err := s.Convolve(context.Background(), pos, p)
		require.NoError(t, err)
		col.apply(col.h)

		num := make([]float64, len(freqs))
		var scale float64
		for iv := range freqs {
			num[iv] = (hi.Rad[iv] - lo.Rad[iv]) / (2 * col.h)
			scale = math.Max(scale, math.Abs(num[iv]))
		}
		if scale > 0 {
			nonzero++
		}
		for iv := range freqs {
			assert.InDelta(t, num[iv], c.Jac.Get(iv, col.col), 1e-4*scale+1e-11*rmax/col.h,
				"%s column %d frequency %d", col.name, col.col, iv)
		}
	}
	// the path crosses every grid cell of this field
	assert.Greater(t, nonzero, len(cols)/2)
}
