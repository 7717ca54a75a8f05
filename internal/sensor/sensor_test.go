// Public domain.

package sensor_test

import (
	"errors"
	"math"
	"testing"

	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/sensor"
)

func TestPencil(t *testing.T) {
	bs := sensor.Pencil()
	require.Len(t, bs, 1)
	n := geom.NewNav(geom.Earth, 0, 0, 0, 800e3, unit.AngleFromDeg(120), 0)
	assert.Equal(t, n, bs[0].Apply(n))
	assert.NoError(t, sensor.Validate(bs))
}

func TestGaussianBeam(t *testing.T) {
	fwhm := unit.AngleFromDeg(.5)
	a, err := sensor.GaussianBeam(fwhm, 2000, 7)
	require.NoError(t, err)
	b, err := sensor.GaussianBeam(fwhm, 2000, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	c, err := sensor.GaussianBeam(fwhm, 2000, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	// the mean squared offset of a circular Gaussian is 2σ²
	var sum, sq float64
	for _, x := range a {
		sum += x.Weight
		sq += x.Offset.Rad() * x.Offset.Rad()
	}
	assert.InDelta(t, 1, sum, 1e-12)
	sigma := fwhm.Rad() / (2 * math.Sqrt(2*math.Ln2))
	assert.InEpsilon(t, 2*sigma*sigma, sq/float64(len(a)), .1)

	_, err = sensor.GaussianBeam(fwhm, 0, 1)
	assert.True(t, errors.Is(err, rxerr.ErrConfiguration))
}

func TestPolarization(t *testing.T) {
	x := []float64{10, 3, -2, 1}
	for _, c := range []struct {
		p    sensor.Polarization
		want float64
	}{
		{sensor.I, 10}, {sensor.Q, 3}, {sensor.U, -2}, {sensor.V, 1},
		{sensor.IpQ, 13}, {sensor.ImQ, 7},
		{sensor.IpU, 8}, {sensor.ImU, 12},
		{sensor.IpV, 11}, {sensor.ImV, 9},
	} {
		assert.Equal(t, c.want, c.p.Value(x), c.p.String())
		p, err := sensor.ParsePolarization(c.p.String())
		require.NoError(t, err)
		assert.Equal(t, c.p, p)
	}
	assert.Equal(t, 10., sensor.ImV.Value(x[:1]))
	_, err := sensor.ParsePolarization("X")
	assert.Error(t, err)
}

func TestProperties(t *testing.T) {
	p := sensor.Properties{
		Stokes:        2,
		Freqs:         []float64{1e11},
		Beams:         sensor.Pencil(),
		Polarizations: []sensor.Polarization{sensor.IpQ, sensor.ImQ},
	}
	assert.NoError(t, p.Validate())
	p.Polarizations = append(p.Polarizations, sensor.V)
	assert.True(t, errors.Is(p.Validate(), rxerr.ErrConfiguration))
	p.Polarizations = []sensor.Polarization{sensor.I}
	p.Beams = []sensor.Beam{{Weight: -1}}
	assert.Error(t, p.Validate())
	p.Beams = nil
	assert.Error(t, p.Validate())
}
