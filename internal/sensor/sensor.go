// Public domain.

// Package sensor describes what an instrument sees: the lines of sight of
// its antenna beam and the polarizations it measures.
package sensor

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/rxerr"
)

// Beam is one weighted line of sight of an antenna pattern, tilted from the
// boresight by Offset in the direction Rotation.
type Beam struct {
	Offset   unit.Angle
	Rotation unit.Angle
	Weight   float64
}

// Apply returns the line of sight of b for boresight nav.
func (b *Beam) Apply(nav geom.Nav) geom.Nav {
	if b.Offset == 0 {
		return nav
	}
	return nav.Offset(b.Offset, b.Rotation)
}

// Pencil returns the single on-axis beam of an ideal antenna.
func Pencil() []Beam {
	return []Beam{{Weight: 1}}
}

// GaussianBeam samples n lines of sight from a circular Gaussian pattern
// with full width at half maximum fwhm.  Weights are equal and sum to 1.
// The same seed gives the same beams.
func GaussianBeam(fwhm unit.Angle, n int, seed uint64) ([]Beam, error) {
	if n < 1 || !(fwhm > 0) {
		return nil, rxerr.Configf("Gaussian beam of %d samples, width %v", n, fwhm)
	}
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(seed)
	sigma := fwhm.Rad() / (2 * math.Sqrt(2*math.Ln2))
	bs := make([]Beam, n)
	for i := range bs {
		x, y := rnd.NormFloat64()*sigma, rnd.NormFloat64()*sigma
		bs[i] = Beam{
			Offset:   unit.Angle(math.Hypot(x, y)),
			Rotation: unit.Angle(math.Atan2(y, x)),
			Weight:   1 / float64(n),
		}
	}
	return bs, nil
}

// Validate checks that beams is non-empty with non-negative weights and a
// positive total.
func Validate(beams []Beam) error {
	if len(beams) == 0 {
		return rxerr.Configf("no beams")
	}
	var sum float64
	for i, b := range beams {
		if !(b.Weight >= 0) || math.IsInf(b.Weight, 1) {
			return rxerr.Configf("beam %d weight %g", i, b.Weight)
		}
		sum += b.Weight
	}
	if !(sum > 0) {
		return rxerr.Configf("beam weights sum to %g", sum)
	}
	return nil
}

// Polarization is a measured combination of Stokes components.
type Polarization int

const (
	I Polarization = iota
	Q
	U
	V
	IpQ // I + Q
	ImQ // I - Q
	IpU
	ImU
	IpV
	ImV
	nPolarization
)

var polNames = [nPolarization]string{"I", "Q", "U", "V",
	"I+Q", "I-Q", "I+U", "I-U", "I+V", "I-V"}

func (p Polarization) String() string {
	if p < 0 || p >= nPolarization {
		return fmt.Sprintf("Polarization(%d)", int(p))
	}
	return polNames[p]
}

// ParsePolarization returns the polarization named s.
func ParsePolarization(s string) (Polarization, error) {
	for i, n := range polNames {
		if n == s {
			return Polarization(i), nil
		}
	}
	return 0, rxerr.Configf("unknown polarization %q", s)
}

// Coefficients returns the weights of the Stokes components I, Q, U, V
// that p combines.
func (p Polarization) Coefficients() (c [4]float64) {
	switch {
	case p <= V:
		c[p] = 1
	default:
		c[0] = 1
		k := 1 + int(p-IpQ)/2
		c[k] = 1
		if (p-IpQ)%2 == 1 {
			c[k] = -1
		}
	}
	return
}

// Value returns p of Stokes vector x.  Components beyond len(x) are zero.
func (p Polarization) Value(x []float64) (v float64) {
	c := p.Coefficients()
	for i, s := range x {
		v += c[i] * s
	}
	return
}

// Properties describe a measurement.
type Properties struct {
	Stokes        int
	Freqs         []float64
	Beams         []Beam
	Polarizations []Polarization
	// Brightness reports brightness temperature instead of radiance.
	Brightness bool
}

// Validate checks p.  A polarization needing a Stokes component beyond
// the Stokes dimension is a configuration error.
func (p *Properties) Validate() error {
	if p.Stokes < 1 || p.Stokes > 4 {
		return rxerr.Configf("Stokes dimension %d", p.Stokes)
	}
	if len(p.Freqs) == 0 {
		return rxerr.Configf("no frequencies")
	}
	if len(p.Polarizations) == 0 {
		return rxerr.Configf("no polarizations")
	}
	for _, pol := range p.Polarizations {
		if pol < 0 || pol >= nPolarization {
			return rxerr.Configf("%s", pol)
		}
		c := pol.Coefficients()
		for k := p.Stokes; k < 4; k++ {
			if c[k] != 0 {
				return rxerr.Configf("polarization %s needs Stokes dimension %d, have %d",
					pol, k+1, p.Stokes)
			}
		}
	}
	return Validate(p.Beams)
}
