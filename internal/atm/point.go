// Public domain.

// Package atm represents the atmospheric state: Point holds the state at
// one location, Field interpolates points gridded in time, altitude,
// latitude and longitude.
package atm

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/radxfer/internal/phys"
	"github.com/soniakeys/radxfer/internal/species"
)

// Point is the atmospheric state at one location.
//
// Wind and Mag are (u, v, w) components: eastward, northward, upward.
// Species and VMR are parallel; NLTE holds level population ratios
// indexed by the level numbers carried on lines.
type Point struct {
	Pressure    float64    // [Pa]
	Temperature float64    // [K]
	Wind        [3]float64 // [m/s]
	Mag         [3]float64 // [T]
	Species     []species.Isotope
	VMR         []float64
	NLTE        []float64
}

// VMROf returns the volume mixing ratio of iso, zero when absent.
func (p *Point) VMROf(iso species.Isotope) float64 {
	for i, s := range p.Species {
		if s == iso {
			return p.VMR[i]
		}
	}
	return 0
}

// Has reports whether iso is listed in p.
func (p *Point) Has(iso species.Isotope) bool {
	for _, s := range p.Species {
		if s == iso {
			return true
		}
	}
	return false
}

// NumberDensity returns P/kT [1/m³].
func (p *Point) NumberDensity() float64 {
	return p.Pressure / (phys.K * p.Temperature)
}

// DNumberDensityDT is the temperature derivative of NumberDensity.
func (p *Point) DNumberDensityDT() float64 {
	return -p.Pressure / (phys.K * p.Temperature * p.Temperature)
}

// DNumberDensityDP is the pressure derivative of NumberDensity.
func (p *Point) DNumberDensityDP() float64 {
	return 1 / (phys.K * p.Temperature)
}

// MagStrength returns the magnitude of the magnetic field [T].
func (p *Point) MagStrength() float64 {
	return math.Sqrt(p.Mag[0]*p.Mag[0] + p.Mag[1]*p.Mag[1] + p.Mag[2]*p.Mag[2])
}

// windProjection returns the coefficients of (u, v, w) in the wind speed
// toward an observer looking along zenith angle za and azimuth aa.  The
// propagation direction is opposite the viewing direction.
func windProjection(za, aa unit.Angle) (pu, pv, pw float64) {
	z := math.Pi - za.Rad()
	a := aa.Rad()
	if a <= 0 {
		a += math.Pi
	} else {
		a -= math.Pi
	}
	sz, cz := math.Sincos(z)
	sa, ca := math.Sincos(a)
	return sa * sz, ca * sz, cz
}

// FaceWindSpeed returns the component of the wind along the direction of
// propagation for a line of sight with zenith za and azimuth aa.
func (p *Point) FaceWindSpeed(za, aa unit.Angle) float64 {
	pu, pv, pw := windProjection(za, aa)
	return pu*p.Wind[0] + pv*p.Wind[1] + pw*p.Wind[2]
}

// DopplerShiftRatio returns the factor 1 - v/c applied to frequencies by
// the face wind speed v.
func (p *Point) DopplerShiftRatio(za, aa unit.Angle) float64 {
	return 1 - p.FaceWindSpeed(za, aa)/phys.C
}

// DDopplerShiftRatio returns the derivatives of DopplerShiftRatio with
// respect to the u, v, w wind components.
func DDopplerShiftRatio(za, aa unit.Angle) [3]float64 {
	pu, pv, pw := windProjection(za, aa)
	return [3]float64{-pu / phys.C, -pv / phys.C, -pw / phys.C}
}

// accumulate adds w times q to p.  Pressure accumulates as w ln P; see
// Field.At.
func (p *Point) accumulate(w float64, q *Point) {
	p.Pressure += w * math.Log(q.Pressure)
	p.Temperature += w * q.Temperature
	for i := range p.Wind {
		p.Wind[i] += w * q.Wind[i]
		p.Mag[i] += w * q.Mag[i]
	}
	for i := range p.VMR {
		p.VMR[i] += w * q.VMR[i]
	}
	for i := range p.NLTE {
		p.NLTE[i] += w * q.NLTE[i]
	}
}
