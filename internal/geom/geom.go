// Public domain.

// Package geom navigates straight lines of sight around a reference
// ellipsoid.
//
// Positions are Earth-centered Earth-fixed Cartesian coordinates in meters.
// Latitudes are geodetic.  Zenith angles are measured from the ellipsoid
// normal, azimuths clockwise from north.
package geom

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// Ellipsoid is an oblate reference ellipsoid.
type Ellipsoid struct {
	A  float64 // equatorial radius [m]
	E2 float64 // eccentricity squared
}

// FromGlobe converts a meeus ellipsoid (radius in km, flattening) to
// meters and squared eccentricity.
func FromGlobe(g globe.Ellipsoid) Ellipsoid {
	return Ellipsoid{A: g.Er * 1000, E2: g.Fl * (2 - g.Fl)}
}

// Earth is the IAU 1976 reference ellipsoid.
var Earth = FromGlobe(globe.Earth76)

// Sphere returns a spherical body of radius r [m].
func Sphere(r float64) Ellipsoid {
	return Ellipsoid{A: r}
}

// B returns the polar radius.
func (e Ellipsoid) B() float64 {
	return e.A * math.Sqrt(1-e.E2)
}

// n returns the prime vertical radius of curvature at latitude φ.
func (e Ellipsoid) n(sφ float64) float64 {
	return e.A / math.Sqrt(1-e.E2*sφ*sφ)
}

// Cart converts geodetic coordinates to ECEF.
func (e Ellipsoid) Cart(lat, lon unit.Angle, alt float64) coord.Cart {
	sφ, cφ := math.Sincos(lat.Rad())
	sλ, cλ := math.Sincos(lon.Rad())
	n := e.n(sφ)
	return coord.Cart{
		X: (n + alt) * cφ * cλ,
		Y: (n + alt) * cφ * sλ,
		Z: (n*(1-e.E2) + alt) * sφ,
	}
}

// Geodetic converts an ECEF position to geodetic coordinates.
//
// Latitude is found by fixed point iteration on φ = atan2(z + e²N sin φ, p),
// which converges to machine precision within a few iterations for any
// altitude of interest.
func (e Ellipsoid) Geodetic(c *coord.Cart) (lat, lon unit.Angle, alt float64) {
	p := math.Hypot(c.X, c.Y)
	λ := math.Atan2(c.Y, c.X)
	φ := math.Atan2(c.Z, p*(1-e.E2))
	for i := 0; i < 8; i++ {
		sφ := math.Sin(φ)
		φ = math.Atan2(c.Z+e.E2*e.n(sφ)*sφ, p)
	}
	sφ, cφ := math.Sincos(φ)
	alt = p*cφ + c.Z*sφ - e.A*math.Sqrt(1-e.E2*sφ*sφ)
	return unit.Angle(φ), unit.Angle(λ), alt
}

// enu returns the local east, north and up unit vectors at a geodetic
// position.
func enu(lat, lon unit.Angle) (east, north, up coord.Cart) {
	sφ, cφ := math.Sincos(lat.Rad())
	sλ, cλ := math.Sincos(lon.Rad())
	east = coord.Cart{X: -sλ, Y: cλ}
	north = coord.Cart{X: -sφ * cλ, Y: -sφ * sλ, Z: cφ}
	up = coord.Cart{X: cφ * cλ, Y: cφ * sλ, Z: sφ}
	return
}

// intersect returns the roots t of |P + tD| on the ellipsoid with semi-axes
// enlarged by alt.  ok is false when the line misses.
func (e Ellipsoid) intersect(p, d *coord.Cart, alt float64) (t1, t2 float64, ok bool) {
	a2 := e.A + alt
	a2 *= a2
	b2 := e.B() + alt
	b2 *= b2
	qa := (d.X*d.X+d.Y*d.Y)/a2 + d.Z*d.Z/b2
	qb := 2 * ((p.X*d.X+p.Y*d.Y)/a2 + p.Z*d.Z/b2)
	qc := (p.X*p.X+p.Y*p.Y)/a2 + p.Z*p.Z/b2 - 1
	disc := qb*qb - 4*qa*qc
	if disc < 0 || qa == 0 {
		return 0, 0, false
	}
	// numerically stable quadratic roots
	q := -.5 * (qb + math.Copysign(math.Sqrt(disc), qb))
	t1 = q / qa
	t2 = t1
	if q != 0 {
		t2 = qc / q
	}
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return t1, t2, true
}
