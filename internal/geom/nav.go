// Public domain.

package geom

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"
)

// Nav is a position and line of sight.  Dir is a unit vector.
type Nav struct {
	Ell  Ellipsoid
	Pos  coord.Cart
	Dir  coord.Cart
	Time float64 // [s], carried for atmospheric lookups
}

// NewNav constructs a Nav at a geodetic position looking along zenith
// angle za and azimuth aa.
func NewNav(ell Ellipsoid, time float64, lat, lon unit.Angle, alt float64, za, aa unit.Angle) Nav {
	east, north, up := enu(lat, lon)
	sz, cz := math.Sincos(za.Rad())
	sa, ca := math.Sincos(aa.Rad())
	var d, t coord.Cart
	d.MulScalar(&east, sz*sa)
	t.MulScalar(&north, sz*ca)
	d.Add(&d, &t)
	t.MulScalar(&up, cz)
	d.Add(&d, &t)
	return Nav{Ell: ell, Pos: ell.Cart(lat, lon, alt), Dir: d, Time: time}
}

// Geodetic returns the geodetic position.
func (n *Nav) Geodetic() (lat, lon unit.Angle, alt float64) {
	return n.Ell.Geodetic(&n.Pos)
}

// Altitude returns the height above the ellipsoid [m].
func (n *Nav) Altitude() float64 {
	_, _, alt := n.Ell.Geodetic(&n.Pos)
	return alt
}

// LOS returns the zenith and azimuth angles of the line of sight at the
// current position.
func (n *Nav) LOS() (za, aa unit.Angle) {
	lat, lon, _ := n.Geodetic()
	east, north, up := enu(lat, lon)
	cz := math.Max(-1, math.Min(1, n.Dir.Dot(&up)))
	return unit.Angle(math.Acos(cz)),
		unit.Angle(math.Atan2(n.Dir.Dot(&east), n.Dir.Dot(&north)))
}

// Offset returns n with the line of sight tilted by off.  rot selects the
// direction of the tilt: 0 toward increasing zenith angle, 90° toward
// increasing azimuth.
func (n Nav) Offset(off, rot unit.Angle) Nav {
	lat, lon, _ := n.Geodetic()
	za, aa := n.LOS()
	east, north, up := enu(lat, lon)
	sz, cz := math.Sincos(za.Rad())
	sa, ca := math.Sincos(aa.Rad())
	so, co := math.Sincos(off.Rad())
	sr, cr := math.Sincos(rot.Rad())
	d := combine(
		combine(east, sz*sa, north, sz*ca, up, cz), co,
		combine(east, cz*sa, north, cz*ca, up, -sz), so*cr,
		combine(east, ca, north, -sa, up, 0), so*sr)
	n.Dir = d
	return n
}

func combine(a coord.Cart, x float64, b coord.Cart, y float64, c coord.Cart, z float64) coord.Cart {
	return coord.Cart{
		X: a.X*x + b.X*y + c.X*z,
		Y: a.Y*x + b.Y*y + c.Y*z,
		Z: a.Z*x + b.Z*y + c.Z*z,
	}
}

func (n *Nav) step(t float64) {
	var d coord.Cart
	d.MulScalar(&n.Dir, t)
	n.Pos.Add(&n.Pos, &d)
}

// Move advances distance d along the line of sight.  A forward move is
// clipped where the line of sight meets the ellipsoid surface; hitSurface
// reports that case.
func (n *Nav) Move(d float64) (hitSurface bool) {
	if d > 0 {
		if t1, _, ok := n.Ell.intersect(&n.Pos, &n.Dir, 0); ok && t1 >= 0 && t1 <= d {
			n.step(t1)
			return true
		}
	}
	n.step(d)
	return false
}

// MoveToAltitude moves along the line of sight, forward or backward, to the
// nearest crossing of altitude alt.  It returns false, leaving n unchanged,
// when no such crossing exists.
//
// The crossing is first located on the ellipsoid with both semi-axes
// enlarged by alt, then refined by Newton steps on the geodetic altitude.
func (n *Nav) MoveToAltitude(alt float64, forward bool) bool {
	t1, t2, ok := n.Ell.intersect(&n.Pos, &n.Dir, alt)
	if !ok {
		return false
	}
	t := math.Inf(1)
	for _, r := range [2]float64{t1, t2} {
		if (forward && r >= 0 || !forward && r <= 0) && math.Abs(r) < math.Abs(t) {
			t = r
		}
	}
	if math.IsInf(t, 1) {
		return false
	}
	n.step(t)
	for i := 0; i < 4; i++ {
		lat, lon, h := n.Geodetic()
		_, _, up := enu(lat, lon)
		du := n.Dir.Dot(&up)
		if du == 0 || h == alt {
			break
		}
		n.step((alt - h) / du)
	}
	return true
}

// Dist returns the straight line distance between two positions.
func Dist(a, b *coord.Cart) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
