// Public domain.

// Package path traces a line of sight through an atmospheric field,
// producing the ordered list of points the radiative transfer integrates
// over.
package path

import (
	"math"

	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/rxerr"
)

// Point is a position on a path with the atmosphere interpolated there.
type Point struct {
	Nav geom.Nav
	Atm atm.Point
}

// Background identifies what lies behind the far end of a path.
type Background int

const (
	Space Background = iota
	Surface
)

func (b Background) String() string {
	if b == Surface {
		return "surface"
	}
	return "space"
}

// At interpolates field f at the position of nav.
func At(nav *geom.Nav, f *atm.Field) Point {
	lat, lon, alt := nav.Geodetic()
	return Point{*nav, f.At(nav.Time, alt, lat.Deg(), lon.Deg())}
}

// Trace follows nav through field f in steps of length step [m] up to the
// top of atmosphere toa [m].
//
// Points are ordered from the sensor outward.  A sensor above toa first
// moves forward to toa; if the line of sight never reaches it the result is
// an empty path against Space.  Tracing ends at the surface (background
// Surface) or on leaving the atmosphere (background Space), in which case
// the final point lies exactly on toa.  The magnitude of step is used; a
// zero step is ErrGeometryDegenerate.
func Trace(nav geom.Nav, f *atm.Field, step, toa float64) ([]Point, Background, error) {
	if step == 0 {
		return nil, Space, rxerr.ErrGeometryDegenerate
	}
	step = math.Abs(step)
	if nav.Altitude() > toa && !nav.MoveToAltitude(toa, true) {
		return nil, Space, nil
	}
	pts := []Point{At(&nav, f)}
	for {
		prev := nav.Pos
		hit := nav.Move(step)
		if hit {
			if geom.Dist(&prev, &nav.Pos) > 0 {
				pts = append(pts, At(&nav, f))
			}
			return pts, Surface, nil
		}
		if nav.Altitude() > toa {
			// a grazing exit can miss toa going back; end at the last point
			if nav.MoveToAltitude(toa, false) && geom.Dist(&prev, &nav.Pos) > 0 {
				pts = append(pts, At(&nav, f))
			}
			return pts, Space, nil
		}
		pts = append(pts, At(&nav, f))
	}
}

// Dist returns the straight line distance between two path points.
func Dist(a, b *Point) float64 {
	return geom.Dist(&a.Nav.Pos, &b.Nav.Pos)
}

// Length returns the summed segment lengths of a path.
func Length(pts []Point) (l float64) {
	for i := 1; i < len(pts); i++ {
		l += Dist(&pts[i-1], &pts[i])
	}
	return
}
