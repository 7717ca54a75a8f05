// Public domain.

// Package background supplies the radiance entering the far end of a path
// and convolves forward results over an antenna pattern into a state-space
// Jacobian.
package background

import (
	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/interp"
	"github.com/soniakeys/radxfer/internal/path"
	"github.com/soniakeys/radxfer/internal/phys"
)

// Surface is a surface temperature grid over time, latitude and longitude.
type Surface struct {
	Time, Lat, Lon []float64
	Temp           []float64 // [K], row-major (time, lat, lon)
}

// NewSurface takes the surface temperature of f from its lowest altitude.
func NewSurface(f *atm.Field) *Surface {
	s := &Surface{Time: f.Time, Lat: f.Lat, Lon: f.Lon,
		Temp: make([]float64, len(f.Time)*len(f.Lat)*len(f.Lon))}
	shape := f.Shape()
	for it := range f.Time {
		for ila := range f.Lat {
			for ilo := range f.Lon {
				p := &f.Points[interp.Flat(shape, it, 0, ila, ilo)]
				s.Temp[interp.Flat(s.Shape(), it, ila, ilo)] = p.Temperature
			}
		}
	}
	return s
}

// Shape returns the grid dimensions in storage order.
func (s *Surface) Shape() []int {
	return []int{len(s.Time), len(s.Lat), len(s.Lon)}
}

// Corners returns the weighted grid nodes used to interpolate at the given
// position.
func (s *Surface) Corners(time, lat, lon float64) []interp.Corner {
	lat, lon = interp.Geographic(lat, lon)
	return interp.Corners(s.Shape(),
		interp.Locate(s.Time, time),
		interp.Locate(s.Lat, lat),
		interp.Locate(s.Lon, lon))
}

// Compute returns the surface radiance [frequency][stokes] at the given
// position, an unpolarized weighted sum of the Planck radiance of the
// corner temperatures, and the corners it used.
func (s *Surface) Compute(time, lat, lon float64, freqs []float64, stokes int) ([][]float64, []interp.Corner) {
	cs := s.Corners(time, lat, lon)
	out := unpolarized(freqs, stokes, func(f float64) (b float64) {
		for _, c := range cs {
			b += c.Weight * phys.Planck(f, s.Temp[c.Index])
		}
		return
	})
	return out, cs
}

// Space returns the cosmic background radiance [frequency][stokes].
func Space(freqs []float64, stokes int) [][]float64 {
	return unpolarized(freqs, stokes, func(f float64) float64 {
		return phys.Planck(f, phys.CMB)
	})
}

func unpolarized(freqs []float64, stokes int, b func(float64) float64) [][]float64 {
	out := make([][]float64, len(freqs))
	flat := make([]float64, len(freqs)*stokes)
	for i, f := range freqs {
		out[i] = flat[i*stokes : (i+1)*stokes]
		out[i][0] = b(f)
	}
	return out
}

// Background is what a path can end against.
type Background struct {
	Surface *Surface
}

// New returns the Background of field f.
func New(f *atm.Field) *Background {
	return &Background{Surface: NewSurface(f)}
}

// Compute returns the radiance entering a path ending at nav against kind.
// Surface radiance also returns its interpolation corners.
func (b *Background) Compute(kind path.Background, nav *geom.Nav, freqs []float64, stokes int) ([][]float64, []interp.Corner) {
	if kind == path.Surface {
		lat, lon, _ := nav.Geodetic()
		return b.Surface.Compute(nav.Time, lat.Deg(), lon.Deg(), freqs, stokes)
	}
	return Space(freqs, stokes), nil
}
