// Public domain.

package atm

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/radxfer/internal/interp"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/species"
)

// Field is a gridded atmosphere.
//
// Axes are strictly increasing: Time [s], Alt [m], Lat [deg] and Lon [deg].
// Points is the flat row-major representation of the four-dimensional grid
// (time slowest, longitude fastest).  A Field is read-only once built and
// may be shared between goroutines.
type Field struct {
	Time, Alt, Lat, Lon []float64
	Points              []Point
	species             []species.Isotope
	nlte                int
}

// NewField validates grids and points and returns the Field.
//
// Every point must list the same species in the same order and carry the
// same number of NLTE levels.
func NewField(time, alt, lat, lon []float64, pts []Point) (*Field, error) {
	for _, g := range []struct {
		name string
		g    []float64
	}{{"time", time}, {"altitude", alt}, {"latitude", lat}, {"longitude", lon}} {
		if err := interp.CheckGrid(g.name, g.g); err != nil {
			return nil, rxerr.Config("atmospheric field", err)
		}
	}
	if floats.Min(lat) < -90 || floats.Max(lat) > 90 {
		return nil, rxerr.Configf("latitude grid outside [-90, 90]")
	}
	if floats.Min(lon) < 0 || floats.Max(lon) >= 360 {
		return nil, rxerr.Configf("longitude grid outside [0, 360)")
	}
	if n := len(time) * len(alt) * len(lat) * len(lon); len(pts) != n {
		return nil, rxerr.Configf("field has %d points, grid needs %d", len(pts), n)
	}
	f := &Field{Time: time, Alt: alt, Lat: lat, Lon: lon, Points: pts,
		species: pts[0].Species, nlte: len(pts[0].NLTE)}
	for i := range pts {
		p := &pts[i]
		if len(p.Species) != len(f.species) || len(p.VMR) != len(f.species) ||
			len(p.NLTE) != f.nlte {
			return nil, rxerr.Configf("point %d species or NLTE layout differs", i)
		}
		for j, s := range p.Species {
			if s != f.species[j] {
				return nil, rxerr.Configf("point %d species order differs", i)
			}
		}
		if !(p.Pressure > 0) || !(p.Temperature > 0) {
			return nil, rxerr.Configf("point %d needs positive pressure and temperature", i)
		}
	}
	for i, s := range f.species {
		for _, t := range f.species[:i] {
			if s == t {
				return nil, rxerr.Configf("species %s listed twice", s)
			}
		}
	}
	return f, nil
}

// NewProfile builds a Field from a single vertical profile: one time, one
// latitude and one longitude node.
func NewProfile(alt []float64, pts []Point) (*Field, error) {
	return NewField([]float64{0}, alt, []float64{0}, []float64{0}, pts)
}

// Shape returns the grid dimensions in storage order.
func (f *Field) Shape() []int {
	return []int{len(f.Time), len(f.Alt), len(f.Lat), len(f.Lon)}
}

// Species returns the species layout shared by all points.
func (f *Field) Species() []species.Isotope {
	return f.species
}

// Top returns the highest altitude of the grid.
func (f *Field) Top() float64 {
	return f.Alt[len(f.Alt)-1]
}

// Bottom returns the lowest altitude of the grid.
func (f *Field) Bottom() float64 {
	return f.Alt[0]
}

// Corners returns the weighted grid nodes used to interpolate at the given
// position.  Weights are non-zero and sum to 1.
func (f *Field) Corners(time, alt, lat, lon float64) []interp.Corner {
	lat, lon = interp.Geographic(lat, lon)
	return interp.Corners(f.Shape(),
		interp.Locate(f.Time, time),
		interp.Locate(f.Alt, alt),
		interp.Locate(f.Lat, lat),
		interp.Locate(f.Lon, lon))
}

// At interpolates the atmospheric state at the given position.
//
// Pressure is interpolated in log space: weighted logarithms are summed
// and exponentiated once.
func (f *Field) At(time, alt, lat, lon float64) Point {
	p := Point{
		Species: f.species,
		VMR:     make([]float64, len(f.species)),
		NLTE:    make([]float64, f.nlte),
	}
	for _, c := range f.Corners(time, alt, lat, lon) {
		p.accumulate(c.Weight, &f.Points[c.Index])
	}
	p.Pressure = math.Exp(p.Pressure)
	return p
}
