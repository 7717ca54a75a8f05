// Public domain.

// Package interp holds the linear interpolation mechanics shared by the
// atmospheric field and the surface background.
//
// Grids are strictly increasing slices.  Along each axis a query selects a
// lower node and a weight; the node above it gets the complementary weight.
// A query outside the grid clamps to the nearest end node.  Multi-axis
// queries combine the per-axis pairs into hypercube corners addressed by a
// flat row-major index.
package interp

import (
	"fmt"
	"math"
	"sort"
)

// LinearPoint is one node of a linear interpolation along a single axis.
type LinearPoint struct {
	Weight float64
	Index  int
}

// Weight returns the weight of x0 for x between x0 and x1.
//
// Coincident nodes give weight 1, which covers single node axes and
// queries clamped to an end of the grid.
func Weight(x, x0, x1 float64) float64 {
	if x0 == x1 {
		return 1
	}
	return (x1 - x) / (x1 - x0)
}

// Locate returns the two nodes bracketing x in grid.
//
// The upper node is found as the first node not less than x.  The first
// element of the result is the lower node.  When the lower weight is 1 the
// second element has weight 0 and its index may be past the end of grid;
// callers skip zero weights.
func Locate(grid []float64, x float64) [2]LinearPoint {
	if len(grid) < 2 {
		return [2]LinearPoint{{1, 0}, {0, 1}}
	}
	pos := sort.SearchFloat64s(grid, x)
	low := pos - 1
	if low < 0 {
		low = 0
	}
	w := 1.
	if pos < len(grid) {
		w = Weight(x, grid[low], grid[pos])
	}
	return [2]LinearPoint{{w, low}, {1 - w, low + 1}}
}

// Corner is a grid node of a multi-axis interpolation, addressed by its
// flat row-major index.
type Corner struct {
	Weight float64
	Index  int
}

// Flat computes the row-major flat index of idx in a grid of the given
// shape.
func Flat(shape []int, idx ...int) (x int) {
	for i, n := range shape {
		x = x*n + idx[i]
	}
	return
}

// Corners combines per-axis node pairs into the weighted corners of the
// enclosing hypercube.  Corners with zero weight are omitted, so the
// result never references an out of range node.
func Corners(shape []int, axes ...[2]LinearPoint) []Corner {
	n := len(axes)
	cs := make([]Corner, 0, 1<<n)
	idx := make([]int, n)
	for bits := 0; bits < 1<<n; bits++ {
		w := 1.
		for a := 0; a < n; a++ {
			lp := axes[a][bits>>(n-1-a)&1]
			w *= lp.Weight
			idx[a] = lp.Index
		}
		if w == 0 {
			continue
		}
		cs = append(cs, Corner{w, Flat(shape, idx...)})
	}
	return cs
}

// CheckGrid verifies grid is non-empty and strictly increasing.
func CheckGrid(name string, grid []float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("%s grid is empty", name)
	}
	for i := 1; i < len(grid); i++ {
		if !(grid[i] > grid[i-1]) {
			return fmt.Errorf("%s grid not strictly increasing at index %d", name, i)
		}
	}
	return nil
}

// Geographic clips lat to [-90, 90] and wraps lon to [0, 360).
func Geographic(lat, lon float64) (float64, float64) {
	lat = math.Max(-90, math.Min(90, lat))
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lat, lon
}
