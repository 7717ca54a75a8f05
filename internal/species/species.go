// Public domain.

// Package species is a small table of isotopologue metadata: mass,
// partition function and the shape of the quantum number vectors carried
// by lines and bands.
//
// The table is declarative, like the orbit class table of a classifier: an
// Isotope is an index into Table.
package species

import (
	"fmt"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/radxfer/internal/phys"
)

// Isotope identifies an isotopologue, or the Bath pseudo-species that
// stands for all broadeners not otherwise listed.
type Isotope int

const (
	Bath Isotope = iota
	O2_66
	H2O_161
	N2_44
	O3_666
	CO2_626
)

// Table lists the modeled isotopologues.  Partition functions are
// polynomial fits in temperature, coefficients in increasing order.
var Table = []struct {
	Name    string
	Mass    float64 // [amu]
	Q       []float64
	NLocal  int // per-line quantum numbers
	NGlobal int // per-band quantum numbers
	// Broadens marks species with pressure broadening data.
	Broadens bool
}{
	Bath:    {"Bath", 28.96, nil, 0, 0, true},
	O2_66:   {"O2-66", 31.98983, []float64{.36, .7287}, 4, 2, true},
	H2O_161: {"H2O-161", 18.010565, []float64{-15.35, .4, .00082}, 6, 2, true},
	N2_44:   {"N2-44", 28.006148, []float64{-.7, 1.58}, 2, 2, true},
	O3_666:  {"O3-666", 47.984745, []float64{0, 4, .0263}, 6, 2, false},
	CO2_626: {"CO2-626", 43.98983, []float64{-1.5, .9716}, 2, 2, false},
}

func (i Isotope) String() string {
	if i < 0 || int(i) >= len(Table) {
		return fmt.Sprintf("Isotope(%d)", int(i))
	}
	return Table[i].Name
}

// Valid reports whether i indexes Table.
func (i Isotope) Valid() bool {
	return i >= 0 && int(i) < len(Table)
}

// Mass returns the molecular mass in kg.
func (i Isotope) Mass() float64 {
	return Table[i].Mass * phys.AMU
}

// Q returns the partition function at temperature t.
func (i Isotope) Q(t float64) float64 {
	c := Table[i].Q
	if c == nil {
		return 1
	}
	return base.Horner(t, c...)
}

// DQdT returns the temperature derivative of the partition function.
func (i Isotope) DQdT(t float64) float64 {
	c := Table[i].Q
	if len(c) < 2 {
		return 0
	}
	d := make([]float64, len(c)-1)
	for j := range d {
		d[j] = float64(j+1) * c[j+1]
	}
	return base.Horner(t, d...)
}

// Lookup finds an isotope by name.
func Lookup(name string) (Isotope, bool) {
	for i, s := range Table {
		if s.Name == name {
			return Isotope(i), true
		}
	}
	return 0, false
}
