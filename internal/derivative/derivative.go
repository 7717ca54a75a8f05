// Public domain.

// Package derivative names the quantities a Jacobian can be taken with
// respect to.
//
// A Target is one of the concrete types Atm, VMR, Line or Surface.  The
// dynamic type is the discriminant; all variants are comparable so
// targets can be found in a list with ==.
package derivative

import (
	"fmt"

	"github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/species"
)

// Target is a Jacobian target.
type Target interface {
	fmt.Stringer
	target()
}

// AtmKind selects an atmospheric state variable.
type AtmKind int

const (
	Temperature AtmKind = iota
	Pressure
	WindU
	WindV
	WindW
	MagU
	MagV
	MagW
	nAtmKind
)

var atmNames = [nAtmKind]string{"temperature", "pressure",
	"wind u", "wind v", "wind w", "mag u", "mag v", "mag w"}

func (k AtmKind) String() string {
	if k < 0 || k >= nAtmKind {
		return fmt.Sprintf("AtmKind(%d)", int(k))
	}
	return atmNames[k]
}

// Wind reports whether k is a wind component, returning its index.
func (k AtmKind) Wind() (int, bool) {
	return int(k - WindU), k >= WindU && k <= WindW
}

// Mag reports whether k is a magnetic field component, returning its
// index.
func (k AtmKind) Mag() (int, bool) {
	return int(k - MagU), k >= MagU && k <= MagW
}

// Atm is an atmospheric state variable at each field grid point.
type Atm struct{ Kind AtmKind }

// VMR is the volume mixing ratio of one isotopologue at each field grid
// point.
type VMR struct{ Isotope species.Isotope }

// LineKind selects what a Line target perturbs.
type LineKind int

const (
	Strength LineKind = iota // reference line strength S0
	Center                   // line center F0
	Shape                    // coefficient Coef of parameter Param for Broadener
	nLineKind
)

// Line is a spectroscopic parameter of one line, addressed by band and
// line index.  Param, Coef and Broadener are used only with Kind Shape.
type Line struct {
	Band, Line int
	Kind       LineKind
	Param      lineshape.Param
	Coef       lineshape.Coef
	Broadener  species.Isotope
}

// Surface is the surface temperature at each surface grid point.
type Surface struct{}

func (Atm) target()     {}
func (VMR) target()     {}
func (Line) target()    {}
func (Surface) target() {}

func (t Atm) String() string { return t.Kind.String() }

func (t VMR) String() string { return "VMR " + t.Isotope.String() }

func (t Line) String() string {
	switch t.Kind {
	case Strength:
		return fmt.Sprintf("band %d line %d strength", t.Band, t.Line)
	case Center:
		return fmt.Sprintf("band %d line %d center", t.Band, t.Line)
	}
	return fmt.Sprintf("band %d line %d %s %s %s",
		t.Band, t.Line, t.Broadener, t.Param, t.Coef)
}

func (Surface) String() string { return "surface temperature" }

// Gridded reports whether t is defined per atmospheric grid point.
func Gridded(t Target) bool {
	switch t.(type) {
	case Atm, VMR:
		return true
	}
	return false
}

// Validate checks the enumerated fields of each target and rejects
// duplicates.
func Validate(ts []Target) error {
	for i, t := range ts {
		switch t := t.(type) {
		case Atm:
			if t.Kind < 0 || t.Kind >= nAtmKind {
				return fmt.Errorf("target %d: %s", i, t.Kind)
			}
		case VMR:
			if !t.Isotope.Valid() || t.Isotope == species.Bath {
				return fmt.Errorf("target %d: VMR of %s", i, t.Isotope)
			}
		case Line:
			if t.Band < 0 || t.Line < 0 || t.Kind < 0 || t.Kind >= nLineKind {
				return fmt.Errorf("target %d: invalid line target %+v", i, t)
			}
			if t.Kind == Shape && (t.Param < 0 || t.Param >= lineshape.NParam ||
				t.Coef < 0 || t.Coef >= lineshape.NCoef || !t.Broadener.Valid()) {
				return fmt.Errorf("target %d: invalid shape target %+v", i, t)
			}
		case Surface:
		case nil:
			return fmt.Errorf("target %d: nil", i)
		default:
			return fmt.Errorf("target %d: unknown type %T", i, t)
		}
		if Index(ts[:i], t) >= 0 {
			return fmt.Errorf("target %d: %s listed twice", i, t)
		}
	}
	return nil
}

// Index returns the position of t in ts, or -1.
func Index(ts []Target, t Target) int {
	for i, x := range ts {
		if x == t {
			return i
		}
	}
	return -1
}
