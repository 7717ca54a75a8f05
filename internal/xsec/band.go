// Public domain.

package xsec

import (
	"fmt"
	"math"

	"github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/species"
	"github.com/soniakeys/radxfer/internal/zeeman"
)

// Mirroring adds the contribution of each line reflected to negative
// frequency.
type Mirroring int

const (
	MirrorNone    Mirroring = iota
	MirrorLorentz           // reflected line always has a Lorentz shape
	MirrorSame              // reflected line has the band shape
	nMirroring
)

// Normalization scales the profile by a frequency dependent factor.
type Normalization int

const (
	NormNone Normalization = iota
	VVH                    // Van Vleck and Huber
	VVW                    // Van Vleck and Weisskopf
	RosenkranzQuadratic
	nNormalization
)

// Population selects how line strength is computed.
type Population int

const (
	// LTE scales the reference strength to the local temperature.
	LTE Population = iota
	// NLTE uses level populations carried by the atmosphere and the
	// Einstein coefficient.
	NLTE
	nPopulation
)

// Cutoff limits each line to a frequency window.  Inside the window the
// line joining the profile values at the two edges is subtracted so the
// profile falls to zero at both; outside the window it is zero.
type Cutoff int

const (
	CutNone Cutoff = iota
	// ByLineOffset gives each line the window F0 ± FCut.
	ByLineOffset
	// BandFixedFrequency gives every line the window ± FCut.
	BandFixedFrequency
	nCutoff
)

// Line is a spectral line.
type Line struct {
	F0 float64 // center [Hz]
	S0 float64 // reference intensity at T0 [Hz m²]
	E0 float64 // lower state energy [J]
	A  float64 // Einstein coefficient [1/s]

	// Statistical weights of the upper and lower levels.
	Gu, Gl float64

	// Zeeman data, nil for a line evaluated unsplit.
	Zeeman *zeeman.Model

	// Local quantum numbers, nil or of the length the species table gives.
	Local []int

	// Level indices into the NLTE population ratios of the atmosphere.
	NLTEUpper, NLTELower int

	Model lineshape.Model
}

// Band is a set of lines of one isotopologue sharing shape and strength
// calculations.
type Band struct {
	Isotope       species.Isotope
	Shape         lineshape.Kind
	Mirroring     Mirroring
	Normalization Normalization
	Population    Population
	Cutoff        Cutoff
	// Zeeman splits every line into polarized components.  It requires
	// Stokes dimension 4 and Zeeman data on every line.
	Zeeman bool
	T0     float64 // reference temperature [K]
	FCut   float64 // cutoff frequency [Hz]
	Global []int   // global quantum numbers
	Lines  []Line
}

// Validate checks b for use with Stokes dimension stokes and an
// atmosphere carrying nlte level populations.  Failures are configuration
// errors.
func (b *Band) Validate(stokes, nlte int) error {
	if b.Zeeman && stokes != 4 {
		return rxerr.Configf("Zeeman band needs Stokes dimension 4, have %d", stokes)
	}
	if !b.Isotope.Valid() || b.Isotope == species.Bath {
		return rxerr.Configf("band isotope %s", b.Isotope)
	}
	if !b.Shape.Valid() {
		return rxerr.Configf("line shape %s", b.Shape)
	}
	if b.Mirroring < 0 || b.Mirroring >= nMirroring ||
		b.Normalization < 0 || b.Normalization >= nNormalization ||
		b.Population < 0 || b.Population >= nPopulation ||
		b.Cutoff < 0 || b.Cutoff >= nCutoff {
		return rxerr.Configf("band %s: invalid mirroring, normalization, population or cutoff", b.Isotope)
	}
	if b.T0 <= 0 {
		return rxerr.Configf("band %s: reference temperature %g", b.Isotope, b.T0)
	}
	if b.Cutoff != CutNone && !(b.FCut > 0) {
		return rxerr.Configf("band %s: cutoff frequency %g", b.Isotope, b.FCut)
	}
	sp := &species.Table[b.Isotope]
	if b.Global != nil && len(b.Global) != sp.NGlobal {
		return rxerr.Configf("band %s: %d global quantum numbers, want %d",
			b.Isotope, len(b.Global), sp.NGlobal)
	}
	for i := range b.Lines {
		l := &b.Lines[i]
		if l.Local != nil && len(l.Local) != sp.NLocal {
			return rxerr.Configf("band %s line %d: %d local quantum numbers, want %d",
				b.Isotope, i, len(l.Local), sp.NLocal)
		}
		if err := l.Model.Validate(); err != nil {
			return rxerr.Config(fmt.Sprintf("band %s line %d", b.Isotope, i), err)
		}
		if b.Zeeman {
			if l.Zeeman == nil {
				return rxerr.Configf("band %s line %d: no Zeeman data", b.Isotope, i)
			}
			if err := l.Zeeman.Validate(); err != nil {
				return rxerr.Config(fmt.Sprintf("band %s line %d", b.Isotope, i), err)
			}
		}
		if b.Population == NLTE {
			if l.NLTEUpper < 0 || l.NLTEUpper >= nlte || l.NLTELower < 0 || l.NLTELower >= nlte {
				return rxerr.Configf("band %s line %d: NLTE levels %d, %d of %d",
					b.Isotope, i, l.NLTEUpper, l.NLTELower, nlte)
			}
			if l.Gl == 0 {
				return rxerr.Configf("band %s line %d: zero lower statistical weight", b.Isotope, i)
			}
		}
	}
	return nil
}

// Window returns the cutoff window of line l.  Without a cutoff it is
// unbounded.
func (b *Band) Window(l *Line) (lo, hi float64) {
	switch b.Cutoff {
	case ByLineOffset:
		return l.F0 - b.FCut, l.F0 + b.FCut
	case BandFixedFrequency:
		return -b.FCut, b.FCut
	}
	return math.Inf(-1), math.Inf(1)
}
