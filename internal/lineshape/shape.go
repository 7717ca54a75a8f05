// Public domain.

// Package lineshape computes normalized complex line profiles and their
// analytic derivatives.
//
// A Shape is built once per line and atmospheric state, caching every term
// that does not depend on frequency.  At evaluates the profile at a
// frequency and retains the frequency dependent terms, so that any number
// of derivatives at that frequency can be taken with Deriv.  Derivatives
// are directional: a Perturbation lists the first order change of each
// primitive input, and Deriv returns the resulting change of the profile.
// The named helpers DFdf, DFdF0, ... wrap the common directions.
//
// Profiles are normalized so the real part integrates to 1 over frequency.
package lineshape

import (
	"fmt"
	"math"

	"github.com/soniakeys/radxfer/internal/phys"
)

// Kind selects a line shape.
type Kind int

const (
	Doppler Kind = iota
	Lorentz
	Voigt
	SpeedDependentVoigt
	SpeedDependentHardCollisionVoigt
	HartmannTran
	nKind
)

var kindNames = [nKind]string{"DP", "LP", "VP", "SDVP", "SDHCVP", "HTP"}

func (k Kind) String() string {
	if k < 0 || k >= nKind {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is a defined shape.
func (k Kind) Valid() bool {
	return k >= 0 && k < nKind
}

// Perturbation is a first order change of the inputs of a Shape.
//
// F is the evaluation frequency, F0 the unshifted line center, Z the
// Zeeman shift, LogGD the logarithm of the Doppler width ratio.  The rest
// are the broadening parameters of the same names.
type Perturbation struct {
	F, F0, Z                     float64
	G0, D0, G2, D2, FVC, ETA, DV float64
	LogGD                        float64
}

// FromParams maps a change of broadening parameters to a Perturbation.
// Line mixing parameters Y and G do not enter the shape.
func FromParams(d Params) Perturbation {
	return Perturbation{
		G0: d[G0], D0: d[D0], G2: d[G2], D2: d[D2],
		FVC: d[FVC], ETA: d[ETA], DV: d[DV],
	}
}

// Shape is a line profile.
type Shape interface {
	// At evaluates the profile at frequency f and retains the state
	// needed by Deriv.
	At(f float64) complex128
	// Deriv returns the directional derivative of the profile along p at
	// the frequency of the last call to At.
	Deriv(p Perturbation) complex128
}

// New constructs the shape of kind k for a line at f0 with broadening x,
// Doppler width ratio gdDivF0 and Zeeman shift dz.
func New(k Kind, f0 float64, x *Params, gdDivF0, dz float64) Shape {
	switch k {
	case Doppler:
		return NewDoppler(f0, gdDivF0, dz)
	case Lorentz:
		return NewLorentz(f0, x, dz)
	case Voigt:
		return NewVoigt(f0, x, gdDivF0, dz)
	case SpeedDependentVoigt, SpeedDependentHardCollisionVoigt, HartmannTran:
		return NewHTP(k, f0, x, gdDivF0, dz)
	}
	panic(fmt.Sprintf("lineshape: invalid kind %d", int(k)))
}

// DopplerRatio returns the Doppler half width at half maximum divided by
// line center, sqrt(2 ln2 k T / (m c²)), for a molecule of mass m [kg].
func DopplerRatio(t, m float64) float64 {
	return math.Sqrt(2 * phys.K * phys.Ln2 * t / (m * phys.C * phys.C))
}

const (
	sqrtLn2 = 0.832554611157697756353165363
	sqrtPi  = phys.SqrtPi
)

// DopplerShape is a Gaussian profile.  Its value is real.
type DopplerShape struct {
	mF0, invGD float64
	f, x, v    float64
}

func NewDoppler(f0, gdDivF0, dz float64) *DopplerShape {
	mF0 := f0 + dz
	return &DopplerShape{mF0: mF0, invGD: sqrtLn2 / (gdDivF0 * mF0)}
}

func (s *DopplerShape) At(f float64) complex128 {
	s.f = f
	s.x = (f - s.mF0) * s.invGD
	s.v = s.invGD / sqrtPi * math.Exp(-s.x*s.x)
	return complex(s.v, 0)
}

func (s *DopplerShape) Deriv(p Perturbation) complex128 {
	dmF0 := p.F0 + p.Z
	if p.F == 0 && dmF0 == 0 && p.LogGD == 0 {
		return 0
	}
	dinvGD := -s.invGD * (dmF0/s.mF0 + p.LogGD)
	dx := (p.F-dmF0)*s.invGD + (s.f-s.mF0)*dinvGD
	return complex(s.v*(dinvGD/s.invGD-2*s.x*dx), 0)
}

// LorentzShape is a pressure broadened profile.
type LorentzShape struct {
	mF0, g0 float64
	v       complex128
}

func NewLorentz(f0 float64, x *Params, dz float64) *LorentzShape {
	return &LorentzShape{mF0: f0 + dz + x[D0] + x[DV], g0: x[G0]}
}

func (s *LorentzShape) At(f float64) complex128 {
	s.v = 1 / complex(math.Pi*s.g0, math.Pi*(s.mF0-f))
	return s.v
}

func (s *LorentzShape) Deriv(p Perturbation) complex128 {
	dmF0 := p.F0 + p.Z + p.D0 + p.DV
	if p.F == 0 && dmF0 == 0 && p.G0 == 0 {
		return 0
	}
	return -math.Pi * s.v * s.v * complex(p.G0, dmF0-p.F)
}

// VoigtShape is the convolution of Doppler and Lorentz profiles.
type VoigtShape struct {
	mF0, g0, invGD float64
	f              float64
	z, w, v        complex128
}

func NewVoigt(f0 float64, x *Params, gdDivF0, dz float64) *VoigtShape {
	mF0 := f0 + dz + x[D0] + x[DV]
	return &VoigtShape{mF0: mF0, g0: x[G0], invGD: sqrtLn2 / (gdDivF0 * mF0)}
}

func (s *VoigtShape) At(f float64) complex128 {
	s.f = f
	s.z = complex(s.invGD*(f-s.mF0), s.invGD*s.g0)
	s.w = Faddeeva(s.z)
	s.v = complex(s.invGD/sqrtPi, 0) * s.w
	return s.v
}

func (s *VoigtShape) Deriv(p Perturbation) complex128 {
	dmF0 := p.F0 + p.Z + p.D0 + p.DV
	if p.F == 0 && dmF0 == 0 && p.G0 == 0 && p.LogGD == 0 {
		return 0
	}
	dinvGD := -s.invGD * (dmF0/s.mF0 + p.LogGD)
	dz := complex(dinvGD, 0)*complex(s.f-s.mF0, s.g0) +
		complex(s.invGD, 0)*complex(p.F-dmF0, p.G0)
	return complex(dinvGD/sqrtPi, 0)*s.w +
		complex(s.invGD/sqrtPi, 0)*faddeevaD(s.z, s.w)*dz
}
