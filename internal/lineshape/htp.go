// Public domain.

package lineshape

import (
	"math"
	"math/cmplx"
)

// Evaluation regimes of the Hartmann-Tran kernel.  Asymptotic forms
// replace the general expression where it loses precision.
type regime int

const (
	noc2tLowZ regime = iota
	noc2tHighZ
	lowXHighY
	lowYLowX
	lowYHighX
	full
)

// HTPShape is the Hartmann-Tran profile.  The speed dependent Voigt
// (FVC and ETA zero) and speed dependent hard collision Voigt (ETA zero)
// profiles are evaluated as its special cases, and their Deriv ignores the
// parameters they do not use.
//
//	N.H. Ngo, D. Lisak, H. Tran, J.-M. Hartmann, An isolated line-shape
//	model to go beyond the Voigt profile in spectroscopic databases and
//	radiative transfer codes, JQSRT 129 (2013) 89-100.
type HTPShape struct {
	kind                     Kind
	g0, d0, g2, d2, fvc, eta float64
	mF0, invGD, dxr          float64
	c0, c2, c2t, sqrty       complex128
	noc2t                    bool

	// frequency state
	f              float64
	reg            regime
	deltax, x, s   complex128
	z1, z2, w1, w2 complex128
	a, b, k        complex128
}

// NewHTP constructs a speed dependent shape.  k must be one of
// SpeedDependentVoigt, SpeedDependentHardCollisionVoigt or HartmannTran.
func NewHTP(k Kind, f0 float64, x *Params, gdDivF0, dz float64) *HTPShape {
	s := &HTPShape{kind: k, g0: x[G0], d0: x[D0], g2: x[G2], d2: x[D2]}
	if k != SpeedDependentVoigt {
		s.fvc = x[FVC]
	}
	if k == HartmannTran {
		s.eta = x[ETA]
	}
	e := 1 - s.eta
	s.mF0 = f0 + dz + e*(s.d0-1.5*s.d2) + x[DV]
	s.invGD = sqrtLn2 / (gdDivF0 * s.mF0)
	s.dxr = s.fvc + e*(s.g0-1.5*s.g2)
	s.c0 = complex(s.g0, s.d0)
	s.c2 = complex(s.g2, s.d2)
	s.c2t = complex(e, 0) * s.c2
	s.noc2t = s.c2t == 0
	if !s.noc2t {
		s.sqrty = 1 / (2 * s.c2t * complex(s.invGD, 0))
	}
	return s
}

func abs2(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// wi returns w(iz).
func wi(z complex128) complex128 {
	return Faddeeva(complex(-imag(z), real(z)))
}

// dwi returns the derivative of w(iz) with respect to z given w(iz).
func dwi(z, w complex128) complex128 {
	return 2*z*w - 2/sqrtPi
}

// highZ is the asymptotic B term for large z.
func highZ(invGD, z, w complex128) complex128 {
	return invGD * (sqrtPi*w + 1/(2*z) - 3/(4*z*z*z))
}

// lowZ reports whether z is small enough for the exact B term.
func lowZ(z complex128) bool {
	return abs2(z) < 16e6
}

// bTerm is the B term of a single Faddeeva argument z with w = w(iz).
func bTerm(invGD, z, w complex128) complex128 {
	if lowZ(z) {
		return sqrtPi * invGD * ((1-z*z)*w + z/sqrtPi)
	}
	return highZ(invGD, z, w)
}

// dbTerm is the derivative of bTerm given the derivatives of invGD, z and w.
func dbTerm(invGD, dinvGD, z, dz, w, dw complex128) complex128 {
	if lowZ(z) {
		return sqrtPi*dinvGD*((1-z*z)*w+z/sqrtPi) +
			sqrtPi*invGD*(-2*z*dz*w+(1-z*z)*dw+dz/sqrtPi)
	}
	return dinvGD*(sqrtPi*w+1/(2*z)-3/(4*z*z*z)) +
		invGD*(sqrtPi*dw-dz/(2*z*z)+9*dz/(4*z*z*z*z))
}

func (s *HTPShape) At(f float64) complex128 {
	s.f = f
	s.deltax = complex(s.dxr, s.mF0-f)
	ci := complex(s.invGD, 0)
	htp := s.kind == HartmannTran
	if s.noc2t {
		s.z1 = s.deltax * ci
		s.w1 = wi(s.z1)
		s.a = sqrtPi * ci * s.w1
		s.reg = noc2tHighZ
		if lowZ(s.z1) {
			s.reg = noc2tLowZ
		}
		if htp {
			s.b = bTerm(ci, s.z1, s.w1)
		}
	} else {
		s.x = s.deltax / s.c2t
		y := s.sqrty * s.sqrty
		s.s = cmplx.Sqrt(s.x + y)
		switch {
		case abs2(s.x) <= 9e-16*abs2(y):
			s.reg = lowXHighY
			s.z1 = s.deltax * ci
			s.z2 = s.s + s.sqrty
			s.w1 = wi(s.z1)
			s.w2 = wi(s.z2)
			s.a = sqrtPi * ci * (s.w1 - s.w2)
			if htp {
				s.b = bTerm(ci, s.z1, s.w1)
			}
		case abs2(y) <= 1e-30*abs2(s.x) && abs2(cmplx.Sqrt(s.x)) <= 16e6:
			s.reg = lowYLowX
			s.z1 = s.s
			s.z2 = cmplx.Sqrt(s.x)
			s.w1 = wi(s.z1)
			s.w2 = wi(s.z2)
			r := 1/sqrtPi - s.z2*s.w2
			s.a = 2 * sqrtPi * r / s.c2t
			if htp {
				s.b = (-1 + 2*sqrtPi*(1-s.x-2*y)*r + 2*sqrtPi*s.z1*s.w1) / s.c2t
			}
		case abs2(y) <= 1e-30*abs2(s.x):
			s.reg = lowYHighX
			s.z1 = s.s
			s.w1 = wi(s.z1)
			sx := 1/s.x - 1.5/(s.x*s.x)
			s.a = sx / s.c2t
			if htp {
				s.b = (-1 + (1-s.x-2*y)*sx + 2*sqrtPi*s.z1*s.w1) / s.c2t
			}
		default:
			s.reg = full
			s.z1 = s.s - s.sqrty
			s.z2 = s.s + s.sqrty
			s.w1 = wi(s.z1)
			s.w2 = wi(s.z2)
			s.a = sqrtPi * ci * (s.w1 - s.w2)
			if htp {
				q := (1-s.z1*s.z1)*s.w1 - (1-s.z2*s.z2)*s.w2
				s.b = (-1 + sqrtPi/(2*s.sqrty)*q) / s.c2t
			}
		}
	}
	eta := complex(s.eta, 0)
	s.k = 1 - (complex(s.fvc, 0)-eta*(s.c0-1.5*s.c2))*s.a + eta*s.c2*s.b
	return s.a / (math.Pi * s.k)
}

func (s *HTPShape) Deriv(p Perturbation) complex128 {
	switch s.kind {
	case SpeedDependentVoigt:
		p.FVC, p.ETA = 0, 0
	case SpeedDependentHardCollisionVoigt:
		p.ETA = 0
	}
	if p == (Perturbation{}) {
		return 0
	}
	htp := s.kind == HartmannTran
	e := 1 - s.eta
	deta := p.ETA
	dmF0 := p.F0 + p.Z + e*(p.D0-1.5*p.D2) - deta*(s.d0-1.5*s.d2) + p.DV
	dinvGD := -s.invGD * (dmF0/s.mF0 + p.LogGD)
	ci, dci := complex(s.invGD, 0), complex(dinvGD, 0)
	ddeltax := complex(p.FVC+e*(p.G0-1.5*p.G2)-deta*(s.g0-1.5*s.g2), dmF0-p.F)
	dc0 := complex(p.G0, p.D0)
	dc2 := complex(p.G2, p.D2)
	dc2t := complex(e, 0)*dc2 - complex(deta, 0)*s.c2

	var da, db complex128
	z1, z2, w1, w2 := s.z1, s.z2, s.w1, s.w2
	if s.noc2t {
		dz1 := ddeltax*ci + s.deltax*dci
		dw1 := dwi(z1, w1) * dz1
		da = sqrtPi * (dci*w1 + ci*dw1)
		if htp {
			db = dbTerm(ci, dci, z1, dz1, w1, dw1)
		}
	} else {
		y := s.sqrty * s.sqrty
		dx := (ddeltax - s.x*dc2t) / s.c2t
		dsqrty := -s.sqrty * (dc2t/s.c2t + dci/ci)
		dy := 2 * s.sqrty * dsqrty
		ds := (dx + dy) / (2 * s.s)
		switch s.reg {
		case full, lowXHighY:
			var dz1 complex128
			if s.reg == full {
				dz1 = ds - dsqrty
			} else {
				dz1 = ddeltax*ci + s.deltax*dci
			}
			dz2 := ds + dsqrty
			dw1 := dwi(z1, w1) * dz1
			dw2 := dwi(z2, w2) * dz2
			da = sqrtPi * (dci*(w1-w2) + ci*(dw1-dw2))
			if htp && s.reg == full {
				q := (1-z1*z1)*w1 - (1-z2*z2)*w2
				dq := -2*z1*dz1*w1 + (1-z1*z1)*dw1 + 2*z2*dz2*w2 - (1-z2*z2)*dw2
				dinner := sqrtPi / 2 * (dq/s.sqrty - q*dsqrty/y)
				db = (dinner - s.b*dc2t) / s.c2t
			} else if htp {
				db = dbTerm(ci, dci, z1, dz1, w1, dw1)
			}
		case lowYLowX:
			r := 1/sqrtPi - z2*w2
			dz2 := dx / (2 * z2)
			dr := -(dz2*w2 + z2*dwi(z2, w2)*dz2)
			da = (2*sqrtPi*dr - s.a*dc2t) / s.c2t
			if htp {
				dz1 := ds
				dinner := 2*sqrtPi*((-dx-2*dy)*r+(1-s.x-2*y)*dr) +
					2*sqrtPi*(dz1*w1+z1*dwi(z1, w1)*dz1)
				db = (dinner - s.b*dc2t) / s.c2t
			}
		case lowYHighX:
			x := s.x
			sx := 1/x - 1.5/(x*x)
			dsx := (-1/(x*x) + 3/(x*x*x)) * dx
			da = (dsx - s.a*dc2t) / s.c2t
			if htp {
				dz1 := ds
				dinner := (-dx-2*dy)*sx + (1-x-2*y)*dsx +
					2*sqrtPi*(dz1*w1+z1*dwi(z1, w1)*dz1)
				db = (dinner - s.b*dc2t) / s.c2t
			}
		}
	}
	eta := complex(s.eta, 0)
	ceta := complex(deta, 0)
	dk := -(complex(p.FVC, 0)-ceta*(s.c0-1.5*s.c2)-eta*(dc0-1.5*dc2))*s.a -
		(complex(s.fvc, 0)-eta*(s.c0-1.5*s.c2))*da +
		(ceta*s.c2+eta*dc2)*s.b + eta*s.c2*db
	return (da*s.k - s.a*dk) / (math.Pi * s.k * s.k)
}
