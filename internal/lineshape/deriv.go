// Public domain.

package lineshape

// Derivatives along single inputs.  Each assumes At was called at the
// frequency of interest.  Scaled variants take the derivative of the
// input with respect to the quantity of interest.

func DFdf(s Shape) complex128 { return s.Deriv(Perturbation{F: 1}) }

func DFdF0(s Shape) complex128 { return s.Deriv(Perturbation{F0: 1}) }

func DFdG0(s Shape, d float64) complex128 { return s.Deriv(Perturbation{G0: d}) }

func DFdD0(s Shape, d float64) complex128 { return s.Deriv(Perturbation{D0: d}) }

func DFdG2(s Shape, d float64) complex128 { return s.Deriv(Perturbation{G2: d}) }

func DFdD2(s Shape, d float64) complex128 { return s.Deriv(Perturbation{D2: d}) }

func DFdFVC(s Shape, d float64) complex128 { return s.Deriv(Perturbation{FVC: d}) }

func DFdETA(s Shape, d float64) complex128 { return s.Deriv(Perturbation{ETA: d}) }

func DFdDV(s Shape, d float64) complex128 { return s.Deriv(Perturbation{DV: d}) }

// DFdH is the derivative with respect to magnetic field strength for a
// Zeeman shift of dZ per unit field.
func DFdH(s Shape, dZ float64) complex128 { return s.Deriv(Perturbation{Z: dZ}) }

// DFdVMR is the derivative through broadening parameter derivatives d.
func DFdVMR(s Shape, d Params) complex128 { return s.Deriv(FromParams(d)) }

// DFdT is the temperature derivative given the temperature derivatives of
// the broadening parameters d.  The Doppler width ratio goes as sqrt(T).
func DFdT(s Shape, d Params, t float64) complex128 {
	p := FromParams(d)
	p.LogGD = 1 / (2 * t)
	return s.Deriv(p)
}

// DFdY and DFdG are zero: line mixing scales the profile outside the
// shape.
func DFdY(Shape, float64) complex128 { return 0 }

func DFdG(Shape, float64) complex128 { return 0 }
