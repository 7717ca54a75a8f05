// Public domain.

package phys

import "math"

// Planck returns the blackbody spectral radiance at frequency f [Hz] and
// temperature t [K], in W/(m² sr Hz).
func Planck(f, t float64) float64 {
	return 2 * H * f * f * f / (C * C * math.Expm1(H*f/(K*t)))
}

// DPlanckDT returns the temperature derivative of Planck.
func DPlanckDT(f, t float64) float64 {
	x := H * f / (K * t)
	em := math.Expm1(x)
	return 2 * H * f * f * f / (C * C) * (em + 1) / (em * em) * x / t
}

// InvPlanck returns the brightness temperature of radiance i at frequency
// f.  Non-positive radiance maps to 0 K.
func InvPlanck(f, i float64) float64 {
	if i <= 0 {
		return 0
	}
	a := 2 * H * f * f * f / (C * C)
	return H * f / (K * math.Log1p(a/i))
}

// DInvPlanck returns the derivative of InvPlanck with respect to radiance.
func DInvPlanck(f, i float64) float64 {
	if i <= 0 {
		return 0
	}
	a := 2 * H * f * f * f / (C * C)
	l := math.Log1p(a / i)
	return H * f / K * a / (i * (i + a) * l * l)
}
