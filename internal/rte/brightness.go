// Public domain.

package rte

import (
	"gonum.org/v1/gonum/mat"

	"github.com/soniakeys/radxfer/internal/phys"
)

// Brightness converts Stokes radiance x at f to brightness temperature in
// place.  A polarized component becomes the difference of the brightness
// temperatures of the half intensities (I ± Q)/2.
func Brightness(f float64, x []float64) {
	i := x[0]
	for k := 1; k < len(x); k++ {
		x[k] = phys.InvPlanck(f, .5*(i+x[k])) - phys.InvPlanck(f, .5*(i-x[k]))
	}
	x[0] = phys.InvPlanck(f, i)
}

// BrightnessJacobian sets dst to the derivative of brightness with respect
// to radiance at x.
func BrightnessJacobian(dst *mat.Dense, f float64, x []float64) {
	dst.Zero()
	dst.Set(0, 0, phys.DInvPlanck(f, x[0]))
	for k := 1; k < len(x); k++ {
		dp := phys.DInvPlanck(f, .5*(x[0]+x[k]))
		dm := phys.DInvPlanck(f, .5*(x[0]-x[k]))
		dst.Set(k, 0, .5*(dp-dm))
		dst.Set(k, k, .5*(dp+dm))
	}
}

// ToBrightness converts r from radiance to brightness temperature [K] at
// freqs.  Derivatives of the sensor value and the background sensitivity go
// through the derivative of the inverse Planck function at the sensor
// radiance.
func (r *Result) ToBrightness(freqs []float64) {
	n := r.Stokes
	jac := mat.NewDense(n, n, nil)
	tmp := mat.NewDense(n, n, nil)
	v := mat.NewVecDense(n, nil)
	for iv, f := range freqs {
		BrightnessJacobian(jac, f, r.X[0][iv])
		for _, d := range r.DX {
			for ip := range d {
				dx := mat.NewVecDense(n, d[ip][iv])
				v.MulVec(jac, dx)
				dx.CopyVec(v)
			}
		}
		tmp.Mul(jac, r.Background[iv])
		r.Background[iv].Copy(tmp)
	}
	for ip := range r.X {
		for iv, f := range freqs {
			Brightness(f, r.X[ip][iv])
		}
	}
}
