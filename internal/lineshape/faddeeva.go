// Public domain.

package lineshape

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Weideman's rational approximation of the Faddeeva function,
//
//	J.A.C. Weideman, Computation of the complex error function,
//	SIAM J. Numer. Anal. 31 (1994) 1497-1518.
//
// The coefficients are the Fourier coefficients of a mapped Gaussian,
// computed once.
const weidemanN = 40

var (
	weidemanL = math.Sqrt(weidemanN / math.Sqrt2)
	weidemanA = weidemanCoefficients()
)

func weidemanCoefficients() []float64 {
	const m = 2 * weidemanN
	const m2 = 2 * m
	l := weidemanL
	// f[0] = 0, f[k+m] = exp(-t²)(L²+t²) for k = -m+1 .. m-1
	f := make([]float64, m2)
	for k := -m + 1; k < m; k++ {
		t := l * math.Tan(float64(k)*math.Pi/(2*m))
		f[k+m] = math.Exp(-t*t) * (l*l + t*t)
	}
	// fftshift
	s := make([]float64, m2)
	for j := range s {
		s[j] = f[(j+m)%m2]
	}
	c := fourier.NewFFT(m2).Coefficients(nil, s)
	a := make([]float64, weidemanN)
	for j := range a {
		a[j] = real(c[j+1]) / m2
	}
	return a
}

// Faddeeva returns w(z) = exp(-z²) erfc(-iz).
//
// The approximation holds in the upper half plane; the lower half plane
// follows from w(z) = 2exp(-z²) - w(-z).
func Faddeeva(z complex128) complex128 {
	if imag(z) < 0 {
		return 2*cmplx.Exp(-z*z) - Faddeeva(-z)
	}
	l := complex(weidemanL, 0)
	iz := complex(-imag(z), real(z))
	lz := l - iz
	zz := (l + iz) / lz
	var p complex128
	for j := weidemanN - 1; j >= 0; j-- {
		p = p*zz + complex(weidemanA[j], 0)
	}
	return 2*p/(lz*lz) + complex(1/math.Sqrt(math.Pi), 0)/lz
}

// faddeevaD returns the derivative w'(z) = -2z w(z) + 2i/√π given w(z).
func faddeevaD(z, w complex128) complex128 {
	return -2*z*w + complex(0, 2/math.Sqrt(math.Pi))
}
