// Public domain.

package lineshape

import (
	"fmt"
	"math"

	"github.com/soniakeys/radxfer/internal/species"
)

// Param names one of the nine pressure broadening parameters.
type Param int

const (
	G0  Param = iota // speed-independent width
	D0               // speed-independent shift
	G2               // speed-dependent width
	D2               // speed-dependent shift
	FVC              // velocity-changing collision frequency
	ETA              // correlation parameter
	Y                // first order line mixing
	G                // second order line mixing
	DV               // second order line mixing shift
	NParam
)

var paramNames = [NParam]string{"G0", "D0", "G2", "D2", "FVC", "ETA", "Y", "G", "DV"}

func (p Param) String() string {
	if p < 0 || p >= NParam {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return paramNames[p]
}

// Coef names a temperature model coefficient.
type Coef int

const (
	X0 Coef = iota
	X1
	X2
	X3
	NCoef
)

func (c Coef) String() string {
	if c < 0 || c >= NCoef {
		return fmt.Sprintf("Coef(%d)", int(c))
	}
	return fmt.Sprintf("X%d", int(c))
}

// Params holds evaluated broadening parameters, or their derivatives.
// Widths and shifts are in Hz.
type Params [NParam]float64

// Mirrored returns the parameters of the line reflected to negative
// frequency: shifts change sign, widths and mixing terms do not.
func (x Params) Mirrored() Params {
	x[D0] = -x[D0]
	x[D2] = -x[D2]
	x[DV] = -x[DV]
	return x
}

// TempModel selects the temperature dependence of a SingleParameter.
type TempModel int

const (
	TNone TempModel = iota
	T0              // X0
	T1              // X0 (T0/T)^X1
	T2              // X0 (T0/T)^X1 (1 + X2 ln(T/T0))
	T3              // X0 + X1 (T - T0)
	T4              // (X0 + X1 (T0/T - 1)) (T0/T)^X2
	T5              // X0 (T0/T)^(0.25 + 1.5 X1)
	LMAER           // piecewise linear through X0..X3 at 200, 250, 296, 340 K
	DPL             // X0 (T0/T)^X1 + X2 (T0/T)^X3
	nTempModel
)

var tempModelNames = [nTempModel]string{
	"None", "T0", "T1", "T2", "T3", "T4", "T5", "LM_AER", "DPL"}

func (m TempModel) String() string {
	if m < 0 || m >= nTempModel {
		return fmt.Sprintf("TempModel(%d)", int(m))
	}
	return tempModelNames[m]
}

// Valid reports whether m is a defined model.
func (m TempModel) Valid() bool {
	return m >= 0 && m < nTempModel
}

// SingleParameter is one broadening parameter for one broadening species:
// a temperature model times P^Pres.
type SingleParameter struct {
	Temp TempModel
	Pres int
	X    [NCoef]float64
}

// LM_AER temperature nodes [K].
var lmaerT = [4]float64{200, 250, 296, 340}

// lmaer returns the interval index of the LM_AER piecewise linear model.
func lmaer(t float64) int {
	switch {
	case t < lmaerT[1]:
		return 0
	case t > lmaerT[2]:
		return 2
	}
	return 1
}

// temp evaluates the temperature model without the pressure factor.
func (s *SingleParameter) temp(t, t0 float64) float64 {
	x := &s.X
	r := t0 / t
	switch s.Temp {
	case T0:
		return x[0]
	case T1:
		return x[0] * math.Pow(r, x[1])
	case T2:
		return x[0] * math.Pow(r, x[1]) * (1 + x[2]*math.Log(t/t0))
	case T3:
		return x[0] + x[1]*(t-t0)
	case T4:
		return (x[0] + x[1]*(r-1)) * math.Pow(r, x[2])
	case T5:
		return x[0] * math.Pow(r, .25+1.5*x[1])
	case LMAER:
		i := lmaer(t)
		return x[i] + (t-lmaerT[i])*(x[i+1]-x[i])/(lmaerT[i+1]-lmaerT[i])
	case DPL:
		return x[0]*math.Pow(r, x[1]) + x[2]*math.Pow(r, x[3])
	}
	return 0
}

func (s *SingleParameter) pres(p float64) float64 {
	if s.Pres == 0 {
		return 1
	}
	return math.Pow(p, float64(s.Pres))
}

// At evaluates the parameter at temperature t, reference temperature t0
// and pressure p.
func (s *SingleParameter) At(t, t0, p float64) float64 {
	if s.Temp == TNone {
		return 0
	}
	return s.pres(p) * s.temp(t, t0)
}

// DT returns the temperature derivative.
func (s *SingleParameter) DT(t, t0, p float64) float64 {
	x := &s.X
	r := t0 / t
	var d float64
	switch s.Temp {
	case T1:
		d = -x[0] * x[1] * math.Pow(r, x[1]) / t
	case T2:
		d = -x[0]*x[1]*math.Pow(r, x[1])*(x[2]*math.Log(t/t0)+1)/t +
			x[0]*x[2]*math.Pow(r, x[1])/t
	case T3:
		d = x[1]
	case T4:
		d = -x[2]*math.Pow(r, x[2])*(x[0]+x[1]*(r-1))/t -
			t0*x[1]*math.Pow(r, x[2])/(t*t)
	case T5:
		e := .25 + 1.5*x[1]
		d = -x[0] * math.Pow(r, e) * e / t
	case LMAER:
		i := lmaer(t)
		d = (x[i+1] - x[i]) / (lmaerT[i+1] - lmaerT[i])
	case DPL:
		d = -x[0]*x[1]*math.Pow(r, x[1])/t - x[2]*x[3]*math.Pow(r, x[3])/t
	default:
		return 0
	}
	return s.pres(p) * d
}

// DT0 returns the derivative with respect to the reference temperature.
func (s *SingleParameter) DT0(t, t0, p float64) float64 {
	x := &s.X
	r := t0 / t
	var d float64
	switch s.Temp {
	case T1:
		d = x[0] * x[1] * math.Pow(r, x[1]) / t0
	case T2:
		d = x[0]*x[1]*math.Pow(r, x[1])*(x[2]*math.Log(t/t0)+1)/t0 -
			x[0]*x[2]*math.Pow(r, x[1])/t0
	case T3:
		d = -x[1]
	case T4:
		d = x[2]*math.Pow(r, x[2])*(x[0]+x[1]*(r-1))/t0 +
			x[1]*math.Pow(r, x[2])/t
	case T5:
		e := .25 + 1.5*x[1]
		d = x[0] * math.Pow(r, e) * e / t0
	case DPL:
		d = x[0]*x[1]*math.Pow(r, x[1])/t0 + x[2]*x[3]*math.Pow(r, x[3])/t0
	default:
		return 0
	}
	return s.pres(p) * d
}

// DP returns the pressure derivative.
func (s *SingleParameter) DP(t, t0, p float64) float64 {
	if s.Pres == 0 || s.Temp == TNone {
		return 0
	}
	n := float64(s.Pres)
	return n * math.Pow(p, n-1) * s.temp(t, t0)
}

// DX returns the derivative with respect to coefficient c.
func (s *SingleParameter) DX(c Coef, t, t0, p float64) float64 {
	x := &s.X
	r := t0 / t
	var d float64
	switch s.Temp {
	case T0:
		if c == X0 {
			d = 1
		}
	case T1:
		switch c {
		case X0:
			d = math.Pow(r, x[1])
		case X1:
			d = x[0] * math.Pow(r, x[1]) * math.Log(r)
		}
	case T2:
		switch c {
		case X0:
			d = math.Pow(r, x[1]) * (1 + x[2]*math.Log(t/t0))
		case X1:
			d = x[0] * math.Pow(r, x[1]) * (1 + x[2]*math.Log(t/t0)) * math.Log(r)
		case X2:
			d = x[0] * math.Pow(r, x[1]) * math.Log(t/t0)
		}
	case T3:
		switch c {
		case X0:
			d = 1
		case X1:
			d = t - t0
		}
	case T4:
		switch c {
		case X0:
			d = math.Pow(r, x[2])
		case X1:
			d = math.Pow(r, x[2]) * (r - 1)
		case X2:
			d = math.Pow(r, x[2]) * (x[0] + x[1]*(r-1)) * math.Log(r)
		}
	case T5:
		e := .25 + 1.5*x[1]
		switch c {
		case X0:
			d = math.Pow(r, e)
		case X1:
			d = 1.5 * x[0] * math.Pow(r, e) * math.Log(r)
		}
	case LMAER:
		i := lmaer(t)
		u := (t - lmaerT[i]) / (lmaerT[i+1] - lmaerT[i])
		switch int(c) {
		case i:
			d = 1 - u
		case i + 1:
			d = u
		}
	case DPL:
		switch c {
		case X0:
			d = math.Pow(r, x[1])
		case X1:
			d = x[0] * math.Pow(r, x[1]) * math.Log(r)
		case X2:
			d = math.Pow(r, x[3])
		case X3:
			d = x[2] * math.Pow(r, x[3]) * math.Log(r)
		}
	default:
		return 0
	}
	return s.pres(p) * d
}

// Mixture gives the volume mixing ratios a Model weights its rows by.
type Mixture interface {
	VMROf(species.Isotope) float64
	Has(species.Isotope) bool
}

// Broadener is the row of a Model for one broadening species.  The Bath
// species stands for all gas not listed in other rows.
type Broadener struct {
	Species species.Isotope
	P       [NParam]SingleParameter
}

// Model holds the broadening parameters of a line as VMR-weighted rows.
type Model struct {
	Rows []Broadener
}

// HitranModel builds the two-row model of a HITRAN style line: self and
// air broadening with a common temperature exponent, and an air pressure
// shift.  Widths and shift are per Pa.
func HitranModel(self species.Isotope, gAir, gSelf, dAir, nAir float64) Model {
	row := func(s species.Isotope, g float64) Broadener {
		b := Broadener{Species: s}
		b.P[G0] = SingleParameter{Temp: T1, Pres: 1, X: [NCoef]float64{g, nAir}}
		b.P[D0] = SingleParameter{Temp: T0, Pres: 1, X: [NCoef]float64{dAir}}
		return b
	}
	return Model{Rows: []Broadener{row(self, gSelf), row(species.Bath, gAir)}}
}

// Validate checks that every row names a known species and temperature
// model, and that no species repeats.
func (m *Model) Validate() error {
	for i, r := range m.Rows {
		if !r.Species.Valid() {
			return fmt.Errorf("broadener %d: unknown species %d", i, int(r.Species))
		}
		if !species.Table[r.Species].Broadens {
			return fmt.Errorf("broadener %s: species has no broadening data", r.Species)
		}
		for _, q := range m.Rows[:i] {
			if q.Species == r.Species {
				return fmt.Errorf("broadener %s listed twice", r.Species)
			}
		}
		for p, s := range r.P {
			if !s.Temp.Valid() {
				return fmt.Errorf("broadener %s %s: invalid temperature model %d",
					r.Species, Param(p), int(s.Temp))
			}
		}
	}
	return nil
}

// weights returns per-row weights and their sum.  A row whose species is
// absent from the mixture gets weight 0; the Bath row gets the remainder
// 1 - (sum of the other listed species present), floored at 0.
func (m *Model) weights(vmr Mixture) (w []float64, sum float64) {
	w = make([]float64, len(m.Rows))
	bath := -1
	var listed float64
	for i, r := range m.Rows {
		if r.Species == species.Bath {
			bath = i
			continue
		}
		if vmr.Has(r.Species) {
			w[i] = vmr.VMROf(r.Species)
			listed += w[i]
		}
	}
	if bath >= 0 {
		w[bath] = math.Max(0, 1-listed)
	}
	for _, x := range w {
		sum += x
	}
	return
}

func (m *Model) reduce(vmr Mixture, f func(s *SingleParameter) float64) (out Params) {
	w, sum := m.weights(vmr)
	if sum == 0 {
		return
	}
	for i := range m.Rows {
		if w[i] == 0 {
			continue
		}
		for p := range out {
			out[p] += w[i] * f(&m.Rows[i].P[p])
		}
	}
	for p := range out {
		out[p] /= sum
	}
	return
}

// At evaluates the broadening parameters.
func (m *Model) At(t, t0, p float64, vmr Mixture) Params {
	return m.reduce(vmr, func(s *SingleParameter) float64 { return s.At(t, t0, p) })
}

// DT returns the temperature derivative of At.
func (m *Model) DT(t, t0, p float64, vmr Mixture) Params {
	return m.reduce(vmr, func(s *SingleParameter) float64 { return s.DT(t, t0, p) })
}

// DT0 returns the derivative of At with respect to the reference
// temperature.
func (m *Model) DT0(t, t0, p float64, vmr Mixture) Params {
	return m.reduce(vmr, func(s *SingleParameter) float64 { return s.DT0(t, t0, p) })
}

// DP returns the pressure derivative of At.
func (m *Model) DP(t, t0, p float64, vmr Mixture) Params {
	return m.reduce(vmr, func(s *SingleParameter) float64 { return s.DP(t, t0, p) })
}

// DX returns the derivative of At with respect to coefficient c of the
// row for broadener s.  It is zero when s has no row or no weight.
func (m *Model) DX(s species.Isotope, c Coef, t, t0, p float64, vmr Mixture) (out Params) {
	w, sum := m.weights(vmr)
	if sum == 0 {
		return
	}
	for i := range m.Rows {
		if m.Rows[i].Species != s || w[i] == 0 {
			continue
		}
		for q := range out {
			out[q] = w[i] * m.Rows[i].P[q].DX(c, t, t0, p) / sum
		}
	}
	return
}

// DVMR returns the derivative of At with respect to the VMR of species s,
// through the row weights.
func (m *Model) DVMR(s species.Isotope, t, t0, p float64, vmr Mixture) (out Params) {
	if s == species.Bath || !vmr.Has(s) {
		return
	}
	_, sum := m.weights(vmr)
	if sum == 0 {
		return
	}
	// dw[i] is the derivative of row weight i with respect to VMR of s
	dw := make([]float64, len(m.Rows))
	var dsum, listed float64
	hasRow := false
	for i, r := range m.Rows {
		if r.Species != species.Bath && vmr.Has(r.Species) {
			listed += vmr.VMROf(r.Species)
		}
		if r.Species == s {
			dw[i] = 1
			hasRow = true
		}
	}
	if !hasRow {
		return
	}
	for i, r := range m.Rows {
		if r.Species == species.Bath && 1-listed > 0 {
			dw[i] = -1
		}
	}
	for _, d := range dw {
		dsum += d
	}
	val := m.At(t, t0, p, vmr)
	for i := range m.Rows {
		if dw[i] == 0 {
			continue
		}
		for q := range out {
			out[q] += dw[i] * m.Rows[i].P[q].At(t, t0, p)
		}
	}
	for q := range out {
		out[q] = (out[q] - val[q]*dsum) / sum
	}
	return
}
