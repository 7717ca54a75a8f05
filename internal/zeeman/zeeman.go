// Public domain.

// Package zeeman splits lines in a magnetic field.
//
// A line with Zeeman data is evaluated as three groups of components,
// σ-, π and σ+, by the change of magnetic quantum number.  Each component
// has a relative strength from a Wigner 3j symbol and a frequency shift
// proportional to field strength.  The group sums enter the propagation
// matrix through polarization vectors that depend on the angles between
// the field and the line of sight.
package zeeman

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/radxfer/internal/phys"
)

// Polarization is a component group.
type Polarization int

const (
	SigmaMinus Polarization = iota
	Pi
	SigmaPlus
	// None is the single unsplit component of a line evaluated without
	// Zeeman effect.
	None
)

// Polarizations lists the split groups in evaluation order.
var Polarizations = [3]Polarization{SigmaMinus, Pi, SigmaPlus}

func (p Polarization) String() string {
	switch p {
	case SigmaMinus:
		return "σ-"
	case Pi:
		return "π"
	case SigmaPlus:
		return "σ+"
	case None:
		return "none"
	}
	return fmt.Sprintf("Polarization(%d)", int(p))
}

// DM returns the change of magnetic quantum number, Ml - Mu.
func (p Polarization) DM() float64 {
	switch p {
	case SigmaMinus:
		return -1
	case SigmaPlus:
		return 1
	}
	return 0
}

// factor scales the squared 3j symbols of a group.  With the polarization
// vectors below, the groups of a line in zero field sum to the unsplit
// line.
func (p Polarization) factor() float64 {
	switch p {
	case Pi:
		return 1.5
	case None:
		return 1
	}
	return .75
}

// Model is the Zeeman data of a line: Landé g factors and total angular
// momenta of the upper and lower levels.  J may be half-integral.
type Model struct {
	Gu, Gl float64
	Ju, Jl float64
}

// Validate checks that the angular momenta are non-negative multiples of
// one half and allow a dipole transition.
func (m *Model) Validate() error {
	for _, j := range []float64{m.Ju, m.Jl} {
		if j < 0 || 2*j != math.Trunc(2*j) {
			return fmt.Errorf("invalid angular momentum %g", j)
		}
	}
	if d := math.Abs(m.Ju - m.Jl); d > 1 || d != math.Trunc(d) || m.Ju+m.Jl < 1 {
		return fmt.Errorf("no dipole transition from J=%g to J=%g", m.Ju, m.Jl)
	}
	return nil
}

// Component is one split component.
type Component struct {
	Mu, Ml   float64
	Strength float64 // relative strength
	Shift    float64 // frequency shift per field strength [Hz/T]
}

// Components lists the components of group p.  Group None is the single
// unsplit component.
func (m *Model) Components(p Polarization) []Component {
	if p == None {
		return []Component{{Strength: 1}}
	}
	dm := p.DM()
	var c []Component
	for mu := -m.Ju; mu <= m.Ju; mu++ {
		ml := mu + dm
		if math.Abs(ml) > m.Jl {
			continue
		}
		w := Wigner3j(m.Jl, 1, m.Ju, ml, -dm, -mu)
		c = append(c, Component{
			Mu:       mu,
			Ml:       ml,
			Strength: p.factor() * w * w,
			Shift:    phys.BohrM / phys.H * (ml*m.Gl - mu*m.Gu),
		})
	}
	return c
}

// Wigner3j returns the 3j symbol (j1 j2 j3; m1 m2 m3) by the Racah
// formula, zero where the selection rules exclude it.
func Wigner3j(j1, j2, j3, m1, m2, m3 float64) float64 {
	if m1+m2+m3 != 0 || j3 < math.Abs(j1-j2) || j3 > j1+j2 ||
		math.Abs(m1) > j1 || math.Abs(m2) > j2 || math.Abs(m3) > j3 {
		return 0
	}
	lf := func(n float64) float64 {
		v, _ := math.Lgamma(math.Round(n) + 1)
		return v
	}
	pre := .5 * (lf(j1+j2-j3) + lf(j1-j2+j3) + lf(-j1+j2+j3) - lf(j1+j2+j3+1) +
		lf(j1+m1) + lf(j1-m1) + lf(j2+m2) + lf(j2-m2) + lf(j3+m3) + lf(j3-m3))
	kmin := math.Max(0, math.Max(j2-j3-m1, j1-j3+m2))
	kmax := math.Min(j1+j2-j3, math.Min(j1-m1, j2+m2))
	var sum float64
	for k := kmin; k <= kmax; k++ {
		t := math.Exp(pre - lf(k) - lf(j1+j2-j3-k) - lf(j1-m1-k) -
			lf(j2+m2-k) - lf(j3-j2+m1+k) - lf(j3-j1-m2+k))
		if int(math.Round(k))%2 != 0 {
			t = -t
		}
		sum += t
	}
	if int(math.Round(math.Abs(j1-j2-m3)))%2 != 0 {
		sum = -sum
	}
	return sum
}

// Angles are the field direction relative to a line of sight.  Theta is
// the angle between field and line of sight, Eta the azimuth of the field
// projected on the plane normal to the line of sight.  The D arrays are
// derivatives with respect to the u, v, w field components.
type Angles struct {
	H          float64 // field strength [T]
	Theta, Eta unit.Angle
	DH         [3]float64
	DTheta     [3]float64
	DEta       [3]float64
}

// NewAngles computes the angles of field mag (u, v, w) [T] seen along
// zenith za and azimuth aa.  A zero field, or one along the line of
// sight, gives zero angles and zero angle derivatives.
func NewAngles(mag [3]float64, za, aa unit.Angle) (a Angles) {
	h := math.Sqrt(mag[0]*mag[0] + mag[1]*mag[1] + mag[2]*mag[2])
	if h == 0 {
		return
	}
	a.H = h
	for i := range mag {
		a.DH[i] = mag[i] / h
	}
	sz, cz := math.Sincos(za.Rad())
	sa, ca := math.Sincos(aa.Rad())
	n := [3]float64{sz * sa, sz * ca, cz}
	e1 := [3]float64{cz * sa, cz * ca, -sz}
	e2 := [3]float64{ca, -sa, 0}
	dot := func(x [3]float64) float64 { return x[0]*mag[0] + x[1]*mag[1] + x[2]*mag[2] }
	c := math.Max(-1, math.Min(1, dot(n)/h))
	x, y := dot(e1), dot(e2)
	r2 := x*x + y*y
	if r2 == 0 {
		if c < 0 {
			a.Theta = math.Pi
		}
		return
	}
	a.Theta = unit.Angle(math.Acos(c))
	a.Eta = unit.Angle(math.Atan2(y, x))
	s := math.Sqrt(r2) / h // sin θ
	for i := range mag {
		dc := n[i]/h - c*mag[i]/(h*h)
		a.DTheta[i] = -dc / s
		a.DEta[i] = (x*e2[i] - y*e1[i]) / r2
	}
	return
}

// Vector is a polarization vector: weights of the real part of a group's
// profile in the absorption elements A, B, C, D and of the imaginary part
// in the dispersion elements U, V, W of the propagation matrix.
type Vector struct {
	Att [4]float64
	Dis [3]float64
}

// Polarization returns the vector of group p and its derivatives with
// respect to Theta and Eta.  Group None is isotropic.
func (a *Angles) Polarization(p Polarization) (v, dTheta, dEta Vector) {
	if p == None {
		v.Att[0] = 1
		return
	}
	st, ct := math.Sincos(a.Theta.Rad())
	s2e, c2e := math.Sincos(2 * a.Eta.Rad())
	st2, dst2 := st*st, 2*st*ct // sin²θ and its θ derivative
	switch p {
	case Pi:
		v = Vector{
			Att: [4]float64{st2, -st2 * c2e, -st2 * s2e, 0},
			Dis: [3]float64{0, st2 * s2e, -st2 * c2e},
		}
		dTheta = Vector{
			Att: [4]float64{dst2, -dst2 * c2e, -dst2 * s2e, 0},
			Dis: [3]float64{0, dst2 * s2e, -dst2 * c2e},
		}
		dEta = Vector{
			Att: [4]float64{0, 2 * st2 * s2e, -2 * st2 * c2e, 0},
			Dis: [3]float64{0, 2 * st2 * c2e, 2 * st2 * s2e},
		}
	default:
		sg := 1.
		if p == SigmaMinus {
			sg = -1
		}
		v = Vector{
			Att: [4]float64{1 + ct*ct, st2 * c2e, st2 * s2e, 2 * sg * ct},
			Dis: [3]float64{2 * sg * ct, -st2 * s2e, st2 * c2e},
		}
		dTheta = Vector{
			Att: [4]float64{-dst2, dst2 * c2e, dst2 * s2e, -2 * sg * st},
			Dis: [3]float64{-2 * sg * st, -dst2 * s2e, dst2 * c2e},
		}
		dEta = Vector{
			Att: [4]float64{0, -2 * st2 * s2e, 2 * st2 * c2e, 0},
			Dis: [3]float64{0, -2 * st2 * c2e, -2 * st2 * s2e},
		}
	}
	return
}
