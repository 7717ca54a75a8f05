// Public domain.

// Package xsec assembles the absorption of spectral lines at one
// atmospheric point into a propagation matrix per frequency, with its
// derivatives for a list of Jacobian targets.
package xsec

import (
	"math"
	"math/cmplx"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/derivative"
	"github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/path"
	"github.com/soniakeys/radxfer/internal/phys"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/zeeman"
)

// Compute evaluates bands at path point pt for frequencies freqs.
//
// res receives the propagation matrix and its derivatives for targets.
// src, when not nil, receives the NLTE source excess, the emission of NLTE
// bands beyond what their absorption at the local temperature implies.
// Both are reset first and must be sized for freqs and targets.
//
// Configuration is checked before anything is computed; all failures are
// rxerr configuration errors.
func Compute(res, src *Result, freqs []float64, bands []Band, pt *path.Point, targets []derivative.Target) error {
	za, aa := pt.Nav.LOS()
	return ComputeAt(res, src, freqs, bands, &pt.Atm, za, aa, targets)
}

// ComputeAt is Compute for an atmospheric state a seen along zenith za and
// azimuth aa.
func ComputeAt(res, src *Result, freqs []float64, bands []Band, a *atm.Point, za, aa unit.Angle, targets []derivative.Target) error {
	if err := validate(res, src, freqs, bands, a, targets); err != nil {
		return err
	}
	res.Reset()
	if src != nil {
		src.Reset()
	}
	c := &calc{
		res:     res,
		src:     src,
		freqs:   freqs,
		targets: targets,
		atm:     a,
		t:       a.Temperature,
		p:       a.Pressure,
		n:       a.NumberDensity(),
		ratio:   a.DopplerShiftRatio(za, aa),
		dratio:  atm.DDopplerShiftRatio(za, aa),
		ang:     zeeman.NewAngles(a.Mag, za, aa),
		ld:      make([]lineDeriv, len(targets)),
		cutLo:   make([]complex128, len(targets)),
		cutHi:   make([]complex128, len(targets)),
	}
	if src != nil {
		for i := range bands {
			if bands[i].Population == NLTE {
				c.planck = make([]float64, len(freqs))
				c.dplanck = make([]float64, len(freqs))
				for j, f := range freqs {
					c.planck[j] = phys.Planck(f, c.t)
					c.dplanck[j] = phys.DPlanckDT(f, c.t)
				}
				break
			}
		}
	}
	for bi := range bands {
		b := &bands[bi]
		if !a.Has(b.Isotope) {
			continue
		}
		for li := range b.Lines {
			c.line(bi, li, b, &b.Lines[li])
		}
	}
	return nil
}

func validate(res, src *Result, freqs []float64, bands []Band, a *atm.Point, targets []derivative.Target) error {
	if res.Stokes < 1 || res.Stokes > 4 {
		return rxerr.Configf("Stokes dimension %d", res.Stokes)
	}
	for _, r := range []*Result{res, src} {
		if r == nil {
			continue
		}
		if r.Stokes != res.Stokes || len(r.K) != len(freqs) || len(r.DK) != len(targets) {
			return rxerr.Configf("result sized for Stokes %d, %d frequencies, %d targets; need %d, %d, %d",
				r.Stokes, len(r.K), len(r.DK), res.Stokes, len(freqs), len(targets))
		}
		for _, d := range r.DK {
			if len(d) != len(freqs) {
				return rxerr.Configf("derivative sized for %d frequencies, need %d", len(d), len(freqs))
			}
		}
	}
	for i := range bands {
		if err := bands[i].Validate(res.Stokes, len(a.NLTE)); err != nil {
			return err
		}
	}
	if err := derivative.Validate(targets); err != nil {
		return rxerr.Config("targets", err)
	}
	for _, t := range targets {
		if l, ok := t.(derivative.Line); ok {
			if l.Band >= len(bands) || l.Line >= len(bands[l.Band].Lines) {
				return rxerr.Configf("target %s: no such line", l)
			}
		}
	}
	return nil
}

type calc struct {
	res, src *Result
	freqs    []float64
	targets  []derivative.Target
	atm      *atm.Point
	t, p, n  float64 // temperature, pressure, number density
	ratio    float64 // Doppler shift ratio
	dratio   [3]float64
	ang      zeeman.Angles

	// per frequency, allocated only for NLTE
	planck, dplanck []float64

	// per target, reused line to line
	ld           []lineDeriv
	cutLo, cutHi []complex128
}

// profile is a line shape with its mirror, scaled by line mixing.
type profile struct {
	main, mirror lineshape.Shape
	lm           complex128
	f, fm        complex128 // values at the last frequency
}

func (p *profile) at(f float64) complex128 {
	p.f = p.main.At(f)
	if p.mirror != nil {
		p.fm = cmplx.Conj(p.mirror.At(f))
	}
	return p.lm * (p.f + p.fm)
}

// deriv returns the derivative of at along d, with dlm the derivative of
// the line mixing factor.
func (p *profile) deriv(d lineshape.Perturbation, dlm complex128) complex128 {
	v := p.main.Deriv(d)
	if p.mirror != nil {
		v += cmplx.Conj(p.mirror.Deriv(mirrored(d)))
	}
	return p.lm*v + dlm*(p.f+p.fm)
}

// mirrored maps a perturbation of a line to that of its reflection at
// negative frequency.
func mirrored(d lineshape.Perturbation) lineshape.Perturbation {
	d.F0, d.Z = -d.F0, -d.Z
	d.D0, d.D2, d.DV = -d.D0, -d.D2, -d.DV
	return d
}

func newProfile(b *Band, f0 float64, x, xm *lineshape.Params, gd, dz float64) profile {
	p := profile{
		main: lineshape.New(b.Shape, f0, x, gd, dz),
		lm:   complex(1+x[lineshape.G], -x[lineshape.Y]),
	}
	switch b.Mirroring {
	case MirrorSame:
		p.mirror = lineshape.New(b.Shape, -f0, xm, -gd, -dz)
	case MirrorLorentz:
		p.mirror = lineshape.NewLorentz(-f0, xm, -dz)
	}
	return p
}

// strength holds line strength scales per unit VMR and their derivatives.
// a scales absorption, e scales NLTE emission.
type strength struct {
	a, e       float64
	daT        float64
	daF0, deF0 float64
	daS0       float64
}

func (c *calc) strength(b *Band, l *Line) (s strength) {
	t := c.t
	if b.Population == NLTE {
		r := c.atm.NLTE
		ru, rl := r[l.NLTEUpper], r[l.NLTELower]
		s.a = phys.C * phys.C * l.A / (8 * math.Pi * l.F0 * l.F0) * (rl*l.Gu/l.Gl - ru)
		s.e = phys.H * l.F0 * l.A * ru / (4 * math.Pi)
		s.daF0 = -2 * s.a / l.F0
		s.deF0 = s.e / l.F0
		return
	}
	t0 := b.T0
	u, u0 := phys.H*l.F0/(phys.K*t), phys.H*l.F0/(phys.K*t0)
	se, se0 := -math.Expm1(-u), -math.Expm1(-u0)
	iso := b.Isotope
	s.daS0 = math.Exp(l.E0*(t-t0)/(phys.K*t*t0)) * se / se0 * iso.Q(t0) / iso.Q(t)
	s.a = l.S0 * s.daS0
	s.daT = s.a * (l.E0/(phys.K*t*t) - u/t*(1-se)/se - iso.DQdT(t)/iso.Q(t))
	s.daF0 = s.a * (phys.H/(phys.K*t)*(1-se)/se - phys.H/(phys.K*t0)*(1-se0)/se0)
	return
}

// norm returns the normalization factor at f and its derivatives with
// respect to temperature, line center and f.
func norm(k Normalization, f, f0, t float64) (n, dT, dF0, dF float64) {
	if k == NormNone {
		return 1, 0, 0, 0
	}
	if f == 0 {
		return 0, 0, 0, 0
	}
	r := f / f0
	switch k {
	case VVW:
		n = r * r
		dF0 = -2 * n / f0
		dF = 2 * n / f
	case VVH:
		h := phys.H / (2 * phys.K * t)
		x, x0 := h*f, h*f0
		th, th0 := math.Tanh(x), math.Tanh(x0)
		n = r * r * th / th0
		dT = n * (-x*(1-th*th)/th + x0*(1-th0*th0)/th0) / t
		dF0 = n * (-2/f0 - h*(1-th0*th0)/th0)
		dF = n * (2/f + h*(1-th*th)/th)
	case RosenkranzQuadratic:
		x0 := phys.H * f0 / (2 * phys.K * t)
		xc := x0 / math.Tanh(x0)
		n = r * r * x0 / math.Sinh(x0)
		dT = n * (xc - 1) / t
		dF0 = n * (-2 + 1 - xc) / f0
		dF = 2 * n / f
	}
	return
}

// lineDeriv is the per target state for one line.
type lineDeriv struct {
	on     bool
	p, cp  lineshape.Perturbation // profile and cutoff perturbations
	dlm    complex128
	da, de float64 // strength derivatives, VMR included
	dn     float64
	dNT    bool // normalization temperature derivative applies
	dNF0   bool // normalization center derivative applies
	edge   bool // the cutoff window moves with the line center
	dB     bool // Planck temperature derivative applies
	wind   int  // wind component or -1
	mag    int  // magnetic component or -1
}

func fromParams(d lineshape.Params) (lineshape.Perturbation, complex128) {
	return lineshape.FromParams(d), complex(d[lineshape.G], -d[lineshape.Y])
}

func (c *calc) setup(bi, li int, b *Band, l *Line, s *strength, vmr float64) {
	a := c.atm
	for i, tg := range c.targets {
		d := lineDeriv{wind: -1, mag: -1}
		switch tg := tg.(type) {
		case derivative.Atm:
			switch tg.Kind {
			case derivative.Temperature:
				d.p, d.dlm = fromParams(l.Model.DT(c.t, b.T0, c.p, a))
				d.p.LogGD = 1 / (2 * c.t)
				d.cp = d.p
				d.da = vmr * s.daT
				d.dn = a.DNumberDensityDT()
				d.dNT, d.dB, d.on = true, true, true
			case derivative.Pressure:
				d.p, d.dlm = fromParams(l.Model.DP(c.t, b.T0, c.p, a))
				d.cp = d.p
				d.dn = a.DNumberDensityDP()
				d.on = true
			default:
				if k, ok := tg.Kind.Wind(); ok {
					d.wind, d.on = k, true
				} else if k, ok := tg.Kind.Mag(); ok && b.Zeeman {
					d.mag, d.on = k, true
				}
			}
		case derivative.VMR:
			d.p, d.dlm = fromParams(l.Model.DVMR(tg.Isotope, c.t, b.T0, c.p, a))
			d.cp = d.p
			if tg.Isotope == b.Isotope {
				d.da, d.de = s.a, s.e
			}
			d.on = true
		case derivative.Line:
			if tg.Band != bi || tg.Line != li {
				break
			}
			switch tg.Kind {
			case derivative.Strength:
				d.da = vmr * s.daS0
			case derivative.Center:
				d.p = lineshape.Perturbation{F0: 1}
				d.cp = d.p
				if b.Cutoff == ByLineOffset {
					d.cp.F = 1
					d.edge = true
				}
				d.da, d.de = vmr*s.daF0, vmr*s.deF0
				d.dNF0 = true
			case derivative.Shape:
				dx := l.Model.DX(tg.Broadener, tg.Coef, c.t, b.T0, c.p, a)
				var only lineshape.Params
				only[tg.Param] = dx[tg.Param]
				d.p, d.dlm = fromParams(only)
				d.cp = d.p
			}
			d.on = true
		}
		c.ld[i] = d
	}
}

func addPol(e *Elements, v complex128, pv *zeeman.Vector) {
	re, im := real(v), imag(v)
	for i := 0; i < 4; i++ {
		e[A+i] += re * pv.Att[i]
	}
	for i := 0; i < 3; i++ {
		e[U+i] += im * pv.Dis[i]
	}
}

var unsplit = []zeeman.Polarization{zeeman.None}

func (c *calc) line(bi, li int, b *Band, l *Line) {
	a := c.atm
	vmr := a.VMROf(b.Isotope)
	x := l.Model.At(c.t, b.T0, c.p, a)
	xm := x.Mirrored()
	gd := lineshape.DopplerRatio(c.t, b.Isotope.Mass())
	s := c.strength(b, l)
	c.setup(bi, li, b, l, &s, vmr)
	lo, hi := b.Window(l)
	cutoff := b.Cutoff != CutNone
	nlte := b.Population == NLTE && c.src != nil

	pols := unsplit
	if b.Zeeman {
		pols = zeeman.Polarizations[:]
	}
	for _, pol := range pols {
		comps := []zeeman.Component{{Strength: 1}}
		if b.Zeeman {
			comps = l.Zeeman.Components(pol)
		}
		pv, dvTheta, dvEta := c.ang.Polarization(pol)
		var dpv [3]zeeman.Vector
		if b.Zeeman {
			for k := range dpv {
				for i := range pv.Att {
					dpv[k].Att[i] = dvTheta.Att[i]*c.ang.DTheta[k] + dvEta.Att[i]*c.ang.DEta[k]
				}
				for i := range pv.Dis {
					dpv[k].Dis[i] = dvTheta.Dis[i]*c.ang.DTheta[k] + dvEta.Dis[i]*c.ang.DEta[k]
				}
			}
		}
		for _, cm := range comps {
			dz := cm.Shift * c.ang.H
			pr := newProfile(b, l.F0, &x, &xm, gd, dz)
			// Under a cutoff the profile less the line joining its values
			// at the window edges is zero at both edges.
			var cutLo, cutHi complex128
			for i := range c.cutLo {
				c.cutLo[i], c.cutHi[i] = 0, 0
			}
			if cutoff {
				cl := newProfile(b, l.F0, &x, &xm, gd, dz)
				ch := newProfile(b, l.F0, &x, &xm, gd, dz)
				cutLo, cutHi = cl.at(lo), ch.at(hi)
				for i := range c.ld {
					if d := &c.ld[i]; d.on && d.wind < 0 {
						q := d.cp
						if d.mag >= 0 {
							q.Z = cm.Shift * c.ang.DH[d.mag]
						}
						c.cutLo[i] = cl.deriv(q, d.dlm)
						c.cutHi[i] = ch.deriv(q, d.dlm)
					}
				}
			}
			sa := vmr * s.a * cm.Strength
			se := vmr * s.e * cm.Strength
			for fi, f := range c.freqs {
				fs := f * c.ratio
				if fs < lo || fs > hi {
					continue
				}
				var u float64 // position of fs across the window
				if cutoff {
					u = (fs - lo) / (hi - lo)
				}
				lv := pr.at(fs) - (complex(1-u, 0)*cutLo + complex(u, 0)*cutHi)
				nv, nT, nF0, nF := norm(b.Normalization, fs, l.F0, c.t)
				xv := complex(c.n*nv, 0) * lv
				ck := complex(sa, 0) * xv
				addPol(&c.res.K[fi], ck, &pv)
				var bf, dbf float64
				var cs complex128
				if nlte {
					bf, dbf = c.planck[fi], c.dplanck[fi]
					cs = complex(se-sa*bf, 0) * xv
					addPol(&c.src.K[fi], cs, &pv)
				}
				for ti := range c.ld {
					d := &c.ld[ti]
					if !d.on {
						continue
					}
					q := d.p
					var du, dN float64
					switch {
					case d.wind >= 0:
						q.F = f * c.dratio[d.wind]
						du = q.F
						dN = nF * q.F
					case d.mag >= 0:
						q.Z = cm.Shift * c.ang.DH[d.mag]
					}
					if d.dNT {
						dN = nT
					} else if d.dNF0 {
						dN = nF0
					}
					if d.edge {
						du = -1
					}
					if cutoff {
						du /= hi - lo
					} else {
						du = 0
					}
					dcut := complex(1-u, 0)*c.cutLo[ti] + complex(u, 0)*c.cutHi[ti] +
						complex(du, 0)*(cutHi-cutLo)
					dl := pr.deriv(q, d.dlm) - dcut
					dx := complex(d.dn*nv+c.n*dN, 0)*lv + complex(c.n*nv, 0)*dl
					dsa := d.da * cm.Strength
					addPol(&c.res.DK[ti][fi], complex(dsa, 0)*xv+complex(sa, 0)*dx, &pv)
					if d.mag >= 0 {
						addPol(&c.res.DK[ti][fi], ck, &dpv[d.mag])
					}
					if nlte {
						dse := d.de * cm.Strength
						var db float64
						if d.dB {
							db = dbf
						}
						dcs := complex(dse-dsa*bf-sa*db, 0)*xv + complex(se-sa*bf, 0)*dx
						addPol(&c.src.DK[ti][fi], dcs, &pv)
						if d.mag >= 0 {
							addPol(&c.src.DK[ti][fi], cs, &dpv[d.mag])
						}
					}
				}
			}
		}
	}
}
