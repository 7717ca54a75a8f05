// Public domain.

package rxprog

import (
	"math"
	"sort"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/background"
	"github.com/soniakeys/radxfer/internal/config"
	"github.com/soniakeys/radxfer/internal/derivative"
	"github.com/soniakeys/radxfer/internal/lineshape"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/sensor"
	"github.com/soniakeys/radxfer/internal/species"
	"github.com/soniakeys/radxfer/internal/xsec"
	"github.com/soniakeys/radxfer/internal/zeeman"
)

// Scenario is everything needed to simulate a line of sight.
type Scenario struct {
	Scene *background.Scene
	Props sensor.Properties
}

// NewScenario builds the standard scenario described by cfg.
func NewScenario(cfg *config.Config) (*Scenario, error) {
	f, err := StandardAtmosphere(&cfg.Atmosphere)
	if err != nil {
		return nil, err
	}
	b, err := o2Band(&cfg.Spectroscopy)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(cfg.Sensor.Stokes, 0); err != nil {
		return nil, err
	}
	targets := make([]derivative.Target, len(cfg.Spectroscopy.Targets))
	for i, name := range cfg.Spectroscopy.Targets {
		if targets[i], err = ParseTarget(name); err != nil {
			return nil, err
		}
	}
	scene, err := background.NewScene(f, []xsec.Band{b}, targets, cfg.Sensor.Step)
	if err != nil {
		return nil, err
	}
	props, err := properties(&cfg.Sensor)
	if err != nil {
		return nil, err
	}
	return &Scenario{Scene: scene, Props: props}, nil
}

func properties(s *config.SensorConfig) (sensor.Properties, error) {
	p := sensor.Properties{
		Stokes:        s.Stokes,
		Freqs:         s.Freqs(),
		Beams:         sensor.Pencil(),
		Polarizations: make([]sensor.Polarization, len(s.Polarizations)),
		Brightness:    s.Brightness,
	}
	for i, name := range s.Polarizations {
		var err error
		if p.Polarizations[i], err = sensor.ParsePolarization(name); err != nil {
			return p, err
		}
	}
	if s.BeamFWHM > 0 {
		var err error
		p.Beams, err = sensor.GaussianBeam(unit.AngleFromDeg(s.BeamFWHM), s.BeamSamples, s.BeamSeed)
		if err != nil {
			return p, err
		}
	}
	return p, p.Validate()
}

var targetNames = map[string]derivative.Target{
	"temperature": derivative.Atm{Kind: derivative.Temperature},
	"pressure":    derivative.Atm{Kind: derivative.Pressure},
	"wind-u":      derivative.Atm{Kind: derivative.WindU},
	"wind-v":      derivative.Atm{Kind: derivative.WindV},
	"wind-w":      derivative.Atm{Kind: derivative.WindW},
	"mag-u":       derivative.Atm{Kind: derivative.MagU},
	"mag-v":       derivative.Atm{Kind: derivative.MagV},
	"mag-w":       derivative.Atm{Kind: derivative.MagW},
	"vmr-O2":      derivative.VMR{Isotope: species.O2_66},
	"vmr-H2O":     derivative.VMR{Isotope: species.H2O_161},
	"surface":     derivative.Surface{},
	"center":      derivative.Line{Kind: derivative.Center},
	"strength":    derivative.Line{Kind: derivative.Strength},
}

// ParseTarget returns the Jacobian target of a configuration name.  Line
// targets refer to the single line of the scenario.
func ParseTarget(name string) (derivative.Target, error) {
	if t, ok := targetNames[name]; ok {
		return t, nil
	}
	return nil, rxerr.Configf("unknown Jacobian target %q", name)
}

func targetList() []string {
	l := make([]string, 0, len(targetNames))
	for n := range targetNames {
		l = append(l, n)
	}
	sort.Strings(l)
	return l
}

// standard atmosphere constants
const (
	g0         = 9.80665 // [m/s²]
	rDry       = 287.05  // dry air gas constant [J/(kg K)]
	lapse      = 6.5e-3  // [K/m]
	tropopause = 11e3    // [m]
	h2oScale   = 2e3     // water vapor scale height [m]
)

// StandardAtmosphere returns a single profile: temperature falling at the
// standard lapse rate to the tropopause and constant above, hydrostatic
// pressure, well mixed O2 and N2, and water vapor decaying exponentially.
func StandardAtmosphere(a *config.AtmosphereConfig) (*atm.Field, error) {
	if a.Levels < 2 || len(a.Wind) != 3 || len(a.Mag) != 3 {
		return nil, rxerr.Configf("atmosphere needs 2 levels and 3 component wind and magnetic field")
	}
	alt := floats.Span(make([]float64, a.Levels), 0, a.Top)
	sp := []species.Isotope{species.O2_66, species.N2_44, species.H2O_161}
	tTrop := a.SurfaceTemp - lapse*tropopause
	pTrop := a.SurfacePressure * math.Pow(tTrop/a.SurfaceTemp, g0/(rDry*lapse))
	pts := make([]atm.Point, len(alt))
	for i, z := range alt {
		p := &pts[i]
		if z <= tropopause {
			p.Temperature = a.SurfaceTemp - lapse*z
			p.Pressure = a.SurfacePressure * math.Pow(p.Temperature/a.SurfaceTemp, g0/(rDry*lapse))
		} else {
			p.Temperature = tTrop
			p.Pressure = pTrop * math.Exp(-g0*(z-tropopause)/(rDry*tTrop))
		}
		copy(p.Wind[:], a.Wind)
		copy(p.Mag[:], a.Mag)
		p.Species = sp
		p.VMR = []float64{.2095, .7808, a.H2O * math.Exp(-z/h2oScale)}
	}
	return atm.NewProfile(alt, pts)
}

// O2 line at 118.75 GHz.  Widths and shift are per Pa.
const (
	o2F0    = 118.750343e9
	o2S0    = 2.9e-19
	o2E0    = 5.7e-23
	o2GAir  = 6.4e3
	o2GSelf = 6.9e3
	o2NAir  = .8
)

var shapeNames = map[string]lineshape.Kind{
	"DP":     lineshape.Doppler,
	"LP":     lineshape.Lorentz,
	"VP":     lineshape.Voigt,
	"SDVP":   lineshape.SpeedDependentVoigt,
	"SDHCVP": lineshape.SpeedDependentHardCollisionVoigt,
	"HTP":    lineshape.HartmannTran,
}

var mirroringNames = map[string]xsec.Mirroring{
	"none":    xsec.MirrorNone,
	"lorentz": xsec.MirrorLorentz,
	"same":    xsec.MirrorSame,
}

var normalizationNames = map[string]xsec.Normalization{
	"none": xsec.NormNone,
	"VVH":  xsec.VVH,
	"VVW":  xsec.VVW,
	"RQ":   xsec.RosenkranzQuadratic,
}

func o2Band(s *config.SpectroscopyConfig) (xsec.Band, error) {
	b := xsec.Band{
		Isotope: species.O2_66,
		T0:      296,
	}
	var ok bool
	if b.Shape, ok = shapeNames[s.Shape]; !ok {
		return b, rxerr.Configf("unknown line shape %q", s.Shape)
	}
	if b.Mirroring, ok = mirroringNames[s.Mirroring]; !ok {
		return b, rxerr.Configf("unknown mirroring %q", s.Mirroring)
	}
	if b.Normalization, ok = normalizationNames[s.Normalization]; !ok {
		return b, rxerr.Configf("unknown normalization %q", s.Normalization)
	}
	if s.FCut > 0 {
		b.Cutoff = xsec.ByLineOffset
		b.FCut = s.FCut
	}
	l := xsec.Line{
		F0:    o2F0,
		S0:    o2S0,
		E0:    o2E0,
		Model: lineshape.HitranModel(species.O2_66, o2GAir, o2GSelf, 0, o2NAir),
	}
	if b.Shape > lineshape.Voigt {
		for i := range l.Model.Rows {
			r := &l.Model.Rows[i]
			g := r.P[lineshape.G0].X[0]
			r.P[lineshape.G2] = lineshape.SingleParameter{Temp: lineshape.T1, Pres: 1,
				X: [lineshape.NCoef]float64{.1 * g, o2NAir}}
			if b.Shape == lineshape.HartmannTran {
				r.P[lineshape.FVC] = lineshape.SingleParameter{Temp: lineshape.T0, Pres: 1,
					X: [lineshape.NCoef]float64{.2 * g}}
			}
		}
	}
	if s.Zeeman {
		// N=1: J=0 upper, J=1 lower
		b.Zeeman = true
		l.Zeeman = &zeeman.Model{Gu: 0, Gl: 2.0, Ju: 0, Jl: 1}
	}
	b.Lines = []xsec.Line{l}
	return b, nil
}
