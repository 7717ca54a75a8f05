// Public domain.

package background

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/ctessum/sparse"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/soniakeys/radxfer/internal/atm"
	"github.com/soniakeys/radxfer/internal/derivative"
	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/interp"
	"github.com/soniakeys/radxfer/internal/path"
	"github.com/soniakeys/radxfer/internal/phys"
	"github.com/soniakeys/radxfer/internal/rte"
	"github.com/soniakeys/radxfer/internal/rxerr"
	"github.com/soniakeys/radxfer/internal/sensor"
	"github.com/soniakeys/radxfer/internal/xsec"
)

// Block is the range of Jacobian columns belonging to one target.
//
// Atmospheric and VMR targets have a column per field grid point, the
// surface target one per surface grid point and a line target a single
// column.
type Block struct {
	Target derivative.Target
	Offset int
	N      int
}

// Layout returns the column blocks of targets in order, and the total
// column count.
func Layout(targets []derivative.Target, f *atm.Field, s *Surface) (bs []Block, n int) {
	bs = make([]Block, len(targets))
	for i, t := range targets {
		bs[i] = Block{Target: t, Offset: n}
		switch t.(type) {
		case derivative.Surface:
			bs[i].N = len(s.Temp)
		default:
			bs[i].N = 1
			if derivative.Gridded(t) {
				bs[i].N = len(f.Points)
			}
		}
		n += bs[i].N
	}
	return
}

// Convolution is a measurement simulated over an antenna pattern.
type Convolution struct {
	Freqs         []float64
	Polarizations []sensor.Polarization

	// Rad is the measurement, row iv*len(Polarizations)+p.
	Rad []float64

	// Jac is the derivative of Rad with respect to the state, shape
	// [len(Rad)][column].  Columns are laid out by Blocks.
	Jac    *sparse.DenseArray
	Blocks []Block

	// Ends is what each beam's path ended against.
	Ends []path.Background
}

// Row returns the Rad and Jac row of frequency iv and polarization p.
func (c *Convolution) Row(iv, p int) int {
	return iv*len(c.Polarizations) + p
}

// Scene is what a sensor looks through.
type Scene struct {
	Field      *atm.Field
	Background *Background
	Bands      []xsec.Band
	Targets    []derivative.Target
	Step       float64 // path step length [m]
}

// NewScene validates the parts of a scene and returns it with the surface
// taken from the field.
func NewScene(f *atm.Field, bands []xsec.Band, targets []derivative.Target, step float64) (*Scene, error) {
	if err := derivative.Validate(targets); err != nil {
		return nil, rxerr.Config("Jacobian targets", err)
	}
	if !(step > 0) {
		return nil, rxerr.Configf("path step %g", step)
	}
	return &Scene{Field: f, Background: New(f), Bands: bands, Targets: targets, Step: step}, nil
}

// ComputeConvolution simulates the measurement of props from boresight pos
// through field f against bg, tracing paths in steps of layer [m].
func ComputeConvolution(ctx context.Context, f *atm.Field, bg *Background, pos geom.Nav,
	bands []xsec.Band, targets []derivative.Target, props sensor.Properties, layer float64) (*Convolution, error) {
	s, err := NewScene(f, bands, targets, layer)
	if err != nil {
		return nil, err
	}
	if bg != nil {
		s.Background = bg
	}
	return s.Convolve(ctx, pos, props)
}

type beamResult struct {
	rad []float64 // [iv*stokes+k]
	jac *sparse.DenseArray
	end path.Background
}

// Convolve simulates the measurement of props from boresight pos.
//
// Every beam is traced and run through the forward model independently,
// at most GOMAXPROCS at a time.  Results are reduced in beam order and
// normalized by the sum of the weights, so the outcome does not depend on
// scheduling.  Radiance is converted to brightness temperature after the
// reduction when props asks for it.
func (s *Scene) Convolve(ctx context.Context, pos geom.Nav, props sensor.Properties) (*Convolution, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}
	blocks, ncol := Layout(s.Targets, s.Field, s.Background.Surface)
	beams := make([]*beamResult, len(props.Beams))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range props.Beams {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &props.Beams[i]
			r, err := s.beam(b.Apply(pos), &props, blocks, ncol)
			if err != nil {
				return err
			}
			slog.Debug("beam done", "beam", i, "end", r.end, "weight", b.Weight)
			beams[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := props.Stokes
	nrow := len(props.Freqs) * n
	rad := make([]float64, nrow)
	jac := sparse.ZerosDense(nrow, ncol)
	ends := make([]path.Background, len(beams))
	var wsum float64
	for i, r := range beams {
		w := props.Beams[i].Weight
		wsum += w
		ends[i] = r.end
		for k, x := range r.rad {
			rad[k] += w * x
		}
		for k, x := range r.jac.Elements {
			jac.Elements[k] += w * x
		}
	}
	for k := range rad {
		rad[k] /= wsum
	}
	for k := range jac.Elements {
		jac.Elements[k] /= wsum
	}
	if props.Brightness {
		toBrightness(rad, jac, props.Freqs, n)
	}
	c := &Convolution{
		Freqs:         props.Freqs,
		Polarizations: props.Polarizations,
		Blocks:        blocks,
		Ends:          ends,
	}
	c.project(rad, jac, n)
	return c, nil
}

// beam runs one line of sight.
func (s *Scene) beam(nav geom.Nav, props *sensor.Properties, blocks []Block, ncol int) (*beamResult, error) {
	f := s.Field
	n, nf := props.Stokes, len(props.Freqs)
	res := &beamResult{jac: sparse.ZerosDense(nf*n, ncol)}
	pts, end, err := path.Trace(nav, f, s.Step, f.Top())
	if err != nil {
		return nil, err
	}
	res.end = end
	if len(pts) == 0 {
		slog.Debug("line of sight misses the atmosphere")
		res.rad = flatten(Space(props.Freqs, n))
		return res, nil
	}
	last := &pts[len(pts)-1].Nav
	b, surf := s.Background.Compute(end, last, props.Freqs, n)
	r, err := rte.Compute(b, props.Freqs, s.Targets, s.Bands, pts, n)
	if err != nil {
		return nil, err
	}
	res.rad = flatten(r.Sensor())

	// grid corners of each path point
	corners := make([][]interp.Corner, len(pts))
	for ip := range pts {
		lat, lon, alt := pts[ip].Nav.Geodetic()
		corners[ip] = f.Corners(pts[ip].Nav.Time, alt, lat.Deg(), lon.Deg())
	}
	for ti, blk := range blocks {
		switch t := blk.Target.(type) {
		case derivative.Atm, derivative.VMR:
			pressure := t == derivative.Atm{Kind: derivative.Pressure}
			for ip, cs := range corners {
				for _, c := range cs {
					w := c.Weight
					if pressure {
						w *= pts[ip].Atm.Pressure / f.Points[c.Index].Pressure
					}
					res.add(r.DX[ti][ip], w, blk.Offset+c.Index, n)
				}
			}
		case derivative.Surface:
			if end != path.Surface {
				continue
			}
			for iv, fr := range props.Freqs {
				bg := r.Background[iv]
				for _, c := range surf {
					db := c.Weight * phys.DPlanckDT(fr, s.Background.Surface.Temp[c.Index])
					for k := 0; k < n; k++ {
						res.jac.AddVal(bg.At(k, 0)*db, iv*n+k, blk.Offset+c.Index)
					}
				}
			}
		default:
			for ip := range pts {
				res.add(r.DX[ti][ip], 1, blk.Offset, n)
			}
		}
	}
	return res, nil
}

// add accumulates w times dx [frequency][stokes] into column col.
func (r *beamResult) add(dx [][]float64, w float64, col, n int) {
	for iv, d := range dx {
		for k, x := range d {
			if x != 0 {
				r.jac.AddVal(w*x, iv*n+k, col)
			}
		}
	}
}

func flatten(x [][]float64) []float64 {
	var out []float64
	for _, v := range x {
		out = append(out, v...)
	}
	return out
}

// toBrightness converts radiance rows and their derivatives to brightness
// temperature, frequency by frequency.
func toBrightness(rad []float64, jac *sparse.DenseArray, freqs []float64, n int) {
	bj := mat.NewDense(n, n, nil)
	ncol := jac.Shape[1]
	col := make([]float64, n)
	for iv, f := range freqs {
		x := rad[iv*n : (iv+1)*n]
		rte.BrightnessJacobian(bj, f, x)
		for j := 0; j < ncol; j++ {
			for k := range col {
				col[k] = 0
				for m := 0; m < n; m++ {
					col[k] += bj.At(k, m) * jac.Get(iv*n+m, j)
				}
			}
			for k, v := range col {
				jac.Set(v, iv*n+k, j)
			}
		}
		rte.Brightness(f, x)
	}
}

// project sets Rad and Jac from Stokes rows through the polarization
// coefficients.
func (c *Convolution) project(rad []float64, jac *sparse.DenseArray, n int) {
	np := len(c.Polarizations)
	ncol := jac.Shape[1]
	c.Rad = make([]float64, len(c.Freqs)*np)
	c.Jac = sparse.ZerosDense(len(c.Rad), ncol)
	for iv := range c.Freqs {
		for p, pol := range c.Polarizations {
			row := c.Row(iv, p)
			co := pol.Coefficients()
			for k := 0; k < n; k++ {
				if co[k] == 0 {
					continue
				}
				c.Rad[row] += co[k] * rad[iv*n+k]
				for j := 0; j < ncol; j++ {
					c.Jac.AddVal(co[k]*jac.Get(iv*n+k, j), row, j)
				}
			}
		}
	}
}
