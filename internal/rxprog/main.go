// Public domain.

// Package rxprog is the radxfer command.
package rxprog

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/soniakeys/exit"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/radxfer/internal/config"
	"github.com/soniakeys/radxfer/internal/geom"
	"github.com/soniakeys/radxfer/internal/path"
)

const versionString = "radxfer version 0.1 Go source."
const copyrightString = "Public domain."

func Main() {
	defer exit.Handler()

	cl := parseCommandLine()
	cfg, err := config.Load(cl.env...)
	if err != nil {
		exit.Log(err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: cfg.Level()})))
	sc, err := NewScenario(cfg)
	if err != nil {
		exit.Log(err)
	}
	slog.Debug("scenario ready",
		"levels", len(sc.Scene.Field.Alt),
		"frequencies", len(sc.Props.Freqs),
		"beams", len(sc.Props.Beams),
		"targets", len(sc.Scene.Targets))

	var f *os.File
	if cl.fnLOS == "-" {
		f = os.Stdin
	} else {
		f, err = os.Open(cl.fnLOS)
		if err != nil {
			exit.Log(err)
		}
		defer f.Close()
	}

	// losChIn supplies lines of sight read by splitter.  A read error goes
	// to errCh and ends splitter.
	losChIn := make(chan *los)
	errCh := make(chan error)
	go splitter(f, losChIn, errCh)

	// prCh holds result channels in submission order.  It is buffered so
	// a fast worker can drop off a result without waiting on a slow one
	// ahead of it.
	maxWorkers := cfg.Workers
	if maxWorkers == 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	prCh := make(chan chan string, maxWorkers*2)
	losChSeq := make(chan *losSeq)

	// dispatcher: attach a ticket to each line of sight, hand it to a
	// worker and queue the ticket for printing.
	go func() {
		for l := range losChIn {
			rch := make(chan string, 1)
			losChSeq <- &losSeq{l, rch}
			prCh <- rch
		}
		close(prCh)
	}()

	// workers are started only as lines of sight arrive, up to maxWorkers.
	go func() {
		for n := 0; n < maxWorkers; n++ {
			l, ok := <-losChSeq
			if !ok {
				return
			}
			go solve(sc, l, losChSeq, cl.jac)
		}
	}()

	printHeadings(os.Stdout, sc, cl.jac)

	for {
		select {
		case err := <-errCh:
			exit.Log(err)
		case rch, ok := <-prCh:
			if !ok {
				return
			}
			select {
			case err := <-errCh:
				exit.Log(err)
			case r := <-rch:
				fmt.Print(r)
			}
		}
	}
}

// los is a numbered line of sight from the input.
type los struct {
	n   int
	nav geom.Nav
}

type losSeq struct {
	l   *los
	rch chan string
}

// parseLOS parses "lat lon alt za aa [time]": degrees, meters and
// seconds.
func parseLOS(s string) (geom.Nav, error) {
	f := strings.Fields(s)
	if len(f) != 5 && len(f) != 6 {
		return geom.Nav{}, fmt.Errorf("want 5 or 6 fields, have %d", len(f))
	}
	var v [6]float64
	for i, x := range f {
		var err error
		if v[i], err = strconv.ParseFloat(x, 64); err != nil {
			return geom.Nav{}, err
		}
	}
	if v[0] < -90 || v[0] > 90 {
		return geom.Nav{}, fmt.Errorf("latitude %g out of range", v[0])
	}
	if v[3] < 0 || v[3] > 180 {
		return geom.Nav{}, fmt.Errorf("zenith angle %g out of range", v[3])
	}
	return geom.NewNav(geom.Earth, v[5],
		unit.AngleFromDeg(v[0]), unit.AngleFromDeg(v[1]), v[2],
		unit.AngleFromDeg(v[3]), unit.AngleFromDeg(v[4])), nil
}

// splitter reads lines of sight.  Blank lines and lines starting with #
// are ignored; lines that do not parse are logged and dropped.
func splitter(r io.Reader, losCh chan *los, errCh chan error) {
	s := bufio.NewScanner(r)
	for ln, n := 0, 0; s.Scan(); {
		ln++
		t := strings.TrimSpace(s.Text())
		if t == "" || t[0] == '#' {
			continue
		}
		nav, err := parseLOS(t)
		if err != nil {
			slog.Warn("line of sight dropped", "line", ln, "err", err)
			continue
		}
		n++
		losCh <- &los{n, nav}
	}
	if err := s.Err(); err != nil {
		errCh <- err
	}
	close(losCh)
}

// solve is a worker.  The first line of sight is l, more come on losCh.
// It runs until the program shuts down.
func solve(sc *Scenario, l *losSeq, losCh chan *losSeq, jac bool) {
	for ; ; l = <-losCh {
		l.rch <- sc.simulate(l.l, jac)
	}
}

// simulate runs one line of sight and formats the result.
func (sc *Scenario) simulate(l *los, jac bool) string {
	lat, lon, alt := l.nav.Geodetic()
	za, aa := l.nav.LOS()
	var b strings.Builder
	fmt.Fprintf(&b, "# %d lat %.1d lon %.1d alt %.3f km za %.3f aa %.3f",
		l.n, sexa.FmtAngle(lat), sexa.FmtAngle(lon), alt/1e3, za.Deg(), aa.Deg())
	c, err := sc.Scene.Convolve(context.Background(), l.nav, sc.Props)
	if err != nil {
		slog.Error("line of sight failed", "n", l.n, "err", err)
		fmt.Fprintf(&b, " error: %v\n", err)
		return b.String()
	}
	var surf int
	for _, e := range c.Ends {
		if e == path.Surface {
			surf++
		}
	}
	fmt.Fprintf(&b, " surface %d/%d\n", surf, len(c.Ends))
	for iv, fr := range c.Freqs {
		fmt.Fprintf(&b, "%12.6f", fr/1e9)
		for p := range c.Polarizations {
			b.WriteString(sc.value(c.Rad[c.Row(iv, p)]))
		}
		if jac {
			// per target totals over the state columns
			for p := range c.Polarizations {
				row := c.Row(iv, p)
				for _, blk := range c.Blocks {
					var sum float64
					for j := blk.Offset; j < blk.Offset+blk.N; j++ {
						sum += c.Jac.Get(row, j)
					}
					fmt.Fprintf(&b, " %12.5e", sum)
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (sc *Scenario) value(x float64) string {
	if sc.Props.Brightness {
		return fmt.Sprintf(" %9.3f", x)
	}
	return fmt.Sprintf(" %12.5e", x)
}

func printHeadings(w io.Writer, sc *Scenario, jac bool) {
	fmt.Fprintln(w, "#", versionString)
	fmt.Fprint(w, "# freq [GHz]")
	for _, p := range sc.Props.Polarizations {
		fmt.Fprintf(w, " %s", p)
	}
	if jac {
		for _, p := range sc.Props.Polarizations {
			for _, t := range sc.Scene.Targets {
				fmt.Fprintf(w, " d%s/d(%s)", p, t)
			}
		}
	}
	fmt.Fprintln(w)
}

type commandLine struct {
	env   []string // configuration files
	fnLOS string   // lines of sight
	jac   bool     // -j option
}

func parseCommandLine() *commandLine {
	var cl commandLine
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	de := flag.String("e", "", "")
	flag.BoolVar(&cl.jac, "j", false, "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: radxfer [options] <losfile>    simulate lines of sight in file
       radxfer [options] -            simulate lines of sight from stdin
       radxfer -h                     display help and quick reference
       radxfer -v                     display version and copyright

Options:
       -e <env-file>    read configuration variables from env-file
       -j               print Jacobian totals per target
`)
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() != 1:
		flag.Usage()
		os.Exit(1)
	}
	if *de > "" {
		cl.env = []string{*de}
	}
	cl.fnLOS = flag.Arg(0)
	return &cl
}

func printHelp() {
	fmt.Println(`
Radxfer simulates the radiance a microwave sensor sees through a standard
atmosphere around the 118.75 GHz oxygen line, with its Jacobian.

Each input line is a line of sight:
   lat lon alt za aa [time]
in degrees, meters and seconds.  Lines starting with # are ignored.

Configuration variables, read from the environment or a .env file:
   RADXFER_LOG_LEVEL         debug, info, warn, error
   RADXFER_WORKERS           concurrent lines of sight, 0 for all cores
   RADXFER_STOKES            Stokes dimension, 1 to 4
   RADXFER_FREQ_LOW          lowest frequency [Hz]
   RADXFER_FREQ_HIGH         highest frequency [Hz]
   RADXFER_FREQ_COUNT        number of frequencies
   RADXFER_POLARIZATIONS     I Q U V I+Q I-Q I+U I-U I+V I-V
   RADXFER_BRIGHTNESS        brightness temperature instead of radiance
   RADXFER_BEAM_FWHM         Gaussian beam width [deg], 0 for a pencil beam
   RADXFER_BEAM_SAMPLES      Gaussian beam samples
   RADXFER_BEAM_SEED         Gaussian beam sampling seed
   RADXFER_STEP              path step [m]
   RADXFER_TOA               top of atmosphere [m]
   RADXFER_LEVELS            atmosphere levels
   RADXFER_SURFACE_TEMPERATURE
   RADXFER_SURFACE_PRESSURE
   RADXFER_H2O_VMR           surface water vapor
   RADXFER_WIND              u,v,w [m/s]
   RADXFER_MAG               u,v,w [T]
   RADXFER_LINESHAPE         DP LP VP SDVP SDHCVP HTP
   RADXFER_MIRRORING         none lorentz same
   RADXFER_NORMALIZATION     none VVH VVW RQ
   RADXFER_ZEEMAN            split the line, needs Stokes dimension 4
   RADXFER_FCUT              line cutoff [Hz], 0 for none
   RADXFER_TARGETS           Jacobian targets:`)
	for _, n := range targetList() {
		fmt.Println("      ", n)
	}
}
