// Public domain.

// Package config holds the settings of the radxfer command.
//
// Values come from the environment, optionally seeded from a .env file.
// Variables already set in the environment take precedence over the file.
// Every field has a default, so an empty environment gives the standard
// scenario: a clear-sky standard atmosphere seen through the 118.75 GHz
// oxygen line.
package config

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
)

// Config is the top-level configuration.
type Config struct {
	LogLevel string `envconfig:"RADXFER_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	// Workers limits concurrent lines of sight, 0 for GOMAXPROCS.
	Workers int `envconfig:"RADXFER_WORKERS" default:"0" validate:"min=0"`

	Sensor       SensorConfig
	Atmosphere   AtmosphereConfig
	Spectroscopy SpectroscopyConfig
}

// SensorConfig describes the simulated instrument.
type SensorConfig struct {
	Stokes        int      `envconfig:"RADXFER_STOKES" default:"1" validate:"min=1,max=4"`
	FreqLow       float64  `envconfig:"RADXFER_FREQ_LOW" default:"118.25e9" validate:"gt=0"`
	FreqHigh      float64  `envconfig:"RADXFER_FREQ_HIGH" default:"119.25e9" validate:"gtefield=FreqLow"`
	FreqCount     int      `envconfig:"RADXFER_FREQ_COUNT" default:"21" validate:"min=1"`
	Polarizations []string `envconfig:"RADXFER_POLARIZATIONS" default:"I" validate:"min=1,dive,oneof=I Q U V I+Q I-Q I+U I-U I+V I-V"`
	Brightness    bool     `envconfig:"RADXFER_BRIGHTNESS" default:"true"`

	BeamFWHM    float64 `envconfig:"RADXFER_BEAM_FWHM" default:"0" validate:"gte=0,lt=10"` // [deg], 0 for a pencil beam
	BeamSamples int     `envconfig:"RADXFER_BEAM_SAMPLES" default:"16" validate:"min=1"`
	BeamSeed    uint64  `envconfig:"RADXFER_BEAM_SEED" default:"1"`

	Step float64 `envconfig:"RADXFER_STEP" default:"500" validate:"gt=0"` // path step [m]
}

// AtmosphereConfig describes the standard atmosphere profile.
type AtmosphereConfig struct {
	Top             float64   `envconfig:"RADXFER_TOA" default:"60e3" validate:"gt=0"`
	Levels          int       `envconfig:"RADXFER_LEVELS" default:"61" validate:"min=2"`
	SurfaceTemp     float64   `envconfig:"RADXFER_SURFACE_TEMPERATURE" default:"288.15" validate:"gt=0"`
	SurfacePressure float64   `envconfig:"RADXFER_SURFACE_PRESSURE" default:"101325" validate:"gt=0"`
	H2O             float64   `envconfig:"RADXFER_H2O_VMR" default:"0.01" validate:"gte=0,lt=0.1"` // at the surface
	Wind            []float64 `envconfig:"RADXFER_WIND" default:"0,0,0" validate:"len=3"`          // u, v, w [m/s]
	Mag             []float64 `envconfig:"RADXFER_MAG" default:"0,0,0" validate:"len=3"`           // u, v, w [T]
}

// SpectroscopyConfig selects line calculations and Jacobian targets.
type SpectroscopyConfig struct {
	Shape         string   `envconfig:"RADXFER_LINESHAPE" default:"VP" validate:"oneof=DP LP VP SDVP SDHCVP HTP"`
	Mirroring     string   `envconfig:"RADXFER_MIRRORING" default:"none" validate:"oneof=none lorentz same"`
	Normalization string   `envconfig:"RADXFER_NORMALIZATION" default:"none" validate:"oneof=none VVH VVW RQ"`
	Zeeman        bool     `envconfig:"RADXFER_ZEEMAN" default:"false"`
	FCut          float64  `envconfig:"RADXFER_FCUT" default:"0" validate:"gte=0"` // line offset cutoff [Hz], 0 for none
	Targets       []string `envconfig:"RADXFER_TARGETS" default:"temperature" validate:"dive,oneof=temperature pressure wind-u wind-v wind-w mag-u mag-v mag-w vmr-O2 vmr-H2O surface center strength"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrEnvFile indicates an explicitly named .env file could not be read.
	ErrEnvFile ConfigErrorType = "ENV_FILE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment variable value could not be
	// parsed into its field.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)

// ConfigError is returned by Load.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Level returns the slog level of LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Freqs returns FreqCount frequencies evenly spanning FreqLow to FreqHigh.
// A single frequency is the center of the span.
func (s *SensorConfig) Freqs() []float64 {
	if s.FreqCount == 1 {
		return []float64{(s.FreqLow + s.FreqHigh) / 2}
	}
	return floats.Span(make([]float64, s.FreqCount), s.FreqLow, s.FreqHigh)
}
