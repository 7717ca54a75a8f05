// Public domain.

// Package rxerr defines the error type shared by radxfer packages.
//
// Errors carry a Code so callers can distinguish bad input configuration
// from degenerate geometry without matching on message text.
package rxerr

import "fmt"

// Code categorizes an Error.
type Code string

const (
	// CodeConfiguration marks inputs that are inconsistent with each other,
	// for example a Zeeman calculation requested with fewer than four
	// Stokes components or a quantum number vector of the wrong length.
	CodeConfiguration Code = "configuration"
	// CodeGeometry marks a degenerate ray or path request.
	CodeGeometry Code = "geometry"
)

// Error is the concrete error type returned by radxfer packages.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against the code-only sentinels ErrConfiguration and
// ErrGeometry, so errors.Is(err, rxerr.ErrConfiguration) holds for any
// configuration error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return t.Code == e.Code
	}
	return t == e
}

// Code-only sentinels for use with errors.Is.
var (
	ErrConfiguration = &Error{Code: CodeConfiguration}
	ErrGeometry      = &Error{Code: CodeGeometry}
)

// ErrGeometryDegenerate is returned by path tracing for a zero step length.
var ErrGeometryDegenerate = &Error{
	Code:    CodeGeometry,
	Message: "path step length must be non-zero",
}

// Configf returns a configuration error with a formatted message.
func Configf(format string, a ...interface{}) *Error {
	return &Error{Code: CodeConfiguration, Message: fmt.Sprintf(format, a...)}
}

// Config wraps err as a configuration error.
func Config(msg string, err error) *Error {
	return &Error{Code: CodeConfiguration, Message: msg, Err: err}
}
