// Public domain.

// Package phys holds the physical constants used throughout radxfer, in SI
// units, CODATA 2018 values.
package phys

const (
	C     = 299792458.0       // speed of light [m/s]
	H     = 6.62607015e-34    // Planck constant [J s]
	K     = 1.380649e-23      // Boltzmann constant [J/K]
	AMU   = 1.66053906660e-27 // atomic mass constant [kg]
	BohrM = 9.2740100783e-24  // Bohr magneton [J/T]

	Ln2    = 0.693147180559945309417232121458176568
	SqrtPi = 1.77245385090551602729816748334114518
	InvPi  = 0.318309886183790671537767526745028724

	// CMB is the cosmic microwave background temperature [K].
	CMB = 2.7255
)
