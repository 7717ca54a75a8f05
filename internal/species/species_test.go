// Public domain.

package species_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/soniakeys/radxfer/internal/species"
)

func TestLookup(t *testing.T) {
	for i := range species.Table {
		iso := species.Isotope(i)
		got, ok := species.Lookup(iso.String())
		assert.True(t, ok)
		assert.Equal(t, iso, got)
	}
	_, ok := species.Lookup("XX-00")
	assert.False(t, ok)
	assert.Equal(t, "Isotope(99)", species.Isotope(99).String())
	assert.False(t, species.Isotope(-1).Valid())
}

func TestPartitionFunction(t *testing.T) {
	assert.Equal(t, 1., species.Bath.Q(250))
	assert.InDelta(t, 174.9, species.H2O_161.Q(296), .5)
	for i := 1; i < len(species.Table); i++ {
		iso := species.Isotope(i)
		num := fd.Derivative(iso.Q, 250, &fd.Settings{Formula: fd.Central, Step: 1e-3})
		assert.InEpsilon(t, num, iso.DQdT(250), 1e-6, iso.String())
	}
}

func TestMass(t *testing.T) {
	assert.InEpsilon(t, 5.3120e-26, species.O2_66.Mass(), 1e-4)
}
