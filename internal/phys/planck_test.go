// Public domain.

package phys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/soniakeys/radxfer/internal/phys"
)

func TestPlanck(t *testing.T) {
	for _, f := range []float64{1e9, 118.75e9, 2e12} {
		for _, temp := range []float64{phys.CMB, 150, 300} {
			b := phys.Planck(f, temp)
			assert.InEpsilon(t, temp, phys.InvPlanck(f, b), 1e-12)

			s := &fd.Settings{Formula: fd.Central, Step: 1e-5 * temp}
			num := fd.Derivative(func(x float64) float64 { return phys.Planck(f, x) }, temp, s)
			assert.InEpsilon(t, num, phys.DPlanckDT(f, temp), 1e-6)

			s.Step = 1e-5 * b
			num = fd.Derivative(func(x float64) float64 { return phys.InvPlanck(f, x) }, b, s)
			assert.InEpsilon(t, num, phys.DInvPlanck(f, b), 1e-6)
		}
	}
	assert.Zero(t, phys.InvPlanck(1e11, 0))
	assert.Zero(t, phys.DInvPlanck(1e11, -1))
}

func TestRayleighJeans(t *testing.T) {
	// hf << kT
	f, temp := 1e8, 300.
	rj := 2 * f * f * phys.K * temp / (phys.C * phys.C)
	assert.InEpsilon(t, rj, phys.Planck(f, temp), 1e-4)
}
