/*package cosmo converts redshifts into comoving distances for a flat LCDM
cosmology. Distances are returned in Mpc/h, the convention used throughout
the correlation code.*/
package cosmo

import (
	"fmt"
	"math"

	"github.com/HiramHerrera/picca/math/interpolate"
)

const (
	// c/H0 in units of Mpc/h, with H0 = 100 h km/s/Mpc.
	hubbleDistance = 2997.92458

	// Tabulation grid for the comoving distance integral.
	zGridMax  = 10.0
	zGridBins = 10000
)

// HubbleFrac calculates h(z) = H(z)/H0 = sqrt(OmegaM (1+z)^3 + OmegaL).
// Assumes a flat cosmology with negligible radiation.
func HubbleFrac(omegaM, omegaL, z float64) float64 {
	return math.Sqrt(omegaM*math.Pow(1.0+z, 3.0) + omegaL)
}

// Cosmo evaluates comoving distances for a fixed flat LCDM cosmology. The
// distance integral is tabulated once at construction, so lookups are cheap
// and safe to share between goroutines.
type Cosmo struct {
	omegaM, omegaL float64
	rComov         *interpolate.Linear
}

// New creates a Cosmo for the given matter density. Returns an error if
// omegaM is outside (0, 1].
func New(omegaM float64) (*Cosmo, error) {
	if omegaM <= 0 || omegaM > 1 {
		return nil, fmt.Errorf(
			"The matter density OmegaM was set to %g, but it must be in "+
				"the range (0, 1].", omegaM,
		)
	}

	omegaL := 1 - omegaM
	dz := zGridMax / zGridBins

	// Trapezoid rule on dr/dz = (c/H0) / h(z).
	rs := make([]float64, zGridBins+1)
	prev := hubbleDistance / HubbleFrac(omegaM, omegaL, 0)
	for i := 1; i <= zGridBins; i++ {
		z := float64(i) * dz
		cur := hubbleDistance / HubbleFrac(omegaM, omegaL, z)
		rs[i] = rs[i-1] + (prev+cur)*dz/2
		prev = cur
	}

	for i := 1; i <= zGridBins; i++ {
		if rs[i] <= rs[i-1] {
			return nil, fmt.Errorf(
				"The comoving distance table is not monotonic at z = %g. "+
					"This indicates an invalid cosmology.", float64(i)*dz,
			)
		}
	}

	return &Cosmo{
		omegaM: omegaM,
		omegaL: omegaL,
		rComov: interpolate.NewUniformLinear(0, dz, rs),
	}, nil
}

// ZMax returns the upper edge of the tabulated redshift range. Callers must
// keep their lookups inside [0, ZMax].
func (c *Cosmo) ZMax() float64 { return zGridMax }

// RComov returns the radial comoving distance to redshift z in Mpc/h.
// Panics if z is negative or beyond the tabulated range.
func (c *Cosmo) RComov(z float64) float64 {
	return c.rComov.Eval(z)
}

// DM returns the transverse comoving (comoving angular diameter) distance to
// redshift z in Mpc/h. For the flat cosmologies supported here it equals
// RComov, but callers that care about the distinction should use this method.
func (c *Cosmo) DM(z float64) float64 {
	return c.rComov.Eval(z)
}
