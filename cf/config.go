/*package cf computes two-point statistics over catalogs of sight lines
binned on the sphere: the forest auto-correlation, metal-contamination
distortion matrices, and the Wick (T123) covariance of the correlation
estimator.

The engine partitions objects into healpix cells, restricts the pair search
of each cell to the cells within reach of the configured transverse cutoff,
and bins every surviving pair into fixed-width (r parallel, r transverse)
histograms. Partitions are processed in parallel by workers that own their
accumulators outright; partial results are folded once all workers finish.
*/
package cf

import (
	"fmt"
)

// AbsorberIGM maps absorption-line names to their rest-frame wavelengths in
// Angstroms. LYA is the primary transition; the rest are the metal lines
// commonly strong enough to contaminate it.
var AbsorberIGM = map[string]float64{
	"LYA":          1215.67,
	"LYB":          1025.72,
	"SiII(1260)":   1260.4221,
	"SiIII(1207)":  1206.50,
	"SiII(1193)":   1193.2897,
	"SiII(1190)":   1190.4158,
	"CIV(1548)":    1548.2049,
	"CIV(1550)":    1550.77845,
	"MgII(2796)":   2796.3511,
	"MgII(2803)":   2803.5324,
}

// Config collects every run-level parameter of the pair engine. It is
// treated as immutable once handed to NewEngine: nothing in this package
// writes to it, and a single Config may back any number of engines.
type Config struct {
	// Bin grid. Separations live in [0, RpMax) x [0, RtMax), split into
	// Np x Nt fixed-width bins.
	RpMax, RtMax float64
	Np, Nt       int

	// Absorber rest wavelength defining the per-sample redshifts, in
	// Angstroms.
	LambdaAbs float64

	// Redshift evolution of the field: weights are scaled by
	// ((1+z)/(1+ZRef))^(Alpha-1) when samples are attached to an absorber.
	ZRef, Alpha float64

	// Pairs whose mean redshift falls outside [ZCutMin, ZCutMax) are
	// discarded.
	ZCutMin, ZCutMax float64

	// Stochastic pair rejection: -1 keeps every pair, 1 drops every pair,
	// values in (0, 1) keep each pair with probability 1-Rej.
	Rej float64

	// Healpix resolution of the spatial partition. Zero selects the
	// resolution automatically from the catalog size.
	Nside int

	// SameType indicates that the reference and neighbor catalogs are the
	// same set of objects. Same-type runs pair a reference object only
	// against neighbors with a strictly greater id so that no pair is
	// counted twice; different-type runs pair against the full
	// neighborhood.
	SameType bool

	// Base seed of the per-partition random generators. Partition p uses
	// Seed0 + p, so a run is reproducible for a fixed partitioning.
	Seed0 uint64
}

// Validate returns an error describing the first invalid field, or nil.
func (c *Config) Validate() error {
	switch {
	case c.RpMax <= 0:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"RpMax", c.RpMax)
	case c.RtMax <= 0:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"RtMax", c.RtMax)
	case c.Np <= 0:
		return fmt.Errorf("The variable '%s' was set to %d.", "Np", c.Np)
	case c.Nt <= 0:
		return fmt.Errorf("The variable '%s' was set to %d.", "Nt", c.Nt)
	case c.LambdaAbs <= 0:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"LambdaAbs", c.LambdaAbs)
	case c.ZRef < 0:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"ZRef", c.ZRef)
	case c.ZCutMax <= c.ZCutMin:
		return fmt.Errorf("The variable '%s' was set to %g, but the "+
			"variable '%s' was set to %g.", "ZCutMin", c.ZCutMin,
			"ZCutMax", c.ZCutMax)
	case c.Nside < 0:
		return fmt.Errorf("The variable '%s' was set to %d.",
			"Nside", c.Nside)
	case c.Nside > 0 && c.Nside&(c.Nside-1) != 0:
		return fmt.Errorf("The variable '%s' was set to %d, which is "+
			"not a power of two.", "Nside", c.Nside)
	}

	if c.Rej != -1 && (c.Rej < 0 || c.Rej > 1) {
		return fmt.Errorf("The variable '%s' was set to %g, but it must "+
			"be -1 or lie in [0, 1].", "Rej", c.Rej)
	}

	return nil
}

// binIndex maps a separation pair onto the flattened bin grid, or -1 when
// the pair falls outside it. Intervals are half open: a pair exactly at
// RpMax or RtMax is out.
func (c *Config) binIndex(rp, rt float64) int {
	if rp < 0 || rp >= c.RpMax || rt < 0 || rt >= c.RtMax {
		return -1
	}
	bp := int(rp / c.RpMax * float64(c.Np))
	bt := int(rt / c.RtMax * float64(c.Nt))
	return bt + c.Nt*bp
}
