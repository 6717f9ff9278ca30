package cf

import (
	"fmt"
	"math"

	"github.com/HiramHerrera/picca/cosmo"
)

// smallAngleCutoff is the separation, in radians, below which the
// great-circle formula loses precision to the arccos of a cosine near 1 and
// a planar approximation is used instead. Two arcseconds.
const smallAngleCutoff = 2.0 / 3600.0 * math.Pi / 180.0

// Delta is one sight line: a sequence of field samples along one line of
// observation, each tagged with a log10 wavelength. The per-sample distance
// arrays are filled in by Attach once the run's absorber and cosmology are
// known; until then the object is position-only.
type Delta struct {
	// ID is unique within a run and defines the canonical pair ordering.
	ID int

	RA, Dec float64
	ZQSO    float64

	// Unit cartesian direction and cached cos(Dec), used by Angle.
	X, Y, Z, CosDec float64

	// Parallel sample arrays, always of equal length.
	LogLam []float64
	Val    []float64
	We     []float64

	// Derived per-sample arrays, parallel to the above. Zs holds the
	// absorber redshifts, RComov the radial and DM the transverse comoving
	// distances at those redshifts.
	Zs     []float64
	RComov []float64
	DM     []float64
}

// NewDelta creates a sight line from its angular position and sample
// arrays. The sample arrays must have equal lengths and non-negative
// weights; violations are ingestion bugs and panic.
func NewDelta(id int, ra, dec, zqso float64, ll, val, we []float64) *Delta {
	if len(ll) != len(val) || len(ll) != len(we) {
		panic("Sample arrays of unequal length.")
	}
	for i := range we {
		if we[i] < 0 {
			panic("Negative sample weight.")
		}
	}

	sinRA, cosRA := math.Sincos(ra)
	sinDec, cosDec := math.Sincos(dec)

	return &Delta{
		ID: id, RA: ra, Dec: dec, ZQSO: zqso,
		X: cosRA * cosDec, Y: sinRA * cosDec, Z: sinDec, CosDec: cosDec,
		LogLam: ll, Val: val, We: we,
	}
}

// Len returns the number of samples.
func (d *Delta) Len() int { return len(d.LogLam) }

// AbsorberZ returns the redshift of sample i under an absorber with the
// given rest wavelength.
func (d *Delta) AbsorberZ(i int, lambdaAbs float64) float64 {
	return math.Pow(10, d.LogLam[i])/lambdaAbs - 1
}

// Attach fills the derived distance arrays for the given absorber rest
// wavelength and scales the sample weights by the redshift evolution factor
// ((1+z)/(1+zRef))^(alpha-1). It must be called exactly once per Delta
// before the object enters an engine. A sample whose absorber redshift
// falls outside the cosmology's distance table is a data error, not a bug,
// and is reported instead of panicking inside the table lookup.
func (d *Delta) Attach(lambdaAbs, zRef, alpha float64, c *cosmo.Cosmo) error {
	n := d.Len()
	d.Zs = make([]float64, n)
	d.RComov = make([]float64, n)
	d.DM = make([]float64, n)

	for i := 0; i < n; i++ {
		z := d.AbsorberZ(i, lambdaAbs)
		if z < 0 || z > c.ZMax() {
			return fmt.Errorf(
				"Sample %d of object %d sits at redshift %g for the "+
					"absorber at %g A, which is outside the tabulated "+
					"range [0, %g].", i, d.ID, z, lambdaAbs, c.ZMax())
		}
		d.Zs[i] = z
		d.RComov[i] = c.RComov(z)
		d.DM[i] = c.DM(z)
		d.We[i] *= math.Pow((1+z)/(1+zRef), alpha-1)
	}
	return nil
}

// shifted returns derived arrays for a secondary absorber without touching
// the Delta itself: redshifts, distances, and the evolution reweighting
// that moves a weight from the primary absorber's frame to this one.
func (d *Delta) shifted(
	lambdaAbs, zRef, alphaShift float64, c *cosmo.Cosmo,
) (zs, rComov, dm, zw []float64, err error) {

	n := d.Len()
	zs = make([]float64, n)
	rComov = make([]float64, n)
	dm = make([]float64, n)
	zw = make([]float64, n)

	for i := 0; i < n; i++ {
		z := d.AbsorberZ(i, lambdaAbs)
		if z < 0 || z > c.ZMax() {
			return nil, nil, nil, nil, fmt.Errorf(
				"Sample %d of object %d sits at redshift %g for the "+
					"absorber at %g A, which is outside the tabulated "+
					"range [0, %g].", i, d.ID, z, lambdaAbs, c.ZMax())
		}
		zs[i] = z
		rComov[i] = c.RComov(z)
		dm[i] = c.DM(z)
		zw[i] = math.Pow((1+z)/(1+zRef), alphaShift-1)
	}
	return zs, rComov, dm, zw, nil
}

// Angle returns the angular separation between two sight lines in radians.
// The cosine is clamped to [-1, 1] before the arccos; clamped reports
// whether that was needed, so callers can surface a diagnostic count
// instead of letting the precision loss turn into a NaN. For separations
// below smallAngleCutoff a planar approximation in (dDec, cosDec*dRA) is
// used instead of the arccos.
func (d *Delta) Angle(o *Delta) (ang float64, clamped bool) {
	dRA, dDec := o.RA-d.RA, o.Dec-d.Dec
	if math.Abs(dRA) < smallAngleCutoff && math.Abs(dDec) < smallAngleCutoff {
		x := d.CosDec * dRA
		return math.Sqrt(dDec*dDec + x*x), false
	}

	cos := d.X*o.X + d.Y*o.Y + d.Z*o.Z
	if cos > 1 {
		return 0, true
	} else if cos < -1 {
		return math.Pi, true
	}
	return math.Acos(cos), false
}

// angle is the same great-circle formula for bare coordinate pairs. Used
// for healpix cell centers, where no Delta exists.
func angle(ra1, dec1, ra2, dec2 float64) float64 {
	sin1, cos1 := math.Sincos(dec1)
	sin2, cos2 := math.Sincos(dec2)

	cos := sin1*sin2 + cos1*cos2*math.Cos(ra1-ra2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}
