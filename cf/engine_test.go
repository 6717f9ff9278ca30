package cf

import (
	"math"
	"testing"

	"github.com/HiramHerrera/picca/cosmo"
	"github.com/HiramHerrera/picca/math/interpolate"
)

var cachedCosmo *cosmo.Cosmo

func testCosmo(t *testing.T) *cosmo.Cosmo {
	if cachedCosmo == nil {
		c, err := cosmo.New(0.315)
		if err != nil {
			t.Fatalf("Could not create test cosmology: %s", err)
		}
		cachedCosmo = c
	}
	return cachedCosmo
}

func testConfig() *Config {
	return &Config{
		RpMax: 200, RtMax: 200, Np: 20, Nt: 20,
		LambdaAbs: AbsorberIGM["LYA"],
		ZRef:      2.25, Alpha: 1,
		ZCutMin: 0, ZCutMax: 10,
		Rej:   -1,
		Nside: 8, SameType: true, Seed0: 42,
	}
}

// testCatalog builds a fresh patch of sight lines tight enough that most
// sample pairs land inside the default grid. Engines mutate their deltas,
// so every engine gets its own copy.
func testCatalog(n int) []*Delta {
	lya := AbsorberIGM["LYA"]

	ds := make([]*Delta, n)
	for k := 0; k < n; k++ {
		ra := 1.0 + 0.005*float64(k%5)
		dec := 0.5 + 0.005*float64(k/5)
		z0 := 2.0 + 0.01*float64(k%7)

		ll := []float64{
			logLamAt(z0, lya),
			logLamAt(z0+0.03, lya),
			logLamAt(z0+0.06, lya),
		}
		val := []float64{0.1 + 0.01*float64(k), -0.2, 0.05 * float64(k%3)}
		we := []float64{1, 0.5 + 0.1*float64(k%4), 2}

		ds[k] = NewDelta(k+1, ra, dec, 3.5, ll, val, we)
	}
	return ds
}

func coincidentPair() []*Delta {
	lya := AbsorberIGM["LYA"]
	ll := []float64{logLamAt(2.0, lya)}
	return []*Delta{
		NewDelta(1, 1.0, 0.5, 3, ll, []float64{5}, []float64{2}),
		NewDelta(2, 1.0, 0.5, 3, ll, []float64{7}, []float64{3}),
	}
}

func TestCoincidentPair(t *testing.T) {
	e, err := NewEngine(testConfig(), coincidentPair(), testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}

	r := MergeCorrelation(e.Correlate(1))

	if r.NPairs != 1 || r.NPairsUsed != 1 {
		t.Errorf("Expected 1 pair, 1 used. Got %d, %d.",
			r.NPairs, r.NPairsUsed)
	}
	if !almostEq(r.We[0], 6, 1e-12) {
		t.Errorf("Expected weight 6 in bin 0. Got %g.", r.We[0])
	}
	if !almostEq(r.Xi[0], 35, 1e-12) {
		t.Errorf("Expected correlation 210/6 in bin 0. Got %g.", r.Xi[0])
	}
	if !almostEq(r.Rp[0], 0, 1e-12) || !almostEq(r.Rt[0], 0, 1e-12) {
		t.Errorf("Expected zero mean separations. Got (%g, %g).",
			r.Rp[0], r.Rt[0])
	}
	if !almostEq(r.Z[0], 2, 1e-10) {
		t.Errorf("Expected mean redshift 2 in bin 0. Got %g.", r.Z[0])
	}

	for bin := 1; bin < len(r.We); bin++ {
		if r.We[bin] != 0 {
			t.Errorf("Expected empty bin %d. Got weight %g.",
				bin, r.We[bin])
		}
	}
}

func TestPairBeyondRpMax(t *testing.T) {
	lya := AbsorberIGM["LYA"]
	ds := []*Delta{
		NewDelta(1, 1.0, 0.5, 4,
			[]float64{logLamAt(2.0, lya)}, []float64{5}, []float64{2}),
		NewDelta(2, 1.0, 0.5, 4,
			[]float64{logLamAt(3.0, lya)}, []float64{7}, []float64{3}),
	}

	e, err := NewEngine(testConfig(), ds, testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}
	r := MergeCorrelation(e.Correlate(1))

	if r.NPairs != 1 {
		t.Errorf("Expected the pair to be counted. Got %d.", r.NPairs)
	}
	if r.NPairsUsed != 0 {
		t.Errorf("Expected no pair used. Got %d.", r.NPairsUsed)
	}
	for bin := range r.We {
		if r.We[bin] != 0 {
			t.Errorf("Expected empty bin %d. Got weight %g.",
				bin, r.We[bin])
		}
	}
}

func TestZeroWeightPair(t *testing.T) {
	lya := AbsorberIGM["LYA"]
	ll := []float64{logLamAt(2.0, lya)}
	ds := []*Delta{
		NewDelta(1, 1.0, 0.5, 3, ll, []float64{5}, []float64{0}),
		NewDelta(2, 1.0, 0.5, 3, ll, []float64{7}, []float64{3}),
	}

	e, err := NewEngine(testConfig(), ds, testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}
	r := MergeCorrelation(e.Correlate(1))

	if r.We[0] != 0 || r.Xi[0] != 0 {
		t.Errorf("Expected zero sums from a zero-weight pair. "+
			"Got weight %g, correlation %g.", r.We[0], r.Xi[0])
	}
}

// bruteForce bins every unordered object pair directly, with no spatial
// index and no angular pruning. The engine must agree with it exactly up
// to summation order: any pair the index prunes is guaranteed to fall
// outside the transverse cutoff.
func bruteForce(cfg *Config, ds []*Delta) *Accumulator {
	acc := NewAccumulator(cfg.Np, cfg.Nt)
	for i := range ds {
		for j := i + 1; j < len(ds); j++ {
			d1, d2 := ds[i], ds[j]
			ang, _ := d1.Angle(d2)
			sinHalf := math.Sin(ang / 2)

			for a := 0; a < d1.Len(); a++ {
				for b := 0; b < d2.Len(); b++ {
					rp := math.Abs(d1.RComov[a] - d2.RComov[b])
					rt := (d1.DM[a] + d2.DM[b]) * sinHalf
					bin := cfg.binIndex(rp, rt)
					if bin == -1 {
						continue
					}
					zPair := (d1.Zs[a] + d2.Zs[b]) / 2
					if zPair < cfg.ZCutMin || zPair >= cfg.ZCutMax {
						continue
					}

					w12 := d1.We[a] * d2.We[b]
					acc.WDD[bin] += w12 * d1.Val[a] * d2.Val[b]
					acc.We[bin] += w12
					acc.Rp[bin] += rp * w12
					acc.Rt[bin] += rt * w12
					acc.Z[bin] += zPair * w12
					acc.NPairsUsed++
				}
			}
		}
	}
	return acc
}

func TestSymmetryAgainstBruteForce(t *testing.T) {
	cfg := testConfig()
	c := testCosmo(t)

	e, err := NewEngine(cfg, testCatalog(20), c)
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}
	r := MergeCorrelation(e.Correlate(3))

	// A second copy, attached by hand, for the reference sums.
	ref := testCatalog(20)
	for _, d := range ref {
		if err := d.Attach(cfg.LambdaAbs, cfg.ZRef, cfg.Alpha, c); err != nil {
			t.Fatalf("Could not attach reference catalog: %s", err)
		}
	}
	bf := bruteForce(cfg, ref)

	if r.NPairsUsed != bf.NPairsUsed {
		t.Errorf("Expected %d pairs used. Got %d.",
			bf.NPairsUsed, r.NPairsUsed)
	}
	if !sliceAlmostEq(r.We, bf.We, 1e-8) {
		t.Errorf("Weight sums disagree with the brute-force reference.")
	}

	normalizeBy(bf.WDD, bf.We)
	normalizeBy(bf.Rp, bf.We)
	normalizeBy(bf.Rt, bf.We)
	normalizeBy(bf.Z, bf.We)

	if !sliceAlmostEq(r.Xi, bf.WDD, 1e-8) {
		t.Errorf("Correlations disagree with the brute-force reference.")
	}
	if !sliceAlmostEq(r.Rp, bf.Rp, 1e-8) ||
		!sliceAlmostEq(r.Rt, bf.Rt, 1e-8) {
		t.Errorf("Mean separations disagree with the brute-force " +
			"reference.")
	}
}

func relSliceEq(xs, ys []float64, tol float64) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		scale := math.Abs(xs[i])
		if scale < 1 {
			scale = 1
		}
		if math.Abs(xs[i]-ys[i]) > tol*scale {
			return false
		}
	}
	return true
}

func TestPartitionInvariance(t *testing.T) {
	var results []*Result
	for _, nside := range []int{1, 4, 16} {
		cfg := testConfig()
		cfg.Nside = nside

		e, err := NewEngine(cfg, testCatalog(25), testCosmo(t))
		if err != nil {
			t.Fatalf("Could not create engine at nside %d: %s", nside, err)
		}
		results = append(results, MergeCorrelation(e.Correlate(2)))
	}

	for i := 1; i < len(results); i++ {
		r0, r := results[0], results[i]
		if r0.NPairs != r.NPairs || r0.NPairsUsed != r.NPairsUsed {
			t.Errorf("%d) Expected pair counts (%d, %d). Got (%d, %d).",
				i, r0.NPairs, r0.NPairsUsed, r.NPairs, r.NPairsUsed)
		}
		if !relSliceEq(r0.We, r.We, 1e-10) ||
			!relSliceEq(r0.Xi, r.Xi, 1e-10) ||
			!relSliceEq(r0.Rp, r.Rp, 1e-10) ||
			!relSliceEq(r0.Rt, r.Rt, 1e-10) ||
			!relSliceEq(r0.Z, r.Z, 1e-10) {
			t.Errorf("%d) Partitioning changed the merged histograms.", i)
		}
	}
}

func TestWorkerInvarianceWithRejection(t *testing.T) {
	run := func(workers int) *Result {
		cfg := testConfig()
		cfg.Rej = 0.5

		e, err := NewEngine(cfg, testCatalog(25), testCosmo(t))
		if err != nil {
			t.Fatalf("Could not create engine: %s", err)
		}
		return MergeCorrelation(e.Correlate(workers))
	}

	r1, r4 := run(1), run(4)

	// Rejection draws are seeded per partition, so the kept pair set is
	// identical no matter how partitions are spread over workers.
	if r1.NPairsUsed != r4.NPairsUsed {
		t.Errorf("Expected %d pairs used with 4 workers. Got %d.",
			r1.NPairsUsed, r4.NPairsUsed)
	}
	if !relSliceEq(r1.We, r4.We, 1e-12) ||
		!relSliceEq(r1.Xi, r4.Xi, 1e-12) {
		t.Errorf("Worker count changed the merged histograms.")
	}
}

func TestRejectionBounds(t *testing.T) {
	run := func(rej float64) *Result {
		cfg := testConfig()
		cfg.Rej = rej

		e, err := NewEngine(cfg, testCatalog(30), testCosmo(t))
		if err != nil {
			t.Fatalf("Could not create engine: %s", err)
		}
		return MergeCorrelation(e.Correlate(2))
	}

	keepAll := run(-1)
	if keepAll.NPairsUsed == 0 {
		t.Fatalf("Expected the test catalog to produce in-range pairs.")
	}

	zero := run(0)
	if zero.NPairsUsed != keepAll.NPairsUsed {
		t.Errorf("Expected a rejection of 0 to keep all %d pairs. Got %d.",
			keepAll.NPairsUsed, zero.NPairsUsed)
	}

	none := run(1)
	if none.NPairsUsed != 0 {
		t.Errorf("Expected a rejection of 1 to keep no pairs. Got %d.",
			none.NPairsUsed)
	}
	if none.NPairs != keepAll.NPairs {
		t.Errorf("Expected rejection to leave the pair count at %d. "+
			"Got %d.", keepAll.NPairs, none.NPairs)
	}

	half := run(0.5)
	frac := float64(half.NPairsUsed) / float64(keepAll.NPairsUsed)
	if frac < 0.3 || frac > 0.7 {
		t.Errorf("Expected a rejection of 0.5 to keep roughly half the "+
			"pairs. Got a fraction of %g.", frac)
	}
}

func TestNormalizationIdempotence(t *testing.T) {
	e, err := NewEngine(testConfig(), testCatalog(15), testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}
	r := MergeCorrelation(e.Correlate(1))

	unit := make([]float64, len(r.We))
	for i := range unit {
		if r.We[i] > 0 {
			unit[i] = 1
		}
	}

	again := make([]float64, len(r.Xi))
	copy(again, r.Xi)
	normalizeBy(again, unit)

	for i := range again {
		if again[i] != r.Xi[i] {
			t.Errorf("Expected renormalization to be a no-op at bin %d. "+
				"Got %g instead of %g.", i, again[i], r.Xi[i])
		}
	}
}

func TestDistortIdentityAbsorber(t *testing.T) {
	e, err := NewEngine(testConfig(), testCatalog(15), testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}

	// Shifting with the same absorber and a flat evolution maps every pair
	// onto its own bin, so the normalized matrix must be the identity on
	// the occupied rows.
	accs, err := e.Distort("LYA", "LYA", 1.0, 2)
	if err != nil {
		t.Fatalf("Could not run distortion: %s", err)
	}
	r := MergeDmat(accs)

	n := r.Np * r.Nt
	occupied := 0
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			want := 0.0
			if a == b && r.We[a] > 0 {
				want = 1
			}
			if !almostEq(r.Dm.At(a, b), want, 1e-12) {
				t.Errorf("Expected %g at (%d, %d). Got %g.",
					want, a, b, r.Dm.At(a, b))
			}
		}
		if r.We[a] > 0 {
			occupied++
		}
	}
	if occupied == 0 {
		t.Fatalf("Expected the test catalog to occupy bins.")
	}
}

func TestDistortUnknownAbsorber(t *testing.T) {
	e, err := NewEngine(testConfig(), testCatalog(5), testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}
	if _, err := e.Distort("LYA", "NotALine", 1.0, 1); err == nil {
		t.Errorf("Expected an error for an unknown absorber. Got none.")
	}
}

func TestDistortRedshiftOutOfRange(t *testing.T) {
	// The sample attaches fine under the primary line, but the shorter rest
	// wavelength of the secondary pushes its redshift past the end of the
	// distance table.
	lya := AbsorberIGM["LYA"]
	d := NewDelta(1, 1, 0.5, 10.5,
		[]float64{logLamAt(9.9, lya)}, []float64{1}, []float64{1})

	e, err := NewEngine(testConfig(), []*Delta{d}, testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}
	if _, err := e.Distort("LYA", "SiII(1190)", 1.0, 1); err == nil {
		t.Errorf("Expected an error for a shifted redshift beyond the " +
			"distance table. Got none.")
	}
}

func TestWickCoincidentPair(t *testing.T) {
	e, err := NewEngine(testConfig(), coincidentPair(), testCosmo(t))
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}

	v1d := interpolate.NewNearest(
		[]float64{3.0, 3.9}, []float64{0.25, 0.25})
	c1d := interpolate.NewNearest(
		[]float64{0, 0.5}, []float64{0.1, 0.1})

	r := MergeWick(e.Wick(v1d, c1d, 1))

	if r.NPairs != 1 || r.NPairsUsed != 1 {
		t.Errorf("Expected 1 pair, 1 used. Got %d, %d.",
			r.NPairs, r.NPairsUsed)
	}
	if !almostEq(r.We[0], 6, 1e-12) {
		t.Errorf("Expected pair weight 6 in bin 0. Got %g.", r.We[0])
	}

	// A single pair paired with itself reduces to the 1D variance.
	if !almostEq(r.Co.At(0, 0), 0.25, 1e-12) {
		t.Errorf("Expected covariance 0.25 at (0, 0). Got %g.",
			r.Co.At(0, 0))
	}
}

func TestNewEngineErrors(t *testing.T) {
	c := testCosmo(t)
	lya := AbsorberIGM["LYA"]
	ll := []float64{logLamAt(2.0, lya)}

	bad := testConfig()
	bad.Np = 0
	if _, err := NewEngine(bad, coincidentPair(), c); err == nil {
		t.Errorf("Expected an error for an invalid config. Got none.")
	}

	if _, err := NewEngine(testConfig(), coincidentPair(), nil); err == nil {
		t.Errorf("Expected an error for a missing cosmology. Got none.")
	}

	dup := []*Delta{
		NewDelta(1, 1.0, 0.5, 3, ll, []float64{1}, []float64{1}),
		NewDelta(1, 1.1, 0.5, 3, ll, []float64{1}, []float64{1}),
	}
	if _, err := NewEngine(testConfig(), dup, c); err == nil {
		t.Errorf("Expected an error for duplicate ids. Got none.")
	}

	empty := []*Delta{NewDelta(1, 1.0, 0.5, 3, nil, nil, nil)}
	if _, err := NewEngine(testConfig(), empty, c); err == nil {
		t.Errorf("Expected an error for an empty catalog. Got none.")
	}
}

func TestEngineDiagnostics(t *testing.T) {
	c := testCosmo(t)
	ds := append(testCatalog(4),
		NewDelta(100, 1.0, 0.5, 3, nil, nil, nil))

	cfg := testConfig()
	cfg.Nside = 0
	e, err := NewEngine(cfg, ds, c)
	if err != nil {
		t.Fatalf("Could not create engine: %s", err)
	}

	if e.Skipped() != 1 {
		t.Errorf("Expected 1 skipped object. Got %d.", e.Skipped())
	}
	if e.Nside() != 1 {
		t.Errorf("Expected an automatic nside of 1 for a tiny catalog. "+
			"Got %d.", e.Nside())
	}

	e.Correlate(2)
	if e.Progress() != int64(e.Partitions()) {
		t.Errorf("Expected progress %d after the run. Got %d.",
			e.Partitions(), e.Progress())
	}
}
