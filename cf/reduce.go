package cf

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Result is the normalized output of a correlation run: per-bin correlation
// estimates together with the weighted mean coordinates of each bin. Bins
// with zero weight keep zero everywhere.
type Result struct {
	Np, Nt int

	Xi []float64
	We []float64

	Rp, Rt, Z []float64

	NPairs, NPairsUsed int64
	Clamped            int64
	EmptyObjects       int64
	EmptyPartitions    int64
}

// normalizeBy divides xs by we in place wherever we is positive. Applying
// it twice with the same weights after resetting them to one is a no-op,
// which is what makes merging already-merged results safe.
func normalizeBy(xs, we []float64) {
	for i := range xs {
		if we[i] > 0 {
			xs[i] /= we[i]
		}
	}
}

// MergeCorrelation folds the per-worker accumulators of a correlation run,
// in order, and normalizes the sums into a Result. The accumulators are
// consumed: accs[0] ends up holding the grand totals.
func MergeCorrelation(accs []*Accumulator) *Result {
	if len(accs) == 0 {
		panic("No accumulators to merge.")
	}

	total := accs[0]
	for _, acc := range accs[1:] {
		total.Join(acc)
	}

	n := total.Np * total.Nt
	r := &Result{
		Np: total.Np, Nt: total.Nt,
		Xi: make([]float64, n),
		We: make([]float64, n),
		Rp: make([]float64, n),
		Rt: make([]float64, n),
		Z:  make([]float64, n),

		NPairs:       total.NPairs,
		NPairsUsed:   total.NPairsUsed,
		Clamped:      total.Clamped,
		EmptyObjects: total.EmptyObjects,

		EmptyPartitions: total.EmptyPartitions,
	}

	copy(r.Xi, total.WDD)
	copy(r.We, total.We)
	copy(r.Rp, total.Rp)
	copy(r.Rt, total.Rt)
	copy(r.Z, total.Z)

	normalizeBy(r.Xi, r.We)
	normalizeBy(r.Rp, r.We)
	normalizeBy(r.Rt, r.We)
	normalizeBy(r.Z, r.We)

	return r
}

// DmatResult is the normalized distortion matrix of one absorber pair. Each
// row of Dm is divided by the observed-frame weight collected in that row's
// bin, so a row sums to the fraction of its weight that lands inside the
// shifted grid. The coordinate arrays are the weighted means of the shifted
// bins.
type DmatResult struct {
	Np, Nt   int
	Npm, Ntm int

	Dm *mat.Dense
	We []float64

	RpM, RtM, ZM []float64

	NPairs, NPairsUsed int64
	Clamped            int64
	EmptyObjects       int64
	EmptyPartitions    int64
}

// MergeDmat folds the per-worker accumulators of a distortion run and
// normalizes them. The accumulators are consumed.
func MergeDmat(accs []*DmatAccumulator) *DmatResult {
	if len(accs) == 0 {
		panic("No accumulators to merge.")
	}

	total := accs[0]
	for _, acc := range accs[1:] {
		total.Join(acc)
	}

	nObs := total.Np * total.Nt
	nShift := total.Npm * total.Ntm
	r := &DmatResult{
		Np: total.Np, Nt: total.Nt,
		Npm: total.Npm, Ntm: total.Ntm,

		Dm:  mat.NewDense(nObs, nShift, nil),
		We:  make([]float64, nObs),
		RpM: make([]float64, nShift),
		RtM: make([]float64, nShift),
		ZM:  make([]float64, nShift),

		NPairs:       total.NPairs,
		NPairsUsed:   total.NPairsUsed,
		Clamped:      total.Clamped,
		EmptyObjects: total.EmptyObjects,

		EmptyPartitions: total.EmptyPartitions,
	}

	copy(r.We, total.We)
	copy(r.RpM, total.RpM)
	copy(r.RtM, total.RtM)
	copy(r.ZM, total.ZM)

	r.Dm.Copy(total.Dm)
	for a := 0; a < nObs; a++ {
		if r.We[a] > 0 {
			floats.Scale(1/r.We[a], r.Dm.RawRowView(a))
		}
	}

	normalizeBy(r.RpM, total.WeM)
	normalizeBy(r.RtM, total.WeM)
	normalizeBy(r.ZM, total.WeM)

	return r
}

// WickResult is the normalized T123 covariance contribution. Co holds
// T123 divided by the outer product of the per-bin weights and scaled by
// the fraction of pairs that survived rejection, which undoes the
// subsampling in expectation.
type WickResult struct {
	Np, Nt int

	We []float64
	Co *mat.Dense

	NPairs, NPairsUsed int64
	Clamped            int64
	EmptyObjects       int64
	EmptyPartitions    int64
}

// MergeWick folds the per-worker accumulators of a covariance run and
// normalizes them. The accumulators are consumed.
func MergeWick(accs []*WickAccumulator) *WickResult {
	if len(accs) == 0 {
		panic("No accumulators to merge.")
	}

	total := accs[0]
	for _, acc := range accs[1:] {
		total.Join(acc)
	}

	n := total.Np * total.Nt
	r := &WickResult{
		Np: total.Np, Nt: total.Nt,
		We: make([]float64, n),
		Co: mat.NewDense(n, n, nil),

		NPairs:       total.NPairs,
		NPairsUsed:   total.NPairsUsed,
		Clamped:      total.Clamped,
		EmptyObjects: total.EmptyObjects,

		EmptyPartitions: total.EmptyPartitions,
	}

	copy(r.We, total.W123)
	r.Co.Copy(total.T123)

	scale := 0.0
	if total.NPairs > 0 {
		scale = float64(total.NPairsUsed) / float64(total.NPairs)
	}

	for a := 0; a < n; a++ {
		if r.We[a] <= 0 {
			continue
		}
		row := r.Co.RawRowView(a)
		for b := 0; b < n; b++ {
			if r.We[b] <= 0 {
				row[b] = 0
				continue
			}
			row[b] = row[b] / (r.We[a] * r.We[b]) * scale
		}
	}

	return r
}
