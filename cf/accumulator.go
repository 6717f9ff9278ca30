package cf

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Accumulator is the tensor bundle one worker fills while binning
// correlation pairs. Every histogram shares the flattened (Np x Nt) bin
// layout of Config.binIndex. An accumulator is owned by exactly one worker
// until it is folded, so none of its methods lock.
type Accumulator struct {
	Np, Nt int

	// Weighted sum of value products, and the weight sum that later
	// normalizes it.
	WDD []float64
	We  []float64

	// Weighted coordinate sums, for the mean-coordinate outputs.
	Rp, Rt, Z []float64

	// Pair counters: every geometric candidate, and the survivors of the
	// separation, redshift-window and rejection cuts.
	NPairs, NPairsUsed int64

	// Diagnostics. Clamped counts cosines nudged back into [-1, 1];
	// EmptyObjects counts reference objects with no usable neighbor;
	// EmptyPartitions counts partitions where every object was empty.
	Clamped         int64
	EmptyObjects    int64
	EmptyPartitions int64
}

// NewAccumulator creates a zeroed accumulator over an Np x Nt bin grid.
func NewAccumulator(np, nt int) *Accumulator {
	n := np * nt
	return &Accumulator{
		Np: np, Nt: nt,
		WDD: make([]float64, n),
		We:  make([]float64, n),
		Rp:  make([]float64, n),
		Rt:  make([]float64, n),
		Z:   make([]float64, n),
	}
}

// Join folds acc2 into acc. The two accumulators must share a bin grid.
func (acc *Accumulator) Join(acc2 *Accumulator) {
	if acc.Np != acc2.Np || acc.Nt != acc2.Nt {
		panic("Accumulator bin grids do not match.")
	}

	floats.Add(acc.WDD, acc2.WDD)
	floats.Add(acc.We, acc2.We)
	floats.Add(acc.Rp, acc2.Rp)
	floats.Add(acc.Rt, acc2.Rt)
	floats.Add(acc.Z, acc2.Z)

	acc.NPairs += acc2.NPairs
	acc.NPairsUsed += acc2.NPairsUsed
	acc.Clamped += acc2.Clamped
	acc.EmptyObjects += acc2.EmptyObjects
	acc.EmptyPartitions += acc2.EmptyPartitions
}

// DmatAccumulator is the distortion-matrix analog of Accumulator. Dm maps
// the unshifted ("observed") bin of a pair to its shifted ("true") bin
// under a secondary absorber; We holds the observed-frame weight sums that
// normalize the rows. The shifted-frame coordinate sums live on the
// columns' grid (Npm x Ntm).
type DmatAccumulator struct {
	Np, Nt   int
	Npm, Ntm int

	We []float64
	Dm *mat.Dense

	RpM, RtM, ZM, WeM []float64

	NPairs, NPairsUsed int64
	Clamped            int64
	EmptyObjects       int64
	EmptyPartitions    int64
}

// NewDmatAccumulator creates a zeroed distortion accumulator with an
// (Np x Nt) observed grid and an (Npm x Ntm) shifted grid.
func NewDmatAccumulator(np, nt, npm, ntm int) *DmatAccumulator {
	return &DmatAccumulator{
		Np: np, Nt: nt, Npm: npm, Ntm: ntm,
		We:  make([]float64, np*nt),
		Dm:  mat.NewDense(np*nt, npm*ntm, nil),
		RpM: make([]float64, npm*ntm),
		RtM: make([]float64, npm*ntm),
		ZM:  make([]float64, npm*ntm),
		WeM: make([]float64, npm*ntm),
	}
}

// Join folds acc2 into acc.
func (acc *DmatAccumulator) Join(acc2 *DmatAccumulator) {
	if acc.Np != acc2.Np || acc.Nt != acc2.Nt ||
		acc.Npm != acc2.Npm || acc.Ntm != acc2.Ntm {
		panic("Accumulator bin grids do not match.")
	}

	floats.Add(acc.We, acc2.We)
	acc.Dm.Add(acc.Dm, acc2.Dm)
	floats.Add(acc.RpM, acc2.RpM)
	floats.Add(acc.RtM, acc2.RtM)
	floats.Add(acc.ZM, acc2.ZM)
	floats.Add(acc.WeM, acc2.WeM)

	acc.NPairs += acc2.NPairs
	acc.NPairsUsed += acc2.NPairsUsed
	acc.Clamped += acc2.Clamped
	acc.EmptyObjects += acc2.EmptyObjects
	acc.EmptyPartitions += acc2.EmptyPartitions
}

// WickAccumulator holds the four-point (T123) covariance sums: W123 is the
// per-bin pair weight histogram and T123 the matrix over pairs of bins.
type WickAccumulator struct {
	Np, Nt int

	W123 []float64
	T123 *mat.Dense

	NPairs, NPairsUsed int64
	Clamped            int64
	EmptyObjects       int64
	EmptyPartitions    int64
}

// NewWickAccumulator creates a zeroed covariance accumulator over an
// Np x Nt bin grid.
func NewWickAccumulator(np, nt int) *WickAccumulator {
	n := np * nt
	return &WickAccumulator{
		Np: np, Nt: nt,
		W123: make([]float64, n),
		T123: mat.NewDense(n, n, nil),
	}
}

// Join folds acc2 into acc.
func (acc *WickAccumulator) Join(acc2 *WickAccumulator) {
	if acc.Np != acc2.Np || acc.Nt != acc2.Nt {
		panic("Accumulator bin grids do not match.")
	}

	floats.Add(acc.W123, acc2.W123)
	acc.T123.Add(acc.T123, acc2.T123)

	acc.NPairs += acc2.NPairs
	acc.NPairsUsed += acc2.NPairsUsed
	acc.Clamped += acc2.Clamped
	acc.EmptyObjects += acc2.EmptyObjects
	acc.EmptyPartitions += acc2.EmptyPartitions
}
