package cf

import (
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/HiramHerrera/picca/cosmo"
	"github.com/HiramHerrera/picca/healpix"
	"github.com/HiramHerrera/picca/math/interpolate"
	"github.com/HiramHerrera/picca/math/rand"
)

const (
	// Starting point of the automatic resolution search and the mean cell
	// occupancy it aims for.
	startNside    = 256
	targetPerCell = 500
)

// Engine owns the partitioned catalog and the neighbor index of one run.
// Everything inside is read-only after NewEngine returns, which is what
// lets the partition workers share it freely; the only mutable field is
// the progress counter, and that is atomic.
type Engine struct {
	cfg   *Config
	cosmo *cosmo.Cosmo

	nside int
	cells map[int][]*Delta
	pixes []int

	idx *NeighborIndex

	// Objects dropped for having no samples, surfaced for diagnostics.
	skipped int

	progress int64
}

// NewEngine partitions the catalog, attaches per-sample distances for the
// configured absorber, and builds the neighbor index. It takes ownership
// of the deltas: their weights are rescaled in place and they must not be
// handed to a second engine. All configuration and ingestion problems are
// reported here, before any parallel work can start.
func NewEngine(cfg *Config, deltas []*Delta, csm *cosmo.Cosmo) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if csm == nil {
		return nil, fmt.Errorf("No cosmology was provided.")
	}

	e := &Engine{cfg: cfg, cosmo: csm}

	seen := make(map[int]bool)
	var valid []*Delta
	for _, d := range deltas {
		if d.Len() == 0 {
			e.skipped++
			continue
		}
		if seen[d.ID] {
			return nil, fmt.Errorf(
				"The catalog contains two objects with the id %d.", d.ID)
		}
		seen[d.ID] = true
		valid = append(valid, d)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf(
			"The catalog contains no objects with usable samples.")
	}

	e.nside = cfg.Nside
	if e.nside == 0 {
		e.nside = healpix.SearchNside(startNside, len(valid), targetPerCell)
	}

	dMin := -1.0
	e.cells = make(map[int][]*Delta)
	for _, d := range valid {
		if err := d.Attach(cfg.LambdaAbs, cfg.ZRef, cfg.Alpha, csm); err != nil {
			return nil, err
		}
		for i := range d.RComov {
			if dMin < 0 || d.RComov[i] < dMin {
				dMin = d.RComov[i]
			}
		}

		pix := healpix.Ang2Pix(e.nside, d.RA, d.Dec)
		e.cells[pix] = append(e.cells[pix], d)
	}

	for pix := range e.cells {
		e.pixes = append(e.pixes, pix)
	}
	sort.Ints(e.pixes)

	e.idx = NewNeighborIndex(e.nside, MaxAngle(cfg.RtMax, dMin), e.cells)
	return e, nil
}

// Nside returns the healpix resolution the catalog was partitioned at.
func (e *Engine) Nside() int { return e.nside }

// Partitions returns the number of occupied partitions.
func (e *Engine) Partitions() int { return len(e.pixes) }

// Skipped returns the number of objects dropped for having zero samples.
func (e *Engine) Skipped() int { return e.skipped }

// Progress returns the number of partitions processed so far by whichever
// run is in flight. Diagnostics only: it carries no correctness contract.
func (e *Engine) Progress() int64 { return atomic.LoadInt64(&e.progress) }

// gen returns the random generator of one partition. Seeding from the
// partition id rather than the worker id is what keeps stochastic
// rejection identical no matter how partitions are spread over workers.
func (e *Engine) gen(pix int) *rand.Generator {
	return rand.New(rand.Xorshift, e.cfg.Seed0+uint64(pix))
}

func workerCount(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

// Correlate runs the auto-correlation binner over every partition using
// the given number of workers (<= 0 means one per CPU) and returns one
// accumulator per worker. Fold them with MergeCorrelation.
func (e *Engine) Correlate(workers int) []*Accumulator {
	workers = workerCount(workers)
	atomic.StoreInt64(&e.progress, 0)

	accs := make([]*Accumulator, workers)
	sync := make(chan bool, workers)
	for w := 0; w < workers; w++ {
		accs[w] = NewAccumulator(e.cfg.Np, e.cfg.Nt)
		go e.correlateWorker(w, workers, accs[w], sync)
	}
	for w := 0; w < workers; w++ {
		<-sync
	}

	return accs
}

func (e *Engine) correlateWorker(
	offset, workers int, acc *Accumulator, sync chan bool,
) {
	for k := offset; k < len(e.pixes); k += workers {
		pix := e.pixes[k]
		gen := e.gen(pix)
		hood := e.idx.Neighborhood(pix)

		live := 0
		for _, d := range e.cells[pix] {
			neighbors := e.idx.Neighbors(d, hood, e.cfg.SameType)
			if len(neighbors) == 0 {
				acc.EmptyObjects++
				continue
			}
			live++
			e.correlate(d, neighbors, acc, gen)
		}
		if live == 0 {
			acc.EmptyPartitions++
		}
		atomic.AddInt64(&e.progress, 1)
	}
	sync <- true
}

// Distort runs the distortion-matrix binner for one pair of absorbers.
// The reference side of every pair is shifted with absIgm1, the neighbor
// side with absIgm2; alphaShift is the redshift-evolution exponent of the
// shifted field. Returns one accumulator per worker; fold them with
// MergeDmat.
func (e *Engine) Distort(
	absIgm1, absIgm2 string, alphaShift float64, workers int,
) ([]*DmatAccumulator, error) {

	lambda1, ok := AbsorberIGM[absIgm1]
	if !ok {
		return nil, fmt.Errorf("I don't recognize the absorber '%s'.",
			absIgm1)
	}
	lambda2, ok := AbsorberIGM[absIgm2]
	if !ok {
		return nil, fmt.Errorf("I don't recognize the absorber '%s'.",
			absIgm2)
	}

	// The shifted arrays are pure functions of the catalog, so build them
	// once up front instead of once per pair. Workers read them without
	// locking.
	sh1 := make(map[int]*shifted)
	sh2 := make(map[int]*shifted)
	for _, pix := range e.pixes {
		for _, d := range e.cells[pix] {
			z1, r1, dm1, zw1, err := d.shifted(
				lambda1, e.cfg.ZRef, alphaShift, e.cosmo)
			if err != nil {
				return nil, err
			}
			sh1[d.ID] = &shifted{z1, r1, dm1, zw1}
			z2, r2, dm2, zw2, err := d.shifted(
				lambda2, e.cfg.ZRef, alphaShift, e.cosmo)
			if err != nil {
				return nil, err
			}
			sh2[d.ID] = &shifted{z2, r2, dm2, zw2}
		}
	}

	workers = workerCount(workers)
	atomic.StoreInt64(&e.progress, 0)

	accs := make([]*DmatAccumulator, workers)
	sync := make(chan bool, workers)
	for w := 0; w < workers; w++ {
		accs[w] = NewDmatAccumulator(e.cfg.Np, e.cfg.Nt, e.cfg.Np, e.cfg.Nt)
		go e.distortWorker(w, workers, sh1, sh2, accs[w], sync)
	}
	for w := 0; w < workers; w++ {
		<-sync
	}

	return accs, nil
}

func (e *Engine) distortWorker(
	offset, workers int, sh1, sh2 map[int]*shifted,
	acc *DmatAccumulator, sync chan bool,
) {
	for k := offset; k < len(e.pixes); k += workers {
		pix := e.pixes[k]
		gen := e.gen(pix)
		hood := e.idx.Neighborhood(pix)

		live := 0
		for _, d := range e.cells[pix] {
			neighbors := e.idx.Neighbors(d, hood, e.cfg.SameType)
			if len(neighbors) == 0 {
				acc.EmptyObjects++
				continue
			}
			live++
			e.distort(d, neighbors, sh1, sh2, acc, gen)
		}
		if live == 0 {
			acc.EmptyPartitions++
		}
		atomic.AddInt64(&e.progress, 1)
	}
	sync <- true
}

// Wick runs the four-point covariance binner. v1d and c1d are the 1D
// auto-correlation lookups of the forests: v1d maps a log wavelength to
// the pixel variance, c1d maps a log-wavelength separation to the pixel
// correlation. Returns one accumulator per worker; fold them with
// MergeWick.
func (e *Engine) Wick(
	v1d, c1d interpolate.Interpolator, workers int,
) []*WickAccumulator {

	workers = workerCount(workers)
	atomic.StoreInt64(&e.progress, 0)

	accs := make([]*WickAccumulator, workers)
	sync := make(chan bool, workers)
	for w := 0; w < workers; w++ {
		accs[w] = NewWickAccumulator(e.cfg.Np, e.cfg.Nt)
		go e.wickWorker(w, workers, v1d, c1d, accs[w], sync)
	}
	for w := 0; w < workers; w++ {
		<-sync
	}

	return accs
}

func (e *Engine) wickWorker(
	offset, workers int, v1d, c1d interpolate.Interpolator,
	acc *WickAccumulator, sync chan bool,
) {
	for k := offset; k < len(e.pixes); k += workers {
		pix := e.pixes[k]
		gen := e.gen(pix)
		hood := e.idx.Neighborhood(pix)

		live := 0
		for _, d := range e.cells[pix] {
			neighbors := e.idx.Neighbors(d, hood, e.cfg.SameType)
			if len(neighbors) == 0 {
				acc.EmptyObjects++
				continue
			}
			live++
			e.wick(d, neighbors, v1d, c1d, acc, gen)
		}
		if live == 0 {
			acc.EmptyPartitions++
		}
		atomic.AddInt64(&e.progress, 1)
	}
	sync <- true
}
