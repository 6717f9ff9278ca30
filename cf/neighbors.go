package cf

import (
	"math"
	"sort"

	"github.com/HiramHerrera/picca/healpix"
)

// MaxAngle returns the largest angular separation that can still produce a
// pair within the transverse cutoff rtMax, given the smallest comoving
// distance in the catalog. Separations larger than this cannot contribute
// and are pruned before any per-sample work happens.
func MaxAngle(rtMax, dComovMin float64) float64 {
	x := rtMax / (2 * dComovMin)
	if x >= 1 {
		return math.Pi
	}
	return 2 * math.Asin(x)
}

// NeighborIndex answers "which objects can pair with the objects of cell
// p?". It is built once per run and never mutated afterward, so workers
// share it without locking.
type NeighborIndex struct {
	nside  int
	maxAng float64

	cells map[int][]*Delta

	// Cell centers, indexed by pixel.
	centerRA, centerDec map[int]float64
}

// NewNeighborIndex builds the index over the occupied cells of a
// partitioned catalog. maxAng is the output of MaxAngle for the run.
func NewNeighborIndex(
	nside int, maxAng float64, cells map[int][]*Delta,
) *NeighborIndex {

	idx := &NeighborIndex{
		nside:     nside,
		maxAng:    maxAng,
		cells:     cells,
		centerRA:  make(map[int]float64),
		centerDec: make(map[int]float64),
	}
	for pix := range cells {
		ra, dec := healpix.PixCenter(nside, pix)
		idx.centerRA[pix] = ra
		idx.centerDec[pix] = dec
	}
	return idx
}

// MaxAng returns the run's angular cutoff.
func (idx *NeighborIndex) MaxAng() float64 { return idx.maxAng }

// Neighborhood returns every object owned by a cell whose center lies
// within reach of the reference cell's center, the reference cell
// included. "Within reach" pads the angular cutoff by twice the worst-case
// offset of a member from its cell center, so no candidate is lost to
// coarse cell geometry; the exact per-object test happens in Neighbors.
// The result is sorted by object id, which fixes the iteration order of
// everything downstream.
func (idx *NeighborIndex) Neighborhood(pix int) []*Delta {
	refRA, refDec := idx.centerRA[pix], idx.centerDec[pix]
	reach := idx.maxAng + 2*healpix.MaxPixRad(idx.nside)

	var hood []*Delta
	for p, members := range idx.cells {
		if angle(refRA, refDec, idx.centerRA[p], idx.centerDec[p]) > reach {
			continue
		}
		hood = append(hood, members...)
	}

	sort.Slice(hood, func(i, j int) bool { return hood[i].ID < hood[j].ID })
	return hood
}

// Neighbors filters a neighborhood down to the objects that can actually
// pair with d: within the angular cutoff and, for same-type runs, with a
// strictly greater id. The strict ordering is what prevents double counting
// and self pairs in the symmetric pair scheme.
func (idx *NeighborIndex) Neighbors(
	d *Delta, hood []*Delta, sameType bool,
) []*Delta {

	var out []*Delta
	for _, o := range hood {
		if sameType && o.ID <= d.ID {
			continue
		}
		if ang, _ := d.Angle(o); ang > idx.maxAng {
			continue
		}
		out = append(out, o)
	}
	return out
}
