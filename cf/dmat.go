package cf

import (
	"math"

	"github.com/HiramHerrera/picca/math/rand"
)

// shifted holds the derived sample arrays of one object under a secondary
// absorber: redshifts, comoving distances, and the evolution factor that
// reweights a sample from the primary frame into this one. Built once per
// object per scheme and read-only afterward.
type shifted struct {
	zs, rComov, dm, zw []float64
}

// distort bins every sample pair between d1 and its neighbors twice: once
// under the primary absorber's coordinates (the "observed" bin, rows of
// Dm) and once under the pair of shifted absorbers (the "true" bin,
// columns). sh maps object ids to the shifted arrays of each side's
// absorber; sh1 applies to reference objects, sh2 to neighbors.
func (e *Engine) distort(
	d1 *Delta, neighbors []*Delta, sh1, sh2 map[int]*shifted,
	acc *DmatAccumulator, gen *rand.Generator,
) {
	s1 := sh1[d1.ID]

	for _, d2 := range neighbors {
		s2 := sh2[d2.ID]

		ang, clamped := d1.Angle(d2)
		if clamped {
			acc.Clamped++
		}
		sinHalf := math.Sin(ang / 2)

		for i := 0; i < d1.Len(); i++ {
			w1 := d1.We[i]
			for j := 0; j < d2.Len(); j++ {
				acc.NPairs++

				rp := math.Abs(d1.RComov[i] - d2.RComov[j])
				rt := (d1.DM[i] + d2.DM[j]) * sinHalf
				binA := e.cfg.binIndex(rp, rt)
				if binA == -1 {
					continue
				}

				zPair := (d1.Zs[i] + d2.Zs[j]) / 2
				if zPair < e.cfg.ZCutMin || zPair >= e.cfg.ZCutMax {
					continue
				}

				if !keepPair(e.cfg.Rej, gen) {
					continue
				}

				w12 := w1 * d2.We[j]
				acc.We[binA] += w12
				acc.NPairsUsed++

				rpM := math.Abs(s1.rComov[i] - s2.rComov[j])
				rtM := (s1.dm[i] + s2.dm[j]) * sinHalf
				binB := e.cfg.binIndex(rpM, rtM)
				if binB == -1 {
					continue
				}

				zw12 := w12 * s1.zw[i] * s2.zw[j]
				acc.Dm.Set(binA, binB, acc.Dm.At(binA, binB)+zw12)
				acc.RpM[binB] += rpM * zw12
				acc.RtM[binB] += rtM * zw12
				acc.ZM[binB] += (s1.zs[i] + s2.zs[j]) / 2 * zw12
				acc.WeM[binB] += zw12
			}
		}
	}
}
