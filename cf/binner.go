package cf

import (
	"math"

	"github.com/HiramHerrera/picca/math/rand"
)

// keepPair applies the stochastic rejection control. -1 (and 0) keep every
// pair without touching the generator, 1 drops every pair, and values in
// (0, 1) keep a pair with probability 1-rej.
func keepPair(rej float64, gen *rand.Generator) bool {
	if rej <= 0 {
		return true
	}
	if rej >= 1 {
		return false
	}
	return gen.Uniform(0, 1) >= rej
}

// correlate bins every sample pair between the reference object d1 and its
// filtered neighbors into acc. Self pairs and opposite-order duplicates
// never reach this function: for same-type runs the neighbor list only
// contains objects with a strictly greater id than d1.
func (e *Engine) correlate(
	d1 *Delta, neighbors []*Delta, acc *Accumulator, gen *rand.Generator,
) {
	for _, d2 := range neighbors {
		ang, clamped := d1.Angle(d2)
		if clamped {
			acc.Clamped++
		}
		sinHalf := math.Sin(ang / 2)

		for i := 0; i < d1.Len(); i++ {
			w1, v1 := d1.We[i], d1.Val[i]
			for j := 0; j < d2.Len(); j++ {
				acc.NPairs++

				rp := math.Abs(d1.RComov[i] - d2.RComov[j])
				rt := (d1.DM[i] + d2.DM[j]) * sinHalf
				bin := e.cfg.binIndex(rp, rt)
				if bin == -1 {
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
				acc.WDD[bin] += w12 * v1 * d2.Val[j]
				acc.We[bin] += w12
				acc.Rp[bin] += rp * w12
				acc.Rt[bin] += rt * w12
				acc.Z[bin] += zPair * w12
				acc.NPairsUsed++
			}
		}
	}
}
