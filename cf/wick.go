package cf

import (
	"math"

	"github.com/HiramHerrera/picca/math/interpolate"
	"github.com/HiramHerrera/picca/math/rand"
)

// wick accumulates the four-point (T123) covariance terms for d1 against
// its neighbors. Rather than binning single pairs, it pairs two sample
// pairs that share one pixel, weighting by the product of both pairs'
// weights and the 1D auto-correlation of the unshared forest at the two
// unshared pixels' separation; pairs that share both pixels use the 1D
// variance instead.
//
// Stochastic rejection is applied once per object pair, not per sample
// pair: the T123 kernel is cubic in forest length and the rejection
// fraction exists precisely to subsample that cost.
func (e *Engine) wick(
	d1 *Delta, neighbors []*Delta, v1d, c1d interpolate.Interpolator,
	acc *WickAccumulator, gen *rand.Generator,
) {
	for _, d2 := range neighbors {
		n1, n2 := d1.Len(), d2.Len()
		acc.NPairs += int64(n1 * n2)

		if !keepPair(e.cfg.Rej, gen) {
			continue
		}

		ang, clamped := d1.Angle(d2)
		if clamped {
			acc.Clamped++
		}
		sinHalf := math.Sin(ang / 2)

		// Bin assignment per sample pair; -1 marks pairs outside the grid
		// or the redshift window.
		bins := make([]int, n1*n2)
		for i := 0; i < n1; i++ {
			for j := 0; j < n2; j++ {
				rp := math.Abs(d1.RComov[i] - d2.RComov[j])
				rt := (d1.DM[i] + d2.DM[j]) * sinHalf
				bin := e.cfg.binIndex(rp, rt)

				zPair := (d1.Zs[i] + d2.Zs[j]) / 2
				if zPair < e.cfg.ZCutMin || zPair >= e.cfg.ZCutMax {
					bin = -1
				}

				bins[i*n2+j] = bin
				if bin != -1 {
					acc.W123[bin] += d1.We[i] * d2.We[j]
					acc.NPairsUsed++
				}
			}
		}

		// Pairs of pairs sharing the neighbor pixel j: the unshared pixels
		// i1, i2 both lie on d1.
		for j := 0; j < n2; j++ {
			w2 := d2.We[j]
			for i1 := 0; i1 < n1; i1++ {
				binA := bins[i1*n2+j]
				if binA == -1 {
					continue
				}
				wA := d1.We[i1] * w2

				for i2 := i1; i2 < n1; i2++ {
					binB := bins[i2*n2+j]
					if binB == -1 {
						continue
					}

					var eta float64
					if i1 == i2 {
						eta = v1d.Eval(d1.LogLam[i1])
					} else {
						eta = c1d.Eval(
							math.Abs(d1.LogLam[i1] - d1.LogLam[i2]))
					}

					v := wA * d1.We[i2] * w2 * eta
					acc.T123.Set(binA, binB, acc.T123.At(binA, binB)+v)
					if i1 != i2 {
						acc.T123.Set(binB, binA, acc.T123.At(binB, binA)+v)
					}
				}
			}
		}

		// Pairs of pairs sharing the reference pixel i: the unshared
		// pixels j1, j2 both lie on d2. The j1 == j2 diagonal was already
		// counted above.
		for i := 0; i < n1; i++ {
			w1 := d1.We[i]
			for j1 := 0; j1 < n2; j1++ {
				binA := bins[i*n2+j1]
				if binA == -1 {
					continue
				}
				wA := w1 * d2.We[j1]

				for j2 := j1 + 1; j2 < n2; j2++ {
					binB := bins[i*n2+j2]
					if binB == -1 {
						continue
					}

					eta := c1d.Eval(
						math.Abs(d2.LogLam[j1] - d2.LogLam[j2]))

					v := wA * w1 * d2.We[j2] * eta
					acc.T123.Set(binA, binB, acc.T123.At(binA, binB)+v)
					acc.T123.Set(binB, binA, acc.T123.At(binB, binA)+v)
				}
			}
		}
	}
}
