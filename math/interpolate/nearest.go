package interpolate

// Nearest is a nearest-neighbor interpolator. Unlike Linear, evaluating it
// outside the tabulated range does not panic: the value of the closest end
// point is returned instead. The per-pixel correlation tables it is used for
// are sparse at their edges, so out-of-range lookups are a data condition,
// not a caller bug.
type Nearest struct {
	xs   searcher
	vals []float64
}

// NewNearest creates a nearest-neighbor interpolator for a sequence of
// strictly increasing points, xs, which take on the values given by vals.
func NewNearest(xs, vals []float64) *Nearest {
	if len(xs) != len(vals) {
		panic("Length of input slices are not equal.")
	}
	ne := &Nearest{}
	ne.xs.init(xs)
	ne.vals = vals
	return ne
}

// Eval returns the tabulated value whose x coordinate is closest to x.
func (ne *Nearest) Eval(x float64) float64 {
	if ne.xs.incr {
		if x <= ne.xs.x0 { return ne.vals[0] }
		if x >= ne.xs.lim { return ne.vals[len(ne.vals)-1] }
	} else {
		if x >= ne.xs.x0 { return ne.vals[0] }
		if x <= ne.xs.lim { return ne.vals[len(ne.vals)-1] }
	}

	i1 := ne.xs.search(x)
	i2 := i1 + 1
	x1, x2 := ne.xs.val(i1), ne.xs.val(i2)

	d1, d2 := x-x1, x2-x
	if d1 < 0 { d1 = -d1 }
	if d2 < 0 { d2 = -d2 }
	if d1 <= d2 { return ne.vals[i1] }
	return ne.vals[i2]
}

// EvalAll evaluates the interpolator at all the given x values. If an output
// array is given, the output is written to that array (the array is still
// returned as a convenience).
//
// If more than one output array is provided, only the first is used.
func (ne *Nearest) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i, x := range xs {
		out[0][i] = ne.Eval(x)
	}
	return out[0]
}
