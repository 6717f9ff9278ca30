package cosmo

import (
	"testing"
)

func almostEq(x, y, eps float64) bool {
	return x+eps > y && x-eps < y
}

func TestNewRejectsBadOmegaM(t *testing.T) {
	for i, omegaM := range []float64{-1, 0, 1.5} {
		if _, err := New(omegaM); err == nil {
			t.Errorf("%d) Expected New(%g) to fail, but it didn't.",
				i, omegaM)
		}
	}
}

func TestRComovZero(t *testing.T) {
	c, err := New(0.315)
	if err != nil {
		t.Fatalf(err.Error())
	}
	if r := c.RComov(0); !almostEq(r, 0, 1e-6) {
		t.Errorf("Expected RComov(0) = 0. Got %g.", r)
	}
}

func TestRComovMonotonic(t *testing.T) {
	c, err := New(0.315)
	if err != nil {
		t.Fatalf(err.Error())
	}

	prev := 0.0
	for i := 1; i <= 100; i++ {
		z := float64(i) * 0.05
		r := c.RComov(z)
		if r <= prev {
			t.Errorf("RComov is not monotonic at z = %g: %g <= %g.",
				z, r, prev)
			break
		}
		prev = r
	}
}

func TestRComovReferenceValues(t *testing.T) {
	// Reference values for OmegaM = 0.315, computed independently with a
	// high-resolution quadrature of c/H(z). Units are Mpc/h.
	c, err := New(0.315)
	if err != nil {
		t.Fatalf(err.Error())
	}

	table := []struct{ z, r float64 }{
		{0.1, 292.6},
		{1.0, 2292.0},
		{2.25, 3815.0},
		{3.0, 4386.0},
	}

	for i, line := range table {
		r := c.RComov(line.z)
		if !almostEq(r, line.r, line.r*5e-3) {
			t.Errorf("%d) Expected RComov(%g) = %g within 0.5%%. Got %g.",
				i, line.z, line.r, r)
		}
	}
}

func TestDMEqualsRComovWhenFlat(t *testing.T) {
	c, err := New(0.3)
	if err != nil {
		t.Fatalf(err.Error())
	}
	for i := 0; i <= 10; i++ {
		z := float64(i) * 0.3
		if c.DM(z) != c.RComov(z) {
			t.Errorf("DM(%g) != RComov(%g) for a flat cosmology.", z, z)
		}
	}
}
