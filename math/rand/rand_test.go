package rand

import (
	"testing"
)

func TestUniformRange(t *testing.T) {
	gts := []GeneratorType{Xorshift, Golang, Tausworthe}

	for i, gt := range gts {
		gen := New(gt, 42)
		for j := 0; j < 1000; j++ {
			x := gen.Uniform(0, 1)
			if x < 0 || x >= 1 {
				t.Errorf("%d) Generator returned %g, which is outside [0, 1).",
					i, x)
				break
			}
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	gts := []GeneratorType{Xorshift, Golang, Tausworthe}

	for i, gt := range gts {
		gen1, gen2 := New(gt, 1337), New(gt, 1337)
		xs1, xs2 := make([]float64, 100), make([]float64, 100)
		gen1.UniformAt(0, 1, xs1)
		gen2.UniformAt(0, 1, xs2)

		for j := range xs1 {
			if xs1[j] != xs2[j] {
				t.Errorf("%d) Generators with the same seed diverge at "+
					"draw %d: %g != %g.", i, j, xs1[j], xs2[j])
				break
			}
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	gen1, gen2 := New(Xorshift, 1), New(Xorshift, 2)
	same := 0
	for j := 0; j < 100; j++ {
		if gen1.Uniform(0, 1) == gen2.Uniform(0, 1) { same++ }
	}
	if same == 100 {
		t.Errorf("Generators with different seeds returned identical " +
			"sequences.")
	}
}

func BenchmarkXorshiftSequence(b *testing.B) {
	gen := New(Xorshift, 0)
	target := make([]float64, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gen.UniformAt(0, 1, target)
	}
}
