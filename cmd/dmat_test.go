package cmd

import (
	"testing"
)

func TestDmatSchemes(t *testing.T) {
	config := &DmatConfig{}
	if err := config.ReadConfig(""); err != nil {
		t.Fatalf("Could not read the default config: %s", err)
	}

	schemes := config.schemes()
	if len(schemes) != 14 {
		t.Errorf("Expected 14 schemes from the default absorber list. "+
			"Got %d.", len(schemes))
	}

	seen := map[string]bool{}
	for _, s := range schemes {
		name := s[0] + "_" + s[1]
		if seen[name] {
			t.Errorf("The scheme %s was emitted twice.", name)
		}
		seen[name] = true
	}

	if seen["LYA_LYA"] {
		t.Errorf("The primary line was paired with itself.")
	}
	for _, s := range schemes {
		if s[0] != s[1] && seen[s[1]+"_"+s[0]] {
			t.Errorf("Both orderings of %s and %s were emitted.", s[0], s[1])
		}
	}

	for _, want := range []string{
		"LYA_SiII(1260)", "SiII(1260)_SiII(1260)", "SiII(1260)_SiIII(1207)",
	} {
		if !seen[want] {
			t.Errorf("Expected the scheme %s. Got %v.", want, schemes)
		}
	}
}
