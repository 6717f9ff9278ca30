package io

import (
	"os"
	"path"
	"testing"
)

func writeTemp(t *testing.T, text string) string {
	fname := path.Join(t.TempDir(), "deltas.txt")
	if err := os.WriteFile(fname, []byte(text), 0666); err != nil {
		t.Fatalf("Could not write test file: %s", err)
	}
	return fname
}

func TestReadDeltas(t *testing.T) {
	text := `# a test catalog
1 1.0 0.5 3.2 2
3.55 0.10 1.0
3.56 -0.20 0.5  # trailing comment

17 1.1 0.4 2.8 1
3.60 0.05 2.0
`
	ds, err := ReadDeltas(writeTemp(t, text))
	if err != nil {
		t.Fatalf("Got error reading a valid catalog: %s", err)
	}
	if len(ds) != 2 {
		t.Fatalf("Expected 2 objects. Got %d.", len(ds))
	}

	d := ds[0]
	if d.ID != 1 || d.Len() != 2 {
		t.Errorf("Expected object 1 with 2 samples. Got %d with %d.",
			d.ID, d.Len())
	}
	if d.RA != 1.0 || d.Dec != 0.5 || d.ZQSO != 3.2 {
		t.Errorf("Expected position (1, 0.5, 3.2). Got (%g, %g, %g).",
			d.RA, d.Dec, d.ZQSO)
	}
	if d.LogLam[1] != 3.56 || d.Val[1] != -0.2 || d.We[1] != 0.5 {
		t.Errorf("Expected sample (3.56, -0.2, 0.5). Got (%g, %g, %g).",
			d.LogLam[1], d.Val[1], d.We[1])
	}

	if ds[1].ID != 17 || ds[1].Len() != 1 {
		t.Errorf("Expected object 17 with 1 sample. Got %d with %d.",
			ds[1].ID, ds[1].Len())
	}
}

func TestReadDeltasErrors(t *testing.T) {
	table := []string{
		"1 1.0 0.5 3.2\n",
		"1 1.0 0.5 3.2 1\n3.55 0.1\n",
		"1 1.0 0.5 3.2 2\n3.55 0.1 1.0\n",
		"x 1.0 0.5 3.2 1\n3.55 0.1 1.0\n",
		"1 1.0 0.5 3.2 one\n3.55 0.1 1.0\n",
		"1 1.0 0.5 3.2 1\n3.55 0.1 -1.0\n",
	}

	for i, text := range table {
		if _, err := ReadDeltas(writeTemp(t, text)); err == nil {
			t.Errorf("%d) Expected a parse error. Got none.", i)
		}
	}

	if _, err := ReadDeltas("does-not-exist.txt"); err == nil {
		t.Errorf("Expected an error for a missing file. Got none.")
	}
}
