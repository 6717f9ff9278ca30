/*package io reads delta catalogs: text files listing sight lines and their
field samples, produced by an upstream continuum-fitting step.

The format is line oriented. '#' starts a comment that runs to the end of
the line, and blank lines are skipped. Each object is a header line

    id ra dec zqso n

with ra and dec in radians, followed by n sample lines

    loglam delta weight

giving the log10 wavelength, field value, and weight of each sample.*/
package io

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/HiramHerrera/picca/cf"
)

// ReadDeltas reads every sight line in a delta catalog file.
func ReadDeltas(fname string) ([]*cf.Delta, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ds []*cf.Delta

	scanner := bufio.NewScanner(f)
	lineNum := 0

	next := func() ([]string, error) {
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if idx := strings.IndexByte(line, '#'); idx != -1 {
				line = line[:idx]
			}
			words := strings.Fields(line)
			if len(words) == 0 {
				continue
			}
			return words, nil
		}
		return nil, scanner.Err()
	}

	for {
		words, err := next()
		if err != nil {
			return nil, err
		}
		if words == nil {
			break
		}

		if len(words) != 5 {
			return nil, fmt.Errorf(
				"Line %d of %s has %d columns, but an object header "+
					"needs 5.", lineNum, fname, len(words))
		}

		id, err := strconv.Atoi(words[0])
		if err != nil {
			return nil, fmt.Errorf(
				"Line %d of %s has the object id '%s', which I can't "+
					"parse.", lineNum, fname, words[0])
		}

		fs := [3]float64{}
		for i := 1; i <= 3; i++ {
			fs[i-1], err = strconv.ParseFloat(words[i], 64)
			if err != nil {
				return nil, fmt.Errorf(
					"Line %d of %s contains '%s', which I can't parse "+
						"as a number.", lineNum, fname, words[i])
			}
		}
		ra, dec, zqso := fs[0], fs[1], fs[2]

		n, err := strconv.Atoi(words[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf(
				"Line %d of %s has the sample count '%s', which I can't "+
					"parse.", lineNum, fname, words[4])
		}

		ll := make([]float64, n)
		val := make([]float64, n)
		we := make([]float64, n)
		for i := 0; i < n; i++ {
			words, err := next()
			if err != nil {
				return nil, err
			}
			if words == nil {
				return nil, fmt.Errorf(
					"The object on line %d of %s promises %d samples, "+
						"but the file ends after %d.", lineNum, fname, n, i)
			}
			if len(words) != 3 {
				return nil, fmt.Errorf(
					"Line %d of %s has %d columns, but a sample line "+
						"needs 3.", lineNum, fname, len(words))
			}

			for j, ptr := range []*float64{&ll[i], &val[i], &we[i]} {
				*ptr, err = strconv.ParseFloat(words[j], 64)
				if err != nil {
					return nil, fmt.Errorf(
						"Line %d of %s contains '%s', which I can't "+
							"parse as a number.", lineNum, fname, words[j])
				}
			}
			if we[i] < 0 {
				return nil, fmt.Errorf(
					"Line %d of %s has the negative weight %g.",
					lineNum, fname, we[i])
			}
		}

		ds = append(ds, cf.NewDelta(id, ra, dec, zqso, ll, val, we))
	}

	return ds, nil
}
