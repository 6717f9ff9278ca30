package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/HiramHerrera/picca/cf"
	"github.com/HiramHerrera/picca/cmd/catalog"
	"github.com/HiramHerrera/picca/logging"
	"github.com/HiramHerrera/picca/math/interpolate"
	"github.com/HiramHerrera/picca/parse"
)

type WickConfig struct {
	pairConfig

	cf1dFile string
}

var _ Mode = &WickConfig{}

func (config *WickConfig) ExampleConfig() string {
	return fmt.Sprintf(`[wick.config]

%s

# Cf1dFile is the 1D auto-correlation of the forests, as a text table with
# four columns: the log10 wavelength, the pixel variance at that wavelength,
# a log10 wavelength separation, and the pixel correlation at that
# separation.
Cf1dFile = path/to/cf1d.txt

# Wick runs are cubic in forest length; a rejection fraction well above zero
# is usually needed to make them tractable.
# Rej = 0.99`, exampleBinningVars)
}

func (config *WickConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("wick.config")
	config.registerVars(vars)
	vars.String(&config.cf1dFile, "Cf1dFile", "")

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

// readCf1d parses the 1D correlation table into the variance and
// correlation lookups the covariance kernel needs.
func readCf1d(fname string) (v1d, c1d interpolate.Interpolator, err error) {
	_, fcols, err := catalog.ReadFile(fname, []int{}, []int{0, 1, 2, 3})
	if err != nil {
		return nil, nil, err
	}

	ll, va, dll, co := fcols[0], fcols[1], fcols[2], fcols[3]
	if len(ll) < 2 {
		return nil, nil, fmt.Errorf(
			"The 1D correlation file %s needs at least two rows.", fname)
	}

	return interpolate.NewNearest(ll, va), interpolate.NewNearest(dll, co), nil
}

func (config *WickConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {

	if err := config.applyFlags(flags); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	if config.cf1dFile == "" {
		return nil, fmt.Errorf("The 'Cf1dFile' variable isn't set.")
	}
	v1d, c1d, err := readCf1d(config.cf1dFile)
	if err != nil {
		return nil, err
	}

	e, err := buildEngine(&config.pairConfig, gConfig)
	if err != nil {
		return nil, err
	}

	t0 := time.Now()
	r := cf.MergeWick(e.Wick(v1d, c1d, int(gConfig.Workers)))

	if gConfig.Verbose {
		log.Printf("Binned %d pairs (%d used) in %v.",
			r.NPairs, r.NPairsUsed, time.Since(t0))
		log.Println(logging.MemString())
	}

	nBins := r.Np * r.Nt
	lines := []string{
		config.metadataComment(),
		diagnosticsComment(
			r.NPairs, r.NPairsUsed, r.Clamped, r.EmptyObjects,
			r.EmptyPartitions),
		catalog.CommentString(
			[]string{"bin"}, []string{"WE"},
			[]int{0, 1}, []int{1, 1},
		),
	}

	bins := make([]int, nBins)
	for i := range bins {
		bins[i] = i
	}
	lines = append(lines, catalog.FormatCols(
		[][]int{bins}, [][]float64{r.We}, []int{0, 1},
	)...)

	lines = append(lines, catalog.CommentString(
		[]string{"bin_1", "bin_2"}, []string{"CO"},
		[]int{0, 1, 2}, []int{1, 1, 1},
	))

	var binA, binB []int
	var co []float64
	for a := 0; a < nBins; a++ {
		for b := 0; b < nBins; b++ {
			if v := r.Co.At(a, b); v != 0 {
				binA = append(binA, a)
				binB = append(binB, b)
				co = append(co, v)
			}
		}
	}
	lines = append(lines, catalog.FormatCols(
		[][]int{binA, binB}, [][]float64{co}, []int{0, 1, 2},
	)...)

	return lines, nil
}
