package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/HiramHerrera/picca/cf"
	"github.com/HiramHerrera/picca/cmd/catalog"
	"github.com/HiramHerrera/picca/logging"
	"github.com/HiramHerrera/picca/parse"
)

type DmatConfig struct {
	pairConfig

	absorbers []string
	alphaMet  float64
}

var _ Mode = &DmatConfig{}

func (config *DmatConfig) ExampleConfig() string {
	return fmt.Sprintf(`[dmat.config]

%s

# Absorbers is the list of contaminating absorption lines to compute
# distortion matrices for. One matrix is written for every unordered pair
# drawn from the primary line and this list, except the primary paired with
# itself.
Absorbers = SiII(1260), SiIII(1207), SiII(1193), SiII(1190)

# AlphaMet is the redshift-evolution exponent of the contaminating field.
AlphaMet = 1`, exampleBinningVars)
}

func (config *DmatConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("dmat.config")
	config.registerVars(vars)
	vars.Strings(&config.absorbers, "Absorbers",
		[]string{"SiII(1260)", "SiIII(1207)", "SiII(1193)", "SiII(1190)"})
	vars.Float(&config.alphaMet, "AlphaMet", 1)

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

func (config *DmatConfig) validate() error {
	if err := config.pairConfig.validate(); err != nil {
		return err
	}
	if len(config.absorbers) == 0 {
		return fmt.Errorf("The 'Absorbers' variable isn't set.")
	}
	for _, name := range config.absorbers {
		if _, ok := cf.AbsorberIGM[name]; !ok {
			return fmt.Errorf("The 'Absorbers' variable contains '%s', "+
				"which I don't recognize.", name)
		}
	}
	return nil
}

// schemes returns the absorber pairs a distortion run covers: the upper
// triangle of the primary line and the configured contaminants, except the
// primary against itself. A reversed combination measures the same
// contamination, so the lower triangle is not emitted.
func (config *DmatConfig) schemes() [][2]string {
	names := append([]string{config.lambdaAbs}, config.absorbers...)

	var out [][2]string
	for i, a1 := range names {
		for j := i; j < len(names); j++ {
			if i == 0 && j == 0 {
				continue
			}
			out = append(out, [2]string{a1, names[j]})
		}
	}
	return out
}

func (config *DmatConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {

	if err := config.applyFlags(flags); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	e, err := buildEngine(&config.pairConfig, gConfig)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, scheme := range config.schemes() {
		t0 := time.Now()

		accs, err := e.Distort(
			scheme[0], scheme[1], config.alphaMet, int(gConfig.Workers))
		if err != nil {
			return nil, err
		}
		r := cf.MergeDmat(accs)

		if gConfig.Verbose {
			log.Printf("Scheme %s_%s: %d pairs (%d used) in %v.",
				scheme[0], scheme[1], r.NPairs, r.NPairsUsed,
				time.Since(t0))
			log.Println(logging.MemString())
		}

		lines = append(lines, config.formatScheme(scheme, r)...)
	}

	return lines, nil
}

// formatScheme renders one scheme as three blocks: the non-zero distortion
// matrix entries, the observed-frame row weights, and the mean
// shifted-frame coordinates of the occupied columns.
func (config *DmatConfig) formatScheme(
	scheme [2]string, r *cf.DmatResult,
) []string {

	name := scheme[0] + "_" + scheme[1]
	lines := []string{
		fmt.Sprintf("# scheme %s", name),
		config.metadataComment(),
		diagnosticsComment(
			r.NPairs, r.NPairsUsed, r.Clamped, r.EmptyObjects,
			r.EmptyPartitions),
		catalog.CommentString(
			[]string{"bin", "bin_m"}, []string{"DM_" + name},
			[]int{0, 1, 2}, []int{1, 1, 1},
		),
	}

	nObs := r.Np * r.Nt
	nShift := r.Npm * r.Ntm

	var binA, binB []int
	var dm []float64
	for a := 0; a < nObs; a++ {
		for b := 0; b < nShift; b++ {
			if v := r.Dm.At(a, b); v != 0 {
				binA = append(binA, a)
				binB = append(binB, b)
				dm = append(dm, v)
			}
		}
	}
	lines = append(lines, catalog.FormatCols(
		[][]int{binA, binB}, [][]float64{dm}, []int{0, 1, 2},
	)...)

	lines = append(lines, catalog.CommentString(
		[]string{"bin"}, []string{"WDM_" + name},
		[]int{0, 1}, []int{1, 1},
	))

	obsBins := make([]int, nObs)
	for i := range obsBins {
		obsBins[i] = i
	}
	lines = append(lines, catalog.FormatCols(
		[][]int{obsBins}, [][]float64{r.We}, []int{0, 1},
	)...)

	lines = append(lines, catalog.CommentString(
		[]string{"bin_m"},
		[]string{"RP_" + name, "RT_" + name, "Z_" + name},
		[]int{0, 1, 2, 3}, []int{1, 1, 1, 1},
	))

	bins := make([]int, nShift)
	for i := range bins {
		bins[i] = i
	}
	lines = append(lines, catalog.FormatCols(
		[][]int{bins}, [][]float64{r.RpM, r.RtM, r.ZM},
		[]int{0, 1, 2, 3},
	)...)

	return lines
}
