package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/HiramHerrera/picca/cf"
	"github.com/HiramHerrera/picca/cmd/catalog"
	"github.com/HiramHerrera/picca/cosmo"
	"github.com/HiramHerrera/picca/io"
	"github.com/HiramHerrera/picca/logging"
	"github.com/HiramHerrera/picca/parse"
)

// pairConfig holds the binning variables shared by every pair mode.
type pairConfig struct {
	rpMax, rtMax float64
	np, nt       int64

	lambdaAbs string

	zRef, zEvol      float64
	zCutMin, zCutMax float64

	rej float64

	// vars keeps the registered variable set alive so command line flags
	// can override values parsed from the config file.
	vars *parse.ConfigVars
}

func (p *pairConfig) registerVars(vars *parse.ConfigVars) {
	p.vars = vars
	vars.Float(&p.rpMax, "RpMax", 200)
	vars.Float(&p.rtMax, "RtMax", 200)
	vars.Int(&p.np, "Np", 50)
	vars.Int(&p.nt, "Nt", 50)
	vars.String(&p.lambdaAbs, "LambdaAbs", "LYA")
	vars.Float(&p.zRef, "ZRef", 2.25)
	vars.Float(&p.zEvol, "ZEvol", 2.9)
	vars.Float(&p.zCutMin, "ZCutMin", 0)
	vars.Float(&p.zCutMax, "ZCutMax", 10)
	vars.Float(&p.rej, "Rej", -1)
}

var exampleBinningVars = `# RpMax and RtMax are the upper edges of the separation grid, in Mpc/h.
# Pairs at or beyond either edge are discarded.
RpMax = 200
RtMax = 200

# Np and Nt are the number of radial and transverse bins.
Np = 50
Nt = 50

# LambdaAbs is the absorption line defining the sample redshifts.
LambdaAbs = LYA

# ZRef and ZEvol describe the redshift evolution of the field: sample weights
# are scaled by ((1+z)/(1+ZRef))^(ZEvol-1).
ZRef = 2.25
ZEvol = 2.9

# Pairs whose mean redshift falls outside [ZCutMin, ZCutMax) are discarded.
ZCutMin = 0
ZCutMax = 10

# Rej is the stochastic pair rejection fraction: -1 keeps every pair, 1 drops
# every pair, and values in between keep each pair with probability 1-Rej.
Rej = -1`

func (p *pairConfig) validate() error {
	if _, ok := cf.AbsorberIGM[p.lambdaAbs]; !ok {
		return fmt.Errorf("The 'LambdaAbs' variable is set to '%s', "+
			"which I don't recognize.", p.lambdaAbs)
	}

	switch {
	case p.rpMax <= 0:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"RpMax", p.rpMax)
	case p.rtMax <= 0:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"RtMax", p.rtMax)
	case p.np <= 0:
		return fmt.Errorf("The variable '%s' was set to %d.", "Np", p.np)
	case p.nt <= 0:
		return fmt.Errorf("The variable '%s' was set to %d.", "Nt", p.nt)
	case p.zCutMax <= p.zCutMin:
		return fmt.Errorf("The variable '%s' was set to %g, but the "+
			"variable '%s' was set to %g.", "ZCutMin", p.zCutMin,
			"ZCutMax", p.zCutMax)
	}

	if p.rej != -1 && (p.rej < 0 || p.rej > 1) {
		return fmt.Errorf("The variable '%s' was set to %g, but it must "+
			"be -1 or lie in [0, 1].", "Rej", p.rej)
	}

	return nil
}

// applyFlags overrides the registered variables with command line flags.
func (p *pairConfig) applyFlags(flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	return parse.ReadFlags(flags, p.vars)
}

// buildEngine reads the delta catalog and assembles a pair engine for the
// given binning variables.
func buildEngine(
	p *pairConfig, gConfig *GlobalConfig,
) (*cf.Engine, error) {

	if gConfig.DeltaFile == "" {
		return nil, fmt.Errorf("The 'DeltaFile' variable isn't set.")
	}

	ds, err := io.ReadDeltas(gConfig.DeltaFile)
	if err != nil {
		return nil, err
	}

	csm, err := cosmo.New(gConfig.OmegaM)
	if err != nil {
		return nil, err
	}

	cfg := &cf.Config{
		RpMax: p.rpMax, RtMax: p.rtMax,
		Np: int(p.np), Nt: int(p.nt),
		LambdaAbs: cf.AbsorberIGM[p.lambdaAbs],
		ZRef:      p.zRef, Alpha: p.zEvol,
		ZCutMin: p.zCutMin, ZCutMax: p.zCutMax,
		Rej:      p.rej,
		Nside:    int(gConfig.Nside),
		SameType: true,
		Seed0:    uint64(gConfig.Seed),
	}

	e, err := cf.NewEngine(cfg, ds, csm)
	if err != nil {
		return nil, err
	}

	if gConfig.Verbose {
		log.Printf("Read %d objects into %d partitions at nside %d "+
			"(%d skipped for having no samples).",
			len(ds)-e.Skipped(), e.Partitions(), e.Nside(), e.Skipped())
	}
	return e, nil
}

type CFConfig struct {
	pairConfig
}

var _ Mode = &CFConfig{}

func (config *CFConfig) ExampleConfig() string {
	return fmt.Sprintf(`[cf.config]

%s`, exampleBinningVars)
}

func (config *CFConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("cf.config")
	config.registerVars(vars)

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

func (config *CFConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {

	if err := config.applyFlags(flags); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	t0 := time.Now()

	e, err := buildEngine(&config.pairConfig, gConfig)
	if err != nil {
		return nil, err
	}

	r := cf.MergeCorrelation(e.Correlate(int(gConfig.Workers)))

	if gConfig.Verbose {
		log.Printf("Binned %d pairs (%d used) in %v.",
			r.NPairs, r.NPairsUsed, time.Since(t0))
		log.Println(logging.MemString())
	}

	nBins := r.Np * r.Nt
	bins := make([]int, nBins)
	for i := range bins {
		bins[i] = i
	}

	lines := []string{
		catalog.CommentString(
			[]string{"bin"}, []string{"RP", "RT", "Z", "DA", "WE"},
			[]int{0, 1, 2, 3, 4, 5}, []int{1, 1, 1, 1, 1, 1},
		),
		config.metadataComment(),
		diagnosticsComment(
			r.NPairs, r.NPairsUsed, r.Clamped, r.EmptyObjects,
			r.EmptyPartitions),
	}
	lines = append(lines, catalog.FormatCols(
		[][]int{bins},
		[][]float64{r.Rp, r.Rt, r.Z, r.Xi, r.We},
		[]int{0, 1, 2, 3, 4, 5},
	)...)

	return lines, nil
}

func diagnosticsComment(
	pairs, used, clamped, emptyObjs, emptyParts int64,
) string {
	return fmt.Sprintf(
		"# NPALL: %d NPUSED: %d clamped: %d empty objects: %d "+
			"empty partitions: %d",
		pairs, used, clamped, emptyObjs, emptyParts)
}

// metadataComment records the binning variables a table was produced with.
func (p *pairConfig) metadataComment() string {
	return fmt.Sprintf(
		"# RPMAX: %g RTMAX: %g NP: %d NT: %d ZCUTMIN: %g ZCUTMAX: %g "+
			"REJ: %g",
		p.rpMax, p.rtMax, p.np, p.nt, p.zCutMin, p.zCutMax, p.rej)
}
