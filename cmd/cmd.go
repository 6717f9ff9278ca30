/*package cmd contains code for running picca in its various command line
modes */
package cmd

import (
	"fmt"

	"github.com/HiramHerrera/picca/parse"
	"github.com/HiramHerrera/picca/version"
)

var ModeNames map[string]Mode = map[string]Mode{
	"cf":   &CFConfig{},
	"dmat": &DmatConfig{},
	"wick": &WickConfig{},
}

// Mode represents the interface used by the main binary when interacting with
// a given command line mode.
type Mode interface {
	// ReadConfig reads a mode-specific config file and stores its contents
	// within the Mode. An empty file name loads the defaults.
	ReadConfig(fname string) error
	// ExampleConfig returns the text of an example config file of this mode.
	ExampleConfig() string
	// Run executes the mode. It takes a list of tokenized command line flags
	// and an initialized GlobalConfig struct, and returns a slice of lines
	// that should be written to stdout along with an error if one occurs.
	Run(flags []string, gConfig *GlobalConfig) ([]string, error)
}

// GlobalConfig is a config file used by every mode. It points at the delta
// catalog and sets the run-level parameters that every mode shares.
type GlobalConfig struct {
	Version string

	DeltaFile string
	OmegaM    float64

	Nside   int64
	Seed    int64
	Workers int64

	Verbose bool
}

var _ Mode = &GlobalConfig{}

// ReadConfig reads a config file and returns an error, if applicable.
func (config *GlobalConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("config")

	vars.String(&config.Version, "Version", version.SourceVersion)
	vars.String(&config.DeltaFile, "DeltaFile", "")
	vars.Float(&config.OmegaM, "OmegaM", 0.315)
	vars.Int(&config.Nside, "Nside", 0)
	vars.Int(&config.Seed, "Seed", 0)
	vars.Int(&config.Workers, "Workers", 0)
	vars.Bool(&config.Verbose, "Verbose", false)

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

// validate checks that all the user-generated fields of GlobalConfig are
// properly set. Whether DeltaFile actually exists is checked when a mode
// opens it, not here.
func (config *GlobalConfig) validate() error {
	major, minor, patch, err := version.Parse(config.Version)
	if err != nil {
		return fmt.Errorf("I couldn't parse the 'Version' variable: %s",
			err.Error())
	}
	smajor, sminor, spatch, _ := version.Parse(version.SourceVersion)
	if major != smajor || minor != sminor || patch != spatch {
		return fmt.Errorf("The 'Version' variable is set to %s, but the "+
			"version of the source is %s", config.Version,
			version.SourceVersion)
	}

	switch {
	case config.OmegaM <= 0 || config.OmegaM > 1:
		return fmt.Errorf("The variable '%s' was set to %g.",
			"OmegaM", config.OmegaM)
	case config.Nside < 0:
		return fmt.Errorf("The variable '%s' was set to %d.",
			"Nside", config.Nside)
	case config.Nside > 0 && config.Nside&(config.Nside-1) != 0:
		return fmt.Errorf("The variable '%s' was set to %d, which is not "+
			"a power of two.", "Nside", config.Nside)
	case config.Seed < 0:
		return fmt.Errorf("The variable '%s' was set to %d.",
			"Seed", config.Seed)
	case config.Workers < 0:
		return fmt.Errorf("The variable '%s' was set to %d.",
			"Workers", config.Workers)
	}

	return nil
}

// ExampleConfig returns an example configuration file.
func (config *GlobalConfig) ExampleConfig() string {
	return fmt.Sprintf(`[config]
# Target version of picca. This option merely allows picca to notice when its
# source and configuration files are not from the same version. It will not
# allow earlier versions to be run.
#
# This variable defaults to the source version if not included.
Version = %s

# DeltaFile is the delta catalog to correlate: a text file of sight lines and
# their samples, as written by an upstream continuum-fitting step.
DeltaFile = path/to/deltas.txt

# OmegaM is the matter density of the flat LCDM cosmology used to convert
# redshifts into comoving distances.
OmegaM = 0.315

# Nside is the healpix resolution the sky is partitioned at. It must be a
# power of two. The default, 0, picks a resolution from the catalog size.
Nside = 0

# Seed is the base seed of the per-partition random generators used for
# stochastic pair rejection. Fixing it makes runs reproducible.
Seed = 0

# Workers is the number of partitions processed in parallel. The default, 0,
# uses every CPU.
Workers = 0

# Verbose enables progress and memory logging on stderr.
Verbose = false`, version.SourceVersion)
}

// Run is a dummy method which allows GlobalConfig to conform to the Mode
// interface for testing purposes.
func (config *GlobalConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	panic("GlobalConfig.Run() should never be executed.")
}
