/*package main contains code for computing two-point statistics of the
Lyman-alpha forest: correlation functions, metal distortion matrices, and
Wick covariances.*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/HiramHerrera/picca/cmd"
	"github.com/HiramHerrera/picca/version"
)

var helpStrings = map[string]string{
	"cf":   `The cf mode computes the auto-correlation of a delta catalog.`,
	"dmat": `The dmat mode computes metal distortion matrices.`,
	"wick": `The wick mode computes the Wick covariance of the correlation.`,

	"config":      new(cmd.GlobalConfig).ExampleConfig(),
	"cf.config":   cmd.ModeNames["cf"].ExampleConfig(),
	"dmat.config": cmd.ModeNames["dmat"].ExampleConfig(),
	"wick.config": cmd.ModeNames["wick"].ExampleConfig(),
}

var modeDescriptions = `My help modes are:
picca help
picca help [ cf | dmat | wick ]
picca help [ config | cf.config | dmat.config | wick.config ]

My analysis modes are:
picca cf   [flags] ____.config [____.cf.config]
picca dmat [flags] ____.config [____.dmat.config]
picca wick [flags] ____.config [____.wick.config]`

func main() {
	args := os.Args
	if len(args) <= 1 {
		fmt.Fprintf(
			os.Stderr, "I was not supplied with a mode.\nFor help, type "+
				"'./picca help'.\n",
		)
		os.Exit(1)
	}

	if args[1] == "help" {
		switch len(args) - 2 {
		case 0:
			fmt.Println(modeDescriptions)
		case 1:
			text, ok := helpStrings[args[2]]
			if !ok {
				fmt.Printf("I don't recognize the help target '%s'\n",
					args[2])
			} else {
				fmt.Println(text)
			}
		default:
			fmt.Println("The help mode can only take a single argument.")
		}
		os.Exit(0)
	} else if args[1] == "version" {
		fmt.Printf("picca version %s\n", version.SourceVersion)
		os.Exit(0)
	}

	mode, ok := cmd.ModeNames[args[1]]
	if !ok {
		fmt.Fprintf(
			os.Stderr, "You passed me the mode '%s', which I don't "+
				"recognize.\nFor help, type './picca help'\n", args[1],
		)
		os.Exit(1)
	}

	flags := getFlags(args)
	config, ok := getConfig(args)
	_, gConfig, err := getGlobalConfig(args)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	if ok {
		err = mode.ReadConfig(config)
	} else {
		err = mode.ReadConfig("")
	}
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	out, err := mode.Run(flags, gConfig)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	for i := range out {
		fmt.Println(out[i])
	}
}

// getFlags returns the flag tokens from the command line arguments.
func getFlags(args []string) []string {
	return args[2 : len(args)-configNum(args)]
}

// getGlobalConfig returns the name of the base config file from the command
// line arguments.
func getGlobalConfig(args []string) (string, *cmd.GlobalConfig, error) {
	name := os.Getenv("PICCA_GLOBAL_CONFIG")
	if name != "" {
		if configNum(args) > 1 {
			return "", nil, fmt.Errorf("$PICCA_GLOBAL_CONFIG has been " +
				"set, so you may only pass a single config file as a " +
				"parameter.")
		}

		config := &cmd.GlobalConfig{}
		err := config.ReadConfig(name)
		if err != nil {
			return "", nil, err
		}
		return name, config, nil
	}

	switch configNum(args) {
	case 0:
		return "", nil, fmt.Errorf("No config files provided in command " +
			"line arguments.")
	case 1:
		name = args[len(args)-1]
	case 2:
		name = args[len(args)-2]
	default:
		return "", nil, fmt.Errorf(
			"Passed too many config files as arguments.")
	}

	config := &cmd.GlobalConfig{}
	err := config.ReadConfig(name)
	if err != nil {
		return "", nil, err
	}
	return name, config, nil
}

// getConfig returns the name of the mode-specific config file from the
// command line arguments.
func getConfig(args []string) (string, bool) {
	if os.Getenv("PICCA_GLOBAL_CONFIG") != "" && configNum(args) == 1 {
		return args[len(args)-1], true
	} else if os.Getenv("PICCA_GLOBAL_CONFIG") == "" &&
		configNum(args) == 2 {

		return args[len(args)-1], true
	}
	return "", false
}

// configNum returns the number of configuration files at the end of the
// argument list (up to 2).
func configNum(args []string) int {
	num := 0
	for i := len(args) - 1; i >= 0; i-- {
		if isConfig(args[i]) {
			num++
		} else {
			break
		}
	}
	return num
}

// isConfig returns true if the given string is a config file name.
func isConfig(s string) bool {
	return len(s) >= 7 && s[len(s)-7:] == ".config"
}
