/*
Copyright © 2024 the tapioca authors.
This file is part of tapioca.

tapioca is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

tapioca is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with tapioca.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package tapiocautil holds the command-line interface and
// configuration layer for tapioca.
package tapiocautil

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/lnashier/viper"
	"github.com/mandyoc/tapioca"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to tapioca.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of the log messages that are
              printed: one of debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Dir",
			usage: `
              Dir is the directory holding the Mandyoc output files. It
              can contain environment variables.`,
			shorthand:  "d",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "ParametersFile",
			usage: `
              ParametersFile is the name of the Mandyoc parameters file
              within Dir.`,
			defaultVal: tapioca.DefaultParametersFile,
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "FileType",
			usage: `
              FileType is the encoding of the output files: ascii or binary.`,
			defaultVal: string(tapioca.ASCII),
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "Datasets",
			usage: `
              Datasets lists the grid quantities that are read. Valid
              quantities are temperature, density, radiogenic_heat, viscosity,
              strain, strain_rate, pressure and velocity.`,
			defaultVal: append([]string(nil), tapioca.Quantities...),
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags()},
		},
		{
			name: "Steps",
			usage: `
              Steps is the first and last step to read, for example
              --Steps=100,500. If it is empty, every saved step is read.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the netCDF file that is written. It
              can contain environment variables. If it is empty, the output is
              written to grids.nc or particles.nc in Dir.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "DerivedVariables",
			usage: `
              DerivedVariables holds variables calculated from the variables
              that are read, in the form {"name":"expression",...}, for example
              {"speed":"sqrt(velocity_x**2+velocity_z**2)"}. The functions
              exp, sqrt, abs, log10 and pow are available.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "Concurrency",
			usage: `
              Concurrency is the maximum number of files that are
              read at the same time.`,
			defaultVal: runtime.GOMAXPROCS(-1),
			flagsets:   []*pflag.FlagSet{gridsCmd.Flags(), particlesCmd.Flags()},
		},
		{
			name: "Format",
			usage: `
              Format is the format of the summary printed by info: text or toml.`,
			shorthand:  "f",
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("TAPIOCA")
	Cfg.AutomaticEnv()

	for _, option := range options {
		// Options shared by several commands are created on the
		// first flag set and added to the others.
		first := option.flagsets[0]
		switch v := option.defaultVal.(type) {
		case string:
			first.StringP(option.name, option.shorthand, v, option.usage)
		case []string:
			first.StringSliceP(option.name, option.shorthand, v, option.usage)
		case int:
			first.IntP(option.name, option.shorthand, v, option.usage)
		case []int:
			first.IntSliceP(option.name, option.shorthand, v, option.usage)
		case map[string]string:
			// Maps are given on the command line as JSON objects.
			b, err := json.Marshal(v)
			if err != nil {
				panic(err)
			}
			first.StringP(option.name, option.shorthand, string(b), option.usage)
		default:
			panic(fmt.Sprintf("tapioca: option %s has unsupported type %T", option.name, v))
		}
		flag := first.Lookup(option.name)
		for _, set := range option.flagsets[1:] {
			set.AddFlag(flag)
		}
		Cfg.BindPFlag(option.name, flag)
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridsCmd)
	Root.AddCommand(particlesCmd)
	Root.AddCommand(infoCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("tapioca: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(Cfg.GetString("LogLevel"))
}

// setLogLevel configures the standard logger.
func setLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("tapioca: invalid LogLevel: %v", err)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(l)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "tapioca",
	Short: "A reader for Mandyoc output.",
	Long: `tapioca reads the grid fields and particles written by the Mandyoc
geodynamic code, indexes them by saved step and model time, and writes
them to netCDF files that can be summarized with the info command.

Each option below can be set in a TOML, YAML or JSON file passed with
--config, as a command-line flag, or as an environment variable named
TAPIOCA_<option>, for example TAPIOCA_Dir=/data/run1. Flags take
precedence over environment variables, which take precedence over the
configuration file.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of tapioca.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tapioca v%s\n", tapioca.Version)
	},
	DisableAutoGenTag: true,
}

var gridsCmd = &cobra.Command{
	Use:   "grids",
	Short: "Read grid fields",
	Long: `grids reads the grid quantities listed in the Datasets configuration
variable at every saved step, calculates any DerivedVariables, and writes
the result to a netCDF file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := reader()
		if err != nil {
			return err
		}
		derived, err := derivedVariables(Cfg.Get("DerivedVariables"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"), r.Dir, "grids.nc")
		if err != nil {
			return err
		}
		return Grids(r, expandStringSlice(Cfg.GetStringSlice("Datasets")), derived, outputFile)
	},
	DisableAutoGenTag: true,
}

var particlesCmd = &cobra.Command{
	Use:   "particles",
	Short: "Read particles",
	Long: `particles reads the position, layer and cumulative strain of the
particles at every saved step, calculates any DerivedVariables, and writes
the result to a netCDF file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := reader()
		if err != nil {
			return err
		}
		derived, err := derivedVariables(Cfg.Get("DerivedVariables"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"), r.Dir, "particles.nc")
		if err != nil {
			return err
		}
		return Particles(r, derived, outputFile)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info file.nc",
	Short: "Summarize a dataset",
	Long: `info prints summary statistics of every data variable in a netCDF
file written by the grids or particles commands. The Format configuration
variable selects text or toml output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Info(cmd.OutOrStdout(), args[0], Cfg.GetString("Format"))
	},
	DisableAutoGenTag: true,
}
