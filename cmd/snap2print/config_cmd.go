package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// redactedKey replaces a configured API key in printed output.
const redactedKey = "<redacted>"

// runConfig prints the configuration a convert run would use after
// layering the config file and environment over the defaults.
func runConfig(args []string, env *Environment) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var name string
	fs.StringVarP(&name, "config", "c", "", "config file name or path")
	fs.Usage = func() { printConfigUsage(env.Stderr) }
	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	cfg, err := resolveConfig(name, loadEnvConfig())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.AI.APIKey != "" {
		cfg.AI.APIKey = redactedKey
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(data)
	return err
}

// printConfigUsage prints help for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snap2print config [--config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML. Save it as a starting point:")
	fmt.Fprintln(w, "  snap2print config > exam.yaml")
}
