package main

import "flag"

// cliFlags mirrors cc-backend's flat package-level flag variables
// (cmd/cc-backend/cli.go), parsed once in main before any subsystem is
// constructed.
type cliFlags struct {
	configFile string
	gops       bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configFile, "config", "./config.json", "Overwrite the default configuration options by those specified in `config.json`")
	flag.BoolVar(&f.gops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()
	return f
}
