package main

import "gotask.dev/internal/cli"

var (
	// These variables are set at build time via -ldflags.
	version = "0.1.0"
	commit  = "none"    //nolint:unused
	date    = "unknown" //nolint:unused
)

func main() {
	cli.Execute(version)
}
