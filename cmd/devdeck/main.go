package main

import (
	"os"

	"github.com/justinpbarnett/devdeck/internal/ui"
)

// Build information injected via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ui.Version = version
	rootCmd.Version = version + " (" + commit + ")"
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
