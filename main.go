package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"colab/internal/cmd"
)

// Build information injected at build time via ldflags
var (
	Commit  = "unknown"
	Version = "dev"
)

// Tagline is the application's tagline used in help text
const Tagline = "Collaboration server for Enigma mapping sessions"

func main() {
	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("colab"),
		kong.Description(Tagline),
		kong.Vars{
			"version": fmt.Sprintf("colab %s (commit: %s)", Version, Commit),
		},
		kong.UsageOnError(),
		kong.Bind(&cli),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
