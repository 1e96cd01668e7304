package main

import (
	"fmt"
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/engine"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	engine.Version = version

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
