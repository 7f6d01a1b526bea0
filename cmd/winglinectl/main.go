// Command winglinectl is a thin CLI boundary over the wingline engine:
// spec.md scopes the fluent builder, CLI entry points, logging
// configuration and settings loading as "thin adapters over the core"
// (§ Out of scope), reimplementable mechanically — this is that
// adapter, grounded on the teacher's cobra wiring in cmd/devcmd.
package main

import (
	"fmt"
	"os"
)

// Version, BuildTime and GitCommit are set via -ldflags at build time,
// matching the teacher's cmd/devcmd convention.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
