package main

import (
	"github.com/spf13/cobra"
)

// exitCode is set by a subcommand's RunE when the run completed but degraded
// (exit 3 per §6) rather than failed outright (exit 2, via a returned
// error). main reads it after a nil-error Execute().
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "warden reviews a pull request with an LLM and deterministic analyzers",
	Long: `warden runs a pull request through a review pipeline combining an LLM
reviewer, deterministic static analyzers (duplicate detection, breaking-change
detection, architecture rules, heuristics), and a cross-repo code index.`,
}

// Execute runs the CLI and returns a non-nil error only for fatal failures
// (exit code 2); degraded-but-completed runs set exitCode to 3 instead.
func Execute() error {
	return rootCmd.Execute()
}

// exitCodeFor maps a fatal Execute() error to its exit code; a nil error
// defers to the exitCode package var a subcommand may have set for a
// degraded-but-successful run.
func exitCodeFor(err error) int {
	if err == nil {
		return exitCode
	}
	return 2
}
