// Package cmd implements the dtifx CLI commands using Cobra.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Persistent flag values accessible to all subcommands.
var (
	projectDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dtifx",
	Short: "Design token build and audit engine",
	Long: `dtifx loads Design Token Interchange Format (DTIF) documents from
layered sources, resolves references, transforms values for CSS, SwiftUI,
Android, and JS/TS, formats platform artifacts, evaluates governance
policies, and tracks dependencies between runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", ".", "configuration directory (containing dtifx.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "building", Title: "Building"},
		&cobra.Group{ID: "governance", Title: "Governance"},
	)
}

// Execute runs the root command. Called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets build-time version information from ldflags.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("dtifx %s (commit: %s, built: %s)\n", version, commit, date))
}
