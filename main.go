// Package main is the entry point for the dtifx CLI.
package main

import (
	"fmt"
	"os"

	"github.com/bylapidist/dtifx/cmd/dtifx"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
