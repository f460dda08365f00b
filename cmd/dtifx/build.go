package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bylapidist/dtifx/internal/adapters/clireport"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Resolve, transform, and format design tokens",
	Long:    "Run the full pipeline once: plan sources, resolve references, transform values, format platform artifacts, and update the dependency snapshot.",
	GroupID: "building",
	Example: `  dtifx build
  dtifx build --dir ./design-system
  dtifx build --format json`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("format", "human", "report format: human or json")
}

func runBuild(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")

	eng, err := buildEngine(cmd.Context(), projectDir)
	if err != nil {
		return err
	}
	defer eng.runtime.Dispose()

	result, err := eng.runtime.Run(cmd.Context(), eng.cfg)
	if err != nil {
		clireport.New(os.Stderr).Error(err)
		return err
	}

	if formatFlag == "json" {
		return writeJSONReport(cmd.OutOrStdout(), result)
	}
	clireport.New(cmd.OutOrStdout()).Build(result)

	if result.Diagnostics.HasErrors() {
		return fmt.Errorf("build completed with diagnostic errors")
	}
	return nil
}
