package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bylapidist/dtifx/internal/adapters/clireport"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two resolved token snapshots",
	Long:  "Resolve tokens from two configuration directories and report semantic changes, with an optional failure gate for breaking changes.",
	Example: `  dtifx diff --before ./v1 --after ./v2
  dtifx diff --before ./v1 --after ./v2 --fail-on-breaking`,
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().String("before", "", "configuration directory for the prior snapshot (required)")
	diffCmd.Flags().String("after", "", "configuration directory for the new snapshot (required)")
	diffCmd.Flags().String("format", "human", "report format: human or json")
	diffCmd.Flags().Bool("fail-on-breaking", false, "exit non-zero when any breaking change is found")
	_ = diffCmd.MarkFlagRequired("before")
	_ = diffCmd.MarkFlagRequired("after")
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, _ := cmd.Flags().GetString("before")
	after, _ := cmd.Flags().GetString("after")
	formatFlag, _ := cmd.Flags().GetString("format")
	failOnBreaking, _ := cmd.Flags().GetBool("fail-on-breaking")

	ctx := cmd.Context()
	beforeSnapshots, err := resolveOnly(ctx, before)
	if err != nil {
		return fmt.Errorf("resolve --before: %w", err)
	}
	afterSnapshots, err := resolveOnly(ctx, after)
	if err != nil {
		return fmt.Errorf("resolve --after: %w", err)
	}

	result, err := usecases.Diff(beforeSnapshots, afterSnapshots)
	if err != nil {
		return fmt.Errorf("compute diff: %w", err)
	}

	if formatFlag == "json" {
		if err := writeJSONReport(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		clireport.New(cmd.OutOrStdout()).Diff(result)
	}

	if failOnBreaking && result.HasBreaking {
		return fmt.Errorf("diff found breaking changes")
	}
	return nil
}
