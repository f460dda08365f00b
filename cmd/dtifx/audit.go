package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bylapidist/dtifx/internal/adapters/clireport"
	"github.com/bylapidist/dtifx/internal/core/entities"
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	Aliases: []string{"a"},
	Short:   "Evaluate governance policies against resolved tokens",
	Long:    "Run the same pipeline as build and additionally evaluate the configured policy rules, reporting violations.",
	GroupID: "governance",
	Example: `  dtifx audit
  dtifx audit --exit-code
  dtifx audit --format json`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().String("format", "human", "report format: human or json")
	auditCmd.Flags().Bool("exit-code", false, "exit non-zero when any error-severity violation is found")
}

func runAudit(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	exitCode, _ := cmd.Flags().GetBool("exit-code")

	eng, err := buildEngine(cmd.Context(), projectDir)
	if err != nil {
		return err
	}
	defer eng.runtime.Dispose()

	result, err := eng.runtime.Audit(cmd.Context(), eng.cfg)
	if err != nil {
		clireport.New(os.Stderr).Error(err)
		return err
	}

	if formatFlag == "json" {
		if err := writeJSONReport(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		clireport.New(cmd.OutOrStdout()).Audit(result)
	}

	if exitCode && hasErrorViolation(result.Violations) {
		return fmt.Errorf("audit failed with %d error-severity violation(s)", countSeverity(result.Violations, entities.SeverityError))
	}
	return nil
}

func hasErrorViolation(violations []entities.Violation) bool {
	return countSeverity(violations, entities.SeverityError) > 0
}

func countSeverity(violations []entities.Violation, sev entities.Severity) int {
	count := 0
	for _, v := range violations {
		if v.Severity == sev {
			count++
		}
	}
	return count
}
