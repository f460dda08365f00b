package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bylapidist/dtifx/internal/adapters/clireport"
	"github.com/bylapidist/dtifx/internal/adapters/watch"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch source files and rebuild on change",
	Long:    "Run an initial build, then watch the configuration directory for DTIF source changes and rebuild after a debounce window.",
	GroupID: "building",
	Example: `  dtifx watch
  dtifx watch --dir ./design-system`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reporter := clireport.New(cmd.OutOrStdout())

	eng, err := buildEngine(ctx, projectDir)
	if err != nil {
		return err
	}
	defer eng.runtime.Dispose()

	result, err := eng.runtime.Run(ctx, eng.cfg)
	if err != nil {
		reporter.Error(err)
		return err
	}
	reporter.Build(result)

	w, err := watch.New(eng.runtime, eng.cfg, eng.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.OnResult = func(r usecases.RunResult) { reporter.Build(r) }
	w.OnError = func(err error) { reporter.Error(err) }

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	reporter.Success(fmt.Sprintf("watching %s (press Ctrl+C to stop)", eng.cfg.Dir))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	return w.Stop()
}
