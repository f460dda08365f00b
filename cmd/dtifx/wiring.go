package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/bylapidist/dtifx/internal/adapters/cache"
	"github.com/bylapidist/dtifx/internal/adapters/clock"
	"github.com/bylapidist/dtifx/internal/adapters/config"
	"github.com/bylapidist/dtifx/internal/adapters/diagram"
	"github.com/bylapidist/dtifx/internal/adapters/filesystem"
	"github.com/bylapidist/dtifx/internal/adapters/format"
	"github.com/bylapidist/dtifx/internal/adapters/logging"
	"github.com/bylapidist/dtifx/internal/adapters/policy"
	"github.com/bylapidist/dtifx/internal/adapters/transform"
	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// engine bundles the wired pipeline plus the collaborators the CLI
// commands need directly (logger, configuration).
type engine struct {
	cfg     *entities.Configuration
	runtime *usecases.Runtime
	logger  usecases.Logger
}

// buildEngine loads dtifx.toml from dir and wires the full pipeline: the
// core usecases stages plus the built-in transform, formatter, and policy
// registries and the disk-backed adapters, per §6 "Configuration (engine
// input)".
func buildEngine(ctx context.Context, dir string) (*engine, error) {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(level)

	loader := config.NewLoader()
	cfg, err := loader.Load(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	sysClock := clock.System{}
	planner := usecases.NewSourcePlanner(sysClock)
	resolver := usecases.NewResolver(filesystem.NewDocumentLoader(cfg.Dir), cache.NewDocumentCache(), sysClock)

	renderer := diagram.NewRenderer()
	transformCacheDir := filepath.Join(cfg.Dir, ".dtifx", "transform-cache")
	transforms := usecases.NewTransformEngine(transform.Registry(), filesystem.NewTransformCache(transformCacheDir), runtime.NumCPU())
	formatters := usecases.NewFormatterEngine(format.Registry(renderer))
	policies := usecases.NewPolicyEngine(policy.Registry())
	dependency := usecases.NewDependencyTracker(filesystem.NewDependencyCache())
	writer := filesystem.NewArtifactWriter(cfg.Dir)

	rt := usecases.NewRuntime(planner, resolver, transforms, formatters, policies, dependency, writer, sysClock,
		logging.NewStageLogger(logger))

	return &engine{cfg: cfg, runtime: rt, logger: logger}, nil
}

// resolveOnly loads dtifx.toml and runs planning + resolution, without
// transforms, formatters, policies, or dependency tracking — the shape
// the diff workflow needs from each side of a comparison.
func resolveOnly(ctx context.Context, dir string) ([]*entities.Snapshot, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	sysClock := clock.System{}
	planner := usecases.NewSourcePlanner(sysClock)
	resolver := usecases.NewResolver(filesystem.NewDocumentLoader(cfg.Dir), cache.NewDocumentCache(), sysClock)

	plan, err := planner.Plan(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("plan sources: %w", err)
	}
	resolved, err := resolver.Resolve(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("resolve tokens: %w", err)
	}
	return resolved.SortedSnapshots(), nil
}
