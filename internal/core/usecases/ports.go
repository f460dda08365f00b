// Package usecases implements the engine's pipeline stages: source
// planning, parsing/resolution, transforms, formatters, policy evaluation,
// dependency tracking, and the runtime orchestrator that sequences them.
// Every dependency on the outside world is expressed as a port interface
// here; concrete adapters live under internal/adapters.
package usecases

import (
	"context"
	"time"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

// DocumentLoader loads a raw DTIF (or YAML-flagged) document from a URI,
// per §4.2 step 1. Implementations resolve bare relative paths against the
// configuration directory; file:// URIs are not translated.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, uri string) (map[string]any, error)
}

// DocumentCache is the shared, process-scoped, weakly-keyed-by-URI cache
// the resolver consults before invoking a DocumentLoader, per §5 "Shared
// resources".
type DocumentCache interface {
	Get(uri string) (map[string]any, bool)
	Set(uri string, doc map[string]any)
}

// TransformCacheEntry is one stored Transform Cache record, per §4.6.
type TransformCacheEntry struct {
	Key       string
	Value     any
	ExpiresAt *time.Time
}

// TransformCache is the content-addressed cache consulted by the Transform
// Engine for each (pointer, transform, group, options-hash) key, per §4.6
// "Transform Cache".
type TransformCache interface {
	Get(key string) (TransformCacheEntry, bool)
	Set(ctx context.Context, entry TransformCacheEntry) error
	Clear()
}

// DependencyCache persists and loads the Dependency Tracker's versioned
// snapshot, per §4.6 "Dependency snapshot" and §6 "Cache files".
type DependencyCache interface {
	Load(ctx context.Context, path string) (entities.DependencySnapshot, error)
	Save(ctx context.Context, path string, snapshot entities.DependencySnapshot) error
}

// ArtifactWriter resolves artifact paths against the configured output
// directory and writes them, per §4.4 "Writing".
type ArtifactWriter interface {
	Write(ctx context.Context, outDir string, artifact entities.Artifact) (absolutePath string, err error)
}

// Logger is the structured logging port every stage writes through,
// modelled on the teacher's logging adapter contract.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	WithFields(keysAndValues ...any) Logger
}

// StageEvent is one lifecycle notification published by the runtime, per
// §4.7 "Event taxonomy".
type StageEvent struct {
	Type      string // "stage:start" | "stage:complete" | "stage:error"
	Stage     string // "planning" | "resolution" | "transformation" | "formatting" | "dependencies"
	Timestamp time.Time
	Attrs     map[string]any
	Err       error
}

// EventSubscriber receives every StageEvent published during a run. A
// subscriber that returns an error fails the run (§5 "Back-pressure": a
// slow or failing subscriber blocks/aborts, which is treated as a bug to
// report, not silently swallowed).
type EventSubscriber interface {
	OnStageEvent(ctx context.Context, evt StageEvent) error
}

// Clock abstracts monotonic timing so runtime timings (§4.7) are
// deterministic under test.
type Clock interface {
	Now() time.Time
}
