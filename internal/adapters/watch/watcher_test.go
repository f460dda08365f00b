package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

type stubRebuilder struct {
	mu      sync.Mutex
	calls   int
	changed [][]string
}

func (s *stubRebuilder) Rebuild(_ context.Context, _ *entities.Configuration, changed []string) (usecases.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.changed = append(s.changed, changed)
	return usecases.RunResult{}, nil
}

func (s *stubRebuilder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestWatcherRebuildsOnSourceFileChange(t *testing.T) {
	dir := t.TempDir()
	cfg := &entities.Configuration{Dir: dir}
	rebuilder := &stubRebuilder{}

	w, err := New(rebuilder, cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "tokens.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if rebuilder.callCount() > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected at least one rebuild call within the deadline")
}

func TestShouldProcessFileFiltersByExtension(t *testing.T) {
	if !shouldProcessFile("tokens.json") {
		t.Fatalf("expected .json to be watched")
	}
	if shouldProcessFile("README.md") {
		t.Fatalf("expected .md to be ignored")
	}
}
