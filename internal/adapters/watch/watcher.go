// Package watch provides the thin fsnotify-based file-watch driver that
// debounces filesystem events and calls the runtime's incremental rebuild
// entry point (§1, §5). It is an external collaborator of the engine's
// contract, not part of it — grounded verbatim on the teacher's
// `filesystem.FileWatcher`.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// Rebuilder is the subset of Runtime the watcher drives.
type Rebuilder interface {
	Rebuild(ctx context.Context, cfg *entities.Configuration, changed []string) (usecases.RunResult, error)
}

const debounceWindow = 100 * time.Millisecond

var ignoredDirs = map[string]bool{
	"dist": true, ".git": true, "node_modules": true, ".dtifx": true,
	"build": true, "target": true,
}

var watchedExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true,
}

// Watcher monitors a configuration directory for DTIF source changes and
// calls Rebuild after a quiet period, per §1 "enabling watch-mode reuse".
type Watcher struct {
	fsw      *fsnotify.Watcher
	runtime  Rebuilder
	cfg      *entities.Configuration
	logger   usecases.Logger
	mu       sync.Mutex
	stopped  bool
	done     chan struct{}
	wg       sync.WaitGroup
	OnResult func(usecases.RunResult)
	OnError  func(error)
}

// New constructs a Watcher over cfg.Dir, rebuilding through runtime on
// every debounced batch of changes.
func New(runtime Rebuilder, cfg *entities.Configuration, logger usecases.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, runtime: runtime, cfg: cfg, logger: logger, done: make(chan struct{})}, nil
}

// Start begins watching cfg.Dir and its subdirectories; it returns once
// the initial recursive watch registration succeeds, continuing in the
// background until Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	info, err := os.Stat(w.cfg.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.ErrInvalid
	}
	if err := w.addRecursive(w.cfg.Dir); err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
	return nil
}

// Stop halts watching and waits for the background loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnoreDir(path, root) {
			return filepath.SkipDir
		}
		_ = w.fsw.Add(path)
		return nil
	})
}

func (w *Watcher) shouldIgnoreDir(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

func shouldProcessFile(path string) bool {
	return watchedExtensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) processEvents(ctx context.Context) {
	timer := time.NewTimer(0)
	<-timer.C

	pending := make(map[string]bool)

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.shouldIgnoreDir(event.Name, w.cfg.Dir) {
					_ = w.fsw.Add(event.Name)
				}
			}
			if !shouldProcessFile(event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(debounceWindow)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]bool)
			w.rebuild(ctx, changed)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watch: fsnotify error", "error", err)
			}
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, changed []string) {
	result, err := w.runtime.Rebuild(ctx, w.cfg, changed)
	if err != nil {
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}
	if w.OnResult != nil {
		w.OnResult(result)
	}
}
