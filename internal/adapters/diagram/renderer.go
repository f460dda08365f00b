// Package diagram renders the token dependency graph to SVG by shelling
// out to the d2 CLI, grounded on the teacher's D2 renderer adapter. The Go
// module `oss.terrastruct.com/d2` is never imported; like the teacher, the
// binary does the work.
package diagram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

// Renderer compiles D2 source to SVG via the external d2 binary, content-
// addressed caching the result per source string.
type Renderer struct {
	d2Path string
	cache  map[string]string
	mu     sync.RWMutex
}

// NewRenderer locates the d2 binary on PATH, if present.
func NewRenderer() *Renderer {
	d2Path, _ := exec.LookPath("d2")
	return &Renderer{d2Path: d2Path, cache: make(map[string]string)}
}

// IsAvailable reports whether the d2 binary was found.
func (r *Renderer) IsAvailable() bool {
	return r.d2Path != ""
}

// Source renders the dependency graph (§4.4 "HTML docs") as D2 source:
// nodes are pointers, edges are resolutionPath hops.
func Source(snapshots []*entities.Snapshot) string {
	var b strings.Builder
	seenEdges := make(map[string]bool)
	for _, snap := range snapshots {
		id := d2ID(snap.Pointer)
		fmt.Fprintf(&b, "%s: %q\n", id, snap.Pointer)
		path := snap.ResolutionPath
		for i := 0; i+1 < len(path); i++ {
			edge := path[i] + "->" + path[i+1]
			if seenEdges[edge] {
				continue
			}
			seenEdges[edge] = true
			fmt.Fprintf(&b, "%s -> %s\n", d2ID(path[i]), d2ID(path[i+1]))
		}
	}
	return b.String()
}

func d2ID(pointer string) string {
	var b strings.Builder
	for _, r := range pointer {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RenderDiagramWithTimeout compiles D2 source to SVG, bounded by timeoutSec.
func (r *Renderer) RenderDiagramWithTimeout(ctx context.Context, d2Source string, timeoutSec int) (string, error) {
	trimmed := strings.TrimSpace(d2Source)
	if trimmed == "" {
		return "", fmt.Errorf("diagram: d2 source cannot be empty")
	}
	if !r.IsAvailable() {
		return "", fmt.Errorf("diagram: d2 binary not found in PATH")
	}

	hash := ContentHash(d2Source)
	r.mu.RLock()
	if cached, ok := r.cache[hash]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
		defer cancel()
	}

	tmpFile, err := os.CreateTemp("", "dtifx-diagram-*.svg")
	if err != nil {
		return "", fmt.Errorf("diagram: create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	cmd := exec.CommandContext(ctx, r.d2Path, "--layout", "elk", "--theme", "0", "-", tmpPath)
	cmd.Stdin = strings.NewReader(d2Source)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("diagram: d2 compilation failed: %w\nstderr: %s", err, stderr.String())
		}
		return "", fmt.Errorf("diagram: d2 compilation failed: %w", err)
	}

	svg, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("diagram: read rendered SVG: %w", err)
	}

	r.mu.Lock()
	r.cache[hash] = string(svg)
	r.mu.Unlock()

	return string(svg), nil
}

// ClearCache drops every cached render.
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}

// ContentHash is the cache key for a D2 source string.
func ContentHash(d2Source string) string {
	sum := sha256.Sum256([]byte(d2Source))
	return fmt.Sprintf("%x", sum)
}
