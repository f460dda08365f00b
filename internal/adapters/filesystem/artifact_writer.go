package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var _ usecases.ArtifactWriter = (*ArtifactWriter)(nil)

// ArtifactWriter writes formatter artifacts under a configuration
// directory's output tree using an atomic write-temp-then-rename, mirroring
// the teacher's SaveConfig persistence discipline (§4.4 "Writing").
type ArtifactWriter struct {
	baseDir string
}

// NewArtifactWriter constructs a writer rooted at baseDir (the
// configuration directory; outDir passed to Write is relative to it).
func NewArtifactWriter(baseDir string) *ArtifactWriter {
	return &ArtifactWriter{baseDir: baseDir}
}

// Write resolves artifact.Path against <baseDir>/<outDir> and writes it
// atomically, creating parent directories as needed.
func (w *ArtifactWriter) Write(ctx context.Context, outDir string, artifact entities.Artifact) (string, error) {
	target := filepath.Join(w.baseDir, outDir, artifact.Path)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dtifx-artifact-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(artifact.Contents); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write artifact %s: %w", artifact.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename artifact into place %s: %w", target, err)
	}

	return target, nil
}
