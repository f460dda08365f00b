// Package filesystem provides disk-backed implementations of the core
// ports: document loading, artifact writing, and dependency-cache
// persistence.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bylapidist/dtifx/internal/core/usecases"
	"gopkg.in/yaml.v3"
)

var _ usecases.DocumentLoader = (*DocumentLoader)(nil)

// DocumentLoader reads DTIF documents from disk, relative to a
// configuration directory, per §4.2 step 1.
type DocumentLoader struct {
	baseDir string
}

// NewDocumentLoader constructs a loader rooted at baseDir.
func NewDocumentLoader(baseDir string) *DocumentLoader {
	return &DocumentLoader{baseDir: baseDir}
}

// LoadDocument reads uri (resolved against baseDir unless already absolute)
// and decodes it as JSON, or as YAML when its extension is .yaml/.yml.
func (l *DocumentLoader) LoadDocument(ctx context.Context, uri string) (map[string]any, error) {
	path := uri
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, uri)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", uri, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("document %s is not valid UTF-8", uri)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var doc map[string]any
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml document %s: %w", uri, err)
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json document %s: %w", uri, err)
	}
	return doc, nil
}
