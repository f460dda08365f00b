package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

func TestDocumentLoaderReadsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	if err := os.WriteFile(path, []byte(`{"color":{"primary":{"$value":"#fff"}}}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewDocumentLoader(dir)
	doc, err := loader.LoadDocument(context.Background(), "tokens.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := doc["color"]; !ok {
		t.Fatalf("expected color key in decoded document, got %+v", doc)
	}
}

func TestDocumentLoaderReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.yaml")
	if err := os.WriteFile(path, []byte("color:\n  primary:\n    \"$value\": \"#fff\"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewDocumentLoader(dir)
	doc, err := loader.LoadDocument(context.Background(), "tokens.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := doc["color"]; !ok {
		t.Fatalf("expected color key in decoded document, got %+v", doc)
	}
}

func TestDocumentLoaderMissingFile(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir())
	if _, err := loader.LoadDocument(context.Background(), "missing.json"); err == nil {
		t.Fatalf("expected an error for a missing document")
	}
}

func TestArtifactWriterWritesAndCreatesDirs(t *testing.T) {
	dir := t.TempDir()
	writer := NewArtifactWriter(dir)

	path, err := writer.Write(context.Background(), "dist", entities.Artifact{Path: "css/tokens.css", Contents: []byte(":root{}")})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != ":root{}" {
		t.Fatalf("unexpected contents: %s", data)
	}
}

func TestDependencyCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "depcache.json")
	cache := NewDependencyCache()

	snapshot := entities.DependencySnapshot{
		Version: 1,
		Entries: []entities.DependencyEntry{{Pointer: "#/a", Hash: "abc"}},
	}
	if err := cache.Save(context.Background(), path, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := cache.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != 1 || len(loaded.Entries) != 1 || loaded.Entries[0].Pointer != "#/a" {
		t.Fatalf("unexpected round trip: %+v", loaded)
	}
}

func TestDependencyCacheMissingFileIsNotFound(t *testing.T) {
	cache := NewDependencyCache()
	if _, err := cache.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json")); !os.IsNotExist(err) {
		t.Fatalf("expected os.IsNotExist, got %v", err)
	}
}

func TestDependencyCacheCorruptFileIsTypedError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "depcache.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cache := NewDependencyCache()
	_, err := cache.Load(context.Background(), path)
	if err == nil {
		t.Fatalf("expected an error for a corrupt cache file")
	}
	var corrupt *entities.DependencyCacheCorruptError
	if !asCorrupt(err, &corrupt) {
		t.Fatalf("expected *entities.DependencyCacheCorruptError, got %T", err)
	}
}

func asCorrupt(err error, target **entities.DependencyCacheCorruptError) bool {
	c, ok := err.(*entities.DependencyCacheCorruptError)
	if !ok {
		return false
	}
	*target = c
	return true
}
