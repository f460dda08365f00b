package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

const fullConfig = `out_dir = "build"

[[layers]]
name = "base"

[[layers]]
name = "brand"

[[sources]]
id = "base-tokens"
kind = "file"
layer = "base"
base = "/color"
segments = ["core"]
patterns = ["tokens/*.json"]
required = true

[[sources]]
id = "brand-tokens"
kind = "file"
layer = "brand"
patterns = ["brand/*.json"]

[[transforms]]
name = "web/hex"
group = "web/base"

[[formatters]]
name = "css"
output = "css"

[dependencies]
strategy = "snapshot"
cache_path = ".dtifx/deps.json"

[[audit.policies]]
name = "governance.requireOwner"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dtifx.toml"), []byte(body), 0o644))
	return dir
}

func TestLoadReadsFullConfiguration(t *testing.T) {
	dir := writeConfig(t, fullConfig)

	cfg, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, "build", cfg.OutDir)

	require.Len(t, cfg.Layers, 2)
	assert.Equal(t, "base", cfg.Layers[0].Name)
	assert.Equal(t, "brand", cfg.Layers[1].Name)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, entities.SourceKindFile, cfg.Sources[0].Kind)
	assert.Equal(t, "/color", cfg.Sources[0].PointerTemplate.Base)
	assert.Equal(t, []string{"core"}, cfg.Sources[0].PointerTemplate.Segments)
	assert.True(t, cfg.Sources[0].Required)

	require.Len(t, cfg.Transforms, 1)
	assert.Equal(t, "web/base", cfg.Transforms[0].Group)

	require.Len(t, cfg.Formatters, 1)
	assert.Equal(t, "css", cfg.Formatters[0].Output)

	assert.Equal(t, "snapshot", cfg.Dependencies.Strategy.Name)
	assert.Equal(t, ".dtifx/deps.json", cfg.Dependencies.CachePath)

	require.Len(t, cfg.Audit.Policies, 1)
	assert.Equal(t, "governance.requireOwner", cfg.Audit.Policies[0].Name)
}

func TestLoadDefaultsOutDir(t *testing.T) {
	dir := writeConfig(t, "[[layers]]\nname = \"base\"\n")

	cfg, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.OutputDir())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestLoadMalformedTOMLFails(t *testing.T) {
	dir := writeConfig(t, "layers = not-valid")
	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
}
