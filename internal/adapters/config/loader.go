// Package config loads dtifx.toml configuration files into
// entities.Configuration, layering defaults, DTIFX_* environment
// variables, and the project-local file via Viper.
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/spf13/viper"
)

// Loader reads dtifx.toml and produces an entities.Configuration. The core
// engine never imports this package directly (§6 "Configuration (engine
// input)" takes an already-parsed value); it exists for the CLI driver and
// for integration tests that want to load a file from disk.
type Loader struct{}

// NewLoader constructs a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

type tomlConfig struct {
	Layers       []layerSection      `toml:"layers"`
	Sources      []sourceSection     `toml:"sources"`
	Transforms   []transformSection  `toml:"transforms"`
	Formatters   []formatterSection  `toml:"formatters"`
	Dependencies dependenciesSection `toml:"dependencies"`
	Audit        auditSection        `toml:"audit"`
	OutDir       string              `toml:"out_dir"`
}

type layerSection struct {
	Name string `toml:"name"`
}

type sourceSection struct {
	ID       string         `toml:"id"`
	Kind     string         `toml:"kind"`
	Layer    string         `toml:"layer"`
	Base     string         `toml:"base"`
	Segments []string       `toml:"segments"`
	Patterns []string       `toml:"patterns"`
	Required bool           `toml:"required"`
	Format   string         `toml:"format"`
	Context  map[string]any `toml:"context"`
}

type transformSection struct {
	Name    string         `toml:"name"`
	Group   string         `toml:"group"`
	Options map[string]any `toml:"options"`
}

type formatterSection struct {
	ID      string         `toml:"id"`
	Name    string         `toml:"name"`
	Output  string         `toml:"output"`
	Options map[string]any `toml:"options"`
}

type dependenciesSection struct {
	Strategy  string         `toml:"strategy"`
	Options   map[string]any `toml:"options"`
	CachePath string         `toml:"cache_path"`
}

type policySection struct {
	Name    string         `toml:"name"`
	Options map[string]any `toml:"options"`
}

type auditSection struct {
	Policies []policySection `toml:"policies"`
}

// Load reads dtifx.toml from dir and applies DTIFX_-prefixed environment
// variables via Viper: DTIFX_OUT_DIR (default "dist") is used only when the
// file sets no out_dir, and a non-empty DTIFX_DEPENDENCIES_CACHE_PATH
// replaces dependencies.cache_path. It returns the parsed Configuration with
// Dir set to dir.
func (l *Loader) Load(ctx context.Context, dir string) (*entities.Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix("DTIFX")
	v.AutomaticEnv()
	v.SetDefault("out_dir", "dist")

	path := filepath.Join(dir, "dtifx.toml")
	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if v.IsSet("out_dir") && tc.OutDir == "" {
		tc.OutDir = v.GetString("out_dir")
	}
	if override := v.GetString("dependencies_cache_path"); override != "" {
		tc.Dependencies.CachePath = override
	}

	cfg := &entities.Configuration{
		Dir:    dir,
		OutDir: tc.OutDir,
		Dependencies: entities.DependenciesConfig{
			Strategy:  entities.DependencyStrategy{Name: tc.Dependencies.Strategy, Options: tc.Dependencies.Options},
			CachePath: tc.Dependencies.CachePath,
		},
	}

	for _, layer := range tc.Layers {
		cfg.Layers = append(cfg.Layers, entities.Layer{Name: layer.Name})
	}
	for _, s := range tc.Sources {
		cfg.Sources = append(cfg.Sources, entities.SourceSpec{
			ID:              s.ID,
			Kind:            entities.SourceKind(s.Kind),
			Layer:           s.Layer,
			PointerTemplate: entities.PointerTemplate{Base: s.Base, Segments: s.Segments},
			Patterns:        s.Patterns,
			Required:        s.Required,
			Format:          s.Format,
			Context:         s.Context,
		})
	}
	for _, t := range tc.Transforms {
		cfg.Transforms = append(cfg.Transforms, entities.TransformEntry{Name: t.Name, Group: t.Group, Options: t.Options})
	}
	for _, f := range tc.Formatters {
		cfg.Formatters = append(cfg.Formatters, entities.FormatterInstance{ID: f.ID, Name: f.Name, Output: f.Output, Options: f.Options})
	}
	for _, p := range tc.Audit.Policies {
		cfg.Audit.Policies = append(cfg.Audit.Policies, entities.PolicyEntry{Name: p.Name, Options: p.Options})
	}

	return cfg, nil
}
