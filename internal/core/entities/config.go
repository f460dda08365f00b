package entities

// TransformEntry enables and configures one registered transform, per §6
// `transforms.entries[]`.
type TransformEntry struct {
	Name    string
	Group   string
	Options map[string]any
}

// FormatterInstance configures one run of a registered formatter, per §6
// `formatters[]`. ID defaults to "<name>#<index>" when empty (§4.4
// "Planning").
type FormatterInstance struct {
	ID      string
	Name    string
	Options map[string]any
	Output  string
}

// DependencyStrategy selects how the Dependency Tracker computes change
// sets, per §6 `dependencies.strategy`.
type DependencyStrategy struct {
	Name    string // "snapshot" | "graph"
	Options map[string]any
}

// DependenciesConfig is the `dependencies` configuration block, per §6.
type DependenciesConfig struct {
	Strategy  DependencyStrategy
	CachePath string
}

// PolicyEntry enables and configures one registered policy rule, per §6
// `audit.policies[]`.
type PolicyEntry struct {
	Name    string
	Options map[string]any
}

// AuditConfig is the `audit` configuration block, per §6.
type AuditConfig struct {
	Policies []PolicyEntry
}

// Configuration is the engine's parsed input, per §6 "Configuration (engine
// input)". The engine never loads this itself; the concrete
// adapters/config.Loader produces it from disk for the CLI driver.
type Configuration struct {
	Dir          string // configuration directory; glob patterns and outDir are relative to this
	Layers       []Layer
	Sources      []SourceSpec
	Transforms   []TransformEntry
	Formatters   []FormatterInstance
	Dependencies DependenciesConfig
	Audit        AuditConfig
	OutDir       string // relative to Dir; default "dist"
}

// LayerIndex returns the declaration-order index of a layer name, or -1 if
// the layer is not declared.
func (c *Configuration) LayerIndex(name string) int {
	for i, l := range c.Layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// OutputDir returns the engine's resolved output directory, defaulting to
// "dist" per §6.
func (c *Configuration) OutputDir() string {
	if c.OutDir == "" {
		return "dist"
	}
	return c.OutDir
}
