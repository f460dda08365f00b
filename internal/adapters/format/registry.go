package format

import (
	"github.com/bylapidist/dtifx/internal/adapters/diagram"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// Registry returns all built-in formatters, name-indexed for
// usecases.NewFormatterEngine. renderer may be nil, in which case
// htmldocs falls back to its inline dependency list (§4.4 "htmldocs").
func Registry(renderer *diagram.Renderer) map[string]usecases.Formatter {
	formatters := []usecases.Formatter{
		CSS(), SwiftUI(), Android(), JSModule(), JSONSnapshot(), HTMLDocs(renderer),
	}
	out := make(map[string]usecases.Formatter, len(formatters))
	for _, f := range formatters {
		out[f.Name] = f
	}
	return out
}
