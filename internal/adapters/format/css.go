// Package format provides the built-in Formatter registry (§4.4): one
// package-level constructor per target (css, swiftui, android, jsmodule,
// jsonsnapshot, htmldocs).
package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// CSS returns the `css` formatter, per §4.4 "CSS variables": tokens
// collapsed into a `:root{...}` declaration, colour rendered as hex or
// OKLCH by the `colorFormat` option, dimensions taken from the `web/rem`
// transform when present.
func CSS() usecases.Formatter {
	return usecases.Formatter{
		Name: "css",
		Selector: usecases.FormatterSelector{
			Transforms: []string{"web/custom-property-name", "web/hex", "web/oklch", "web/rem"},
		},
		Run: func(_ context.Context, tokens []usecases.FormatterToken, options map[string]any) ([]entities.Artifact, error) {
			colorFormat, _ := options["colorFormat"].(string)
			if colorFormat == "" {
				colorFormat = "hex"
			}

			var b strings.Builder
			b.WriteString(":root {\n")
			for _, tok := range tokens {
				name, ok := tok.Transforms["web/custom-property-name"].(string)
				if !ok {
					continue
				}
				value := cssValue(tok, colorFormat)
				if value == "" {
					continue
				}
				fmt.Fprintf(&b, "  %s: %s;\n", name, value)
			}
			b.WriteString("}\n")

			return []entities.Artifact{{
				Path:     "variables.css",
				Contents: []byte(b.String()),
				Encoding: entities.EncodingUTF8,
			}}, nil
		},
	}
}

func cssValue(tok usecases.FormatterToken, colorFormat string) string {
	if tok.Snapshot.Type == "color" {
		if colorFormat == "oklch" {
			if v, ok := tok.Transforms["web/oklch"].(string); ok {
				return v
			}
		}
		if v, ok := tok.Transforms["web/hex"].(string); ok {
			return v
		}
		return ""
	}
	if tok.Snapshot.Type == "dimension" {
		if v, ok := tok.Transforms["web/rem"].(string); ok {
			return v
		}
	}
	return cssLiteral(tok.Value)
}

// cssLiteral renders a plain scalar token value as CSS when no dedicated
// transform applies, e.g. a "string" or "number" typed token.
func cssLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return trimFloat(v)
	default:
		return ""
	}
}
