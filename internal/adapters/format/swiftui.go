package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/bylapidist/dtifx/internal/adapters/transform"
	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// SwiftUI returns the `swiftui` formatter, per §4.4 "SwiftUI": a Swift
// struct with static let properties, identifiers unique within the file by
// numeric suffix.
func SwiftUI() usecases.Formatter {
	return usecases.Formatter{
		Name: "swiftui",
		Selector: usecases.FormatterSelector{
			Transforms: []string{"ios/identifier", "ios/hex", "ios/points"},
		},
		Run: func(_ context.Context, tokens []usecases.FormatterToken, options map[string]any) ([]entities.Artifact, error) {
			structName, _ := options["structName"].(string)
			if structName == "" {
				structName = "DesignTokens"
			}

			dedup := transform.NewDeduper()
			var b strings.Builder
			fmt.Fprintf(&b, "import SwiftUI\n\npublic struct %s {\n", structName)
			for _, tok := range tokens {
				name, ok := tok.Transforms["ios/identifier"].(string)
				if !ok {
					continue
				}
				name = dedup.Unique(name)

				if tok.Snapshot.Type == "color" {
					if hex, ok := tok.Transforms["ios/hex"].(string); ok {
						fmt.Fprintf(&b, "    public static let %s = Color(hex: %q)\n", name, hex)
						continue
					}
				}
				if tok.Snapshot.Type == "dimension" {
					if points, ok := tok.Transforms["ios/points"].(float64); ok {
						fmt.Fprintf(&b, "    public static let %s: CGFloat = %s\n", name, trimFloat(points))
						continue
					}
				}
			}
			b.WriteString("}\n")

			return []entities.Artifact{{
				Path:     "DesignTokens.swift",
				Contents: []byte(b.String()),
				Encoding: entities.EncodingUTF8,
			}}, nil
		},
	}
}
