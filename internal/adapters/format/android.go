package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/bylapidist/dtifx/internal/adapters/transform"
	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// Android returns the `android` formatter, per §4.4 "Android
// Material/Compose": colours and dimensions as XML resources, a Compose
// Kotlin object for programmatic access.
func Android() usecases.Formatter {
	return usecases.Formatter{
		Name: "android",
		Selector: usecases.FormatterSelector{
			Transforms: []string{"android/resource-name", "android/hex", "android/dp", "android/compose-identifier"},
		},
		Run: func(_ context.Context, tokens []usecases.FormatterToken, _ map[string]any) ([]entities.Artifact, error) {
			resourceDedup := transform.NewDeduper()
			composeDedup := transform.NewDeduper()

			var colors, dimens, compose strings.Builder
			colors.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<resources>\n")
			dimens.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<resources>\n")
			compose.WriteString("object DesignTokens {\n")

			for _, tok := range tokens {
				resourceName, ok := tok.Transforms["android/resource-name"].(string)
				if !ok {
					continue
				}
				snakeName := camelToSnake(resourceName)
				snakeName = resourceDedup.Unique(snakeName)

				composeName, _ := tok.Transforms["android/compose-identifier"].(string)
				if composeName != "" {
					composeName = composeDedup.Unique(composeName)
				}

				switch tok.Snapshot.Type {
				case "color":
					hex, ok := tok.Transforms["android/hex"].(string)
					if !ok {
						continue
					}
					fmt.Fprintf(&colors, "  <color name=%q>%s</color>\n", snakeName, hex)
					if composeName != "" {
						fmt.Fprintf(&compose, "    val %s = Color(%q)\n", composeName, hex)
					}
				case "dimension":
					dp, ok := tok.Transforms["android/dp"].(float64)
					if !ok {
						continue
					}
					fmt.Fprintf(&dimens, "  <dimen name=%q>%sdp</dimen>\n", snakeName, trimFloat(dp))
					if composeName != "" {
						fmt.Fprintf(&compose, "    val %s = %s.dp\n", composeName, trimFloat(dp))
					}
				}
			}

			colors.WriteString("</resources>\n")
			dimens.WriteString("</resources>\n")
			compose.WriteString("}\n")

			return []entities.Artifact{
				{Path: "values/colors.xml", Contents: []byte(colors.String()), Encoding: entities.EncodingUTF8},
				{Path: "values/dimens.xml", Contents: []byte(dimens.String()), Encoding: entities.EncodingUTF8},
				{Path: "DesignTokens.kt", Contents: []byte(compose.String()), Encoding: entities.EncodingUTF8},
			}, nil
		},
	}
}

// camelToSnake converts a PascalCase/camelCase identifier into Android's
// lower_snake_case resource-name convention.
func camelToSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
