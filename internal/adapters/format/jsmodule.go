package format

import (
	"context"
	"fmt"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// JSModule returns the `jsmodule` formatter, per §4.4 "JS/TS modules":
// snapshots collapsed into a nested tree keyed by decoded pointer
// segments, emitted as a JavaScript module with a sibling `.d.ts`, or a
// TypeScript module with `as const`, selected by the `moduleFormat` option
// ("js", default, or "ts").
func JSModule() usecases.Formatter {
	return usecases.Formatter{
		Name: "jsmodule",
		Run: func(_ context.Context, tokens []usecases.FormatterToken, options map[string]any) ([]entities.Artifact, error) {
			tree := make(map[string]any)
			for _, tok := range tokens {
				setPath(tree, tok.Snapshot.Path, tokenValue(tok))
			}

			body, err := entities.CanonicalJSON(tree)
			if err != nil {
				return nil, fmt.Errorf("jsmodule: encode token tree: %w", err)
			}

			moduleFormat, _ := options["moduleFormat"].(string)
			if moduleFormat == "ts" {
				return []entities.Artifact{{
					Path:     "tokens.ts",
					Contents: []byte(fmt.Sprintf("export const tokens = %s as const;\nexport default tokens;\n", body)),
					Encoding: entities.EncodingUTF8,
				}}, nil
			}

			return []entities.Artifact{
				{
					Path:     "tokens.js",
					Contents: []byte(fmt.Sprintf("export const tokens = %s;\nexport default tokens;\n", body)),
					Encoding: entities.EncodingUTF8,
				},
				{
					Path:     "tokens.d.ts",
					Contents: []byte("export declare const tokens: Record<string, unknown>;\nexport default tokens;\n"),
					Encoding: entities.EncodingUTF8,
				},
			}, nil
		},
	}
}

// tokenValue prefers the resolved value; falls back to the raw literal for
// a snapshot that never resolved (§3 Invariant 4).
func tokenValue(tok usecases.FormatterToken) any {
	if tok.Value != nil {
		return tok.Value
	}
	return tok.Raw
}

// setPath inserts value into tree at the nested path described by
// segments, creating intermediate maps as needed.
func setPath(tree map[string]any, segments []string, value any) {
	if len(segments) == 0 {
		return
	}
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
}
