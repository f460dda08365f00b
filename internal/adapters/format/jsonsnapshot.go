package format

import (
	"context"
	"fmt"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// jsonSnapshotToken is the per-token record serialised into tokens.json.
type jsonSnapshotToken struct {
	Pointer    string         `json:"pointer"`
	Type       string         `json:"type"`
	Value      any            `json:"value"`
	Raw        any            `json:"raw"`
	Transforms map[string]any `json:"transforms,omitempty"`
}

// JSONSnapshot returns the `jsonsnapshot` formatter: a single
// `tokens.json` artifact listing every resolved token in pointer order,
// used by tooling (diffing, audits, downstream pipelines) that wants the
// full resolved model rather than a platform-specific rendering.
func JSONSnapshot() usecases.Formatter {
	return usecases.Formatter{
		Name: "jsonsnapshot",
		Run: func(_ context.Context, tokens []usecases.FormatterToken, _ map[string]any) ([]entities.Artifact, error) {
			records := make([]jsonSnapshotToken, 0, len(tokens))
			for _, tok := range tokens {
				records = append(records, jsonSnapshotToken{
					Pointer: tok.Pointer, Type: tok.Snapshot.Type,
					Value: tok.Value, Raw: tok.Raw, Transforms: tok.Transforms,
				})
			}

			body, err := entities.CanonicalJSON(records)
			if err != nil {
				return nil, fmt.Errorf("jsonsnapshot: encode tokens: %w", err)
			}

			return []entities.Artifact{{
				Path:     "tokens.json",
				Contents: append(body, '\n'),
				Encoding: entities.EncodingUTF8,
			}}, nil
		},
	}
}
