package transform

import (
	"context"

	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// swiftuiTransforms returns the `ios/swiftui` group, per §4.4 "SwiftUI":
// identifiers generated from pointer segments, reserved keywords prefixed.
// Uniqueness across tokens (numeric suffixing) is the formatter's job, since
// it sees the whole token set; this transform only proposes a name.
func swiftuiTransforms() []usecases.Transform {
	return []usecases.Transform{
		{
			Name:     "ios/identifier",
			Group:    "ios/swiftui",
			Selector: usecases.TransformSelector{},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				return SwiftIdentifier(tctx.Snapshot.Path), nil
			},
		},
		{
			Name:     "ios/hex",
			Group:    "ios/swiftui",
			Selector: usecases.TransformSelector{Types: []string{"color"}},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				c, ok := srgbFromValue(tctx.Value)
				if !ok {
					return nil, nil
				}
				return c.Hex(), nil
			},
		},
		{
			Name:     "ios/points",
			Group:    "ios/swiftui",
			Selector: usecases.TransformSelector{Types: []string{"dimension"}},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				amount, _, ok := dimensionFromValue(tctx.Value)
				if !ok {
					return nil, nil
				}
				return amount, nil
			},
		},
	}
}
