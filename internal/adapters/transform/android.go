package transform

import (
	"context"

	"github.com/bylapidist/dtifx/internal/core/usecases"
)

// androidTransforms returns the `android/material` and `android/compose`
// groups, per §4.4 "Android Material/Compose": Kotlin objects or XML
// resources, PascalCase identifiers from pointer segments.
func androidTransforms() []usecases.Transform {
	return []usecases.Transform{
		{
			Name:     "android/resource-name",
			Group:    "android/material",
			Selector: usecases.TransformSelector{},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				return PascalCase(tctx.Snapshot.Path), nil
			},
		},
		{
			Name:     "android/hex",
			Group:    "android/material",
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
			Name:     "android/dp",
			Group:    "android/material",
			Selector: usecases.TransformSelector{Types: []string{"dimension"}},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				amount, _, ok := dimensionFromValue(tctx.Value)
				if !ok {
					return nil, nil
				}
				return amount, nil
			},
		},
		{
			Name:     "android/compose-identifier",
			Group:    "android/compose",
			Selector: usecases.TransformSelector{},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				return CamelCase(tctx.Snapshot.Path), nil
			},
		},
	}
}
