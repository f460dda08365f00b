package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bylapidist/dtifx/internal/core/usecases"
)

const remBasePx = 16.0

// webTransforms returns the `web/base` group, per §4.4 "CSS variables":
// colour tokens render as sRGB hex or OKLCH, dimension tokens keep their
// unit or auto-convert to rem, and every token gets a CSS custom-property
// name.
func webTransforms() []usecases.Transform {
	return []usecases.Transform{
		{
			Name:     "web/custom-property-name",
			Group:    "web/base",
			Selector: usecases.TransformSelector{},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				return "--" + strings.Join(tctx.Snapshot.Path, "-"), nil
			},
		},
		{
			Name:     "web/hex",
			Group:    "web/base",
			Selector: usecases.TransformSelector{Types: []string{"color"}},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				c, ok := srgbFromValue(tctx.Value)
				if !ok {
					return nil, fmt.Errorf("web/hex: unsupported colour value")
				}
				return c.Hex(), nil
			},
		},
		{
			Name:     "web/oklch",
			Group:    "web/base",
			Selector: usecases.TransformSelector{Types: []string{"color"}},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				c, ok := srgbFromValue(tctx.Value)
				if !ok {
					return nil, fmt.Errorf("web/oklch: unsupported colour value")
				}
				lch := c.ToOKLCH()
				return fmt.Sprintf("oklch(%s %s %sdeg)",
					trimFloat(lch.L), trimFloat(lch.C), trimFloat(lch.H)), nil
			},
		},
		{
			Name:     "web/rem",
			Group:    "web/base",
			Selector: usecases.TransformSelector{Types: []string{"dimension"}},
			Run: func(_ context.Context, tctx usecases.TransformContext) (any, error) {
				amount, unit, ok := dimensionFromValue(tctx.Value)
				if !ok {
					return nil, fmt.Errorf("web/rem: unsupported dimension value")
				}
				if unit != "px" {
					return fmt.Sprintf("%s%s", trimFloat(amount), unit), nil
				}
				return trimFloat(amount/remBasePx) + "rem", nil
			},
		},
	}
}

// trimFloat renders a float64 with the shortest round-trip representation,
// matching the canonical-JSON number formatting used elsewhere (§9
// "Canonical JSON serialisation").
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
