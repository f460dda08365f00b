package transform

import "github.com/bylapidist/dtifx/internal/core/entities"

// srgbFromValue reads a resolved colour value's `srgb: [r,g,b]` components,
// per the DTIF colour literal shape exercised by the resolver.
func srgbFromValue(value any) (entities.SRGB, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return entities.SRGB{}, false
	}
	raw, ok := m["srgb"]
	if !ok {
		return entities.SRGB{}, false
	}
	components, ok := raw.([]any)
	if !ok || len(components) < 3 {
		return entities.SRGB{}, false
	}
	r, ok1 := toFloat(components[0])
	g, ok2 := toFloat(components[1])
	b, ok3 := toFloat(components[2])
	if !ok1 || !ok2 || !ok3 {
		return entities.SRGB{}, false
	}
	return entities.SRGBFromComponents(r, g, b), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// dimensionFromValue reads a resolved dimension value's `{value, unit}`
// shape.
func dimensionFromValue(value any) (amount float64, unit string, ok bool) {
	m, isMap := value.(map[string]any)
	if !isMap {
		return 0, "", false
	}
	amount, ok = toFloat(m["value"])
	if !ok {
		return 0, "", false
	}
	unit, _ = m["unit"].(string)
	if unit == "" {
		unit = "px"
	}
	return amount, unit, true
}
