// Package policy provides the five built-in Policy Engine rules (§4.5),
// grounded on the teacher's graph-validation (`validate_architecture.go`)
// and drift-detection (`detect_drift.go`) use cases, generalised from the
// C4 architecture graph to the token resolution graph.
package policy

import (
	"context"
	"fmt"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

func stringOption(options map[string]any, key, fallback string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func severityOption(options map[string]any, key string, fallback entities.Severity) entities.Severity {
	if v, ok := options[key].(string); ok {
		switch entities.Severity(v) {
		case entities.SeverityError, entities.SeverityWarning, entities.SeverityInfo:
			return entities.Severity(v)
		}
	}
	return fallback
}

func intOption(options map[string]any, key string, fallback int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func stringSliceOption(options map[string]any, key string) []string {
	raw, ok := options[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// RequireOwner is `governance.requireOwner`: each snapshot's extension at
// a configurable key must contain a non-empty owner field.
func RequireOwner() usecases.PolicyRule {
	return usecases.PolicyRule{
		Name: "governance.requireOwner",
		Setup: func(options map[string]any) (usecases.PolicyHandler, error) {
			extensionKey := stringOption(options, "key", "io.dtif.governance")
			severity := severityOption(options, "severity", entities.SeverityError)

			return func(_ context.Context, input usecases.PolicyInput) ([]entities.Violation, error) {
				var violations []entities.Violation
				for _, snap := range input.Snapshots {
					owner := extensionOwner(snap, extensionKey)
					if owner != "" {
						continue
					}
					violations = append(violations, entities.Violation{
						PolicyName: "governance.requireOwner", Pointer: snap.Pointer, Snapshot: snap,
						Severity: severity, Message: fmt.Sprintf("token %q has no owner declared at extension %q", snap.Pointer, extensionKey),
					})
				}
				return violations, nil
			}, nil
		},
	}
}

func extensionOwner(snap *entities.Snapshot, extensionKey string) string {
	if snap.Metadata == nil || snap.Metadata.Extensions == nil {
		return ""
	}
	block, ok := snap.Metadata.Extensions[extensionKey].(map[string]any)
	if !ok {
		return ""
	}
	owner, _ := block["owner"].(string)
	return owner
}

// RequireTag is `governance.requireTag`: tokens must declare every listed
// tag; violations list the missing ones.
func RequireTag() usecases.PolicyRule {
	return usecases.PolicyRule{
		Name: "governance.requireTag",
		Setup: func(options map[string]any) (usecases.PolicyHandler, error) {
			required := stringSliceOption(options, "tags")
			severity := severityOption(options, "severity", entities.SeverityError)

			return func(_ context.Context, input usecases.PolicyInput) ([]entities.Violation, error) {
				var violations []entities.Violation
				for _, snap := range input.Snapshots {
					have := make(map[string]bool)
					if snap.Metadata != nil {
						for _, t := range snap.Metadata.Tags {
							have[t] = true
						}
					}
					var missing []string
					for _, t := range required {
						if !have[t] {
							missing = append(missing, t)
						}
					}
					if len(missing) == 0 {
						continue
					}
					violations = append(violations, entities.Violation{
						PolicyName: "governance.requireTag", Pointer: snap.Pointer, Snapshot: snap,
						Severity: severity, Message: fmt.Sprintf("token %q is missing required tags", snap.Pointer),
						Details: map[string]any{"missingTags": missing},
					})
				}
				return violations, nil
			}, nil
		},
	}
}

// DeprecationHasReplacement is `governance.deprecationHasReplacement`:
// deprecated tokens must carry a supersededBy pointer, generalised from
// the teacher's dangling-reference detection in `detect_drift.go`.
func DeprecationHasReplacement() usecases.PolicyRule {
	return usecases.PolicyRule{
		Name: "governance.deprecationHasReplacement",
		Setup: func(options map[string]any) (usecases.PolicyHandler, error) {
			severity := severityOption(options, "severity", entities.SeverityError)

			return func(_ context.Context, input usecases.PolicyInput) ([]entities.Violation, error) {
				var violations []entities.Violation
				for _, snap := range input.Snapshots {
					if snap.Metadata == nil || snap.Metadata.Deprecation == nil {
						continue
					}
					dep := snap.Metadata.Deprecation
					if dep.SupersededBy != "" {
						if _, ok := input.ByPointer(dep.SupersededBy); !ok {
							violations = append(violations, entities.Violation{
								PolicyName: "governance.deprecationHasReplacement", Pointer: snap.Pointer, Snapshot: snap,
								Severity: severity,
								Message:  fmt.Sprintf("token %q is superseded by %q, which does not exist", snap.Pointer, dep.SupersededBy),
							})
						}
						continue
					}
					violations = append(violations, entities.Violation{
						PolicyName: "governance.deprecationHasReplacement", Pointer: snap.Pointer, Snapshot: snap,
						Severity: severity, Message: fmt.Sprintf("deprecated token %q has no supersededBy replacement", snap.Pointer),
					})
				}
				return violations, nil
			}, nil
		},
	}
}

// RequireOverrideApproval is `governance.requireOverrideApproval`: tokens
// that override a lower layer must carry `approvedBy` of at least
// `minimumApprovals` entries, read from the extension block at
// `key.approvedBy`.
func RequireOverrideApproval() usecases.PolicyRule {
	return usecases.PolicyRule{
		Name: "governance.requireOverrideApproval",
		Setup: func(options map[string]any) (usecases.PolicyHandler, error) {
			extensionKey := stringOption(options, "key", "io.dtif.governance")
			minimumApprovals := intOption(options, "minimumApprovals", 1)
			severity := severityOption(options, "severity", entities.SeverityError)

			return func(_ context.Context, input usecases.PolicyInput) ([]entities.Violation, error) {
				var violations []entities.Violation
				for _, snap := range input.Snapshots {
					if !snap.OverridesLayer {
						continue
					}
					approvals := approvedByCount(snap, extensionKey)
					if approvals >= minimumApprovals {
						continue
					}
					violations = append(violations, entities.Violation{
						PolicyName: "governance.requireOverrideApproval", Pointer: snap.Pointer, Snapshot: snap,
						Severity: severity,
						Message:  fmt.Sprintf("token %q overrides a lower layer but has %d of %d required approvals", snap.Pointer, approvals, minimumApprovals),
					})
				}
				return violations, nil
			}, nil
		},
	}
}

func approvedByCount(snap *entities.Snapshot, extensionKey string) int {
	if snap.Metadata == nil || snap.Metadata.Extensions == nil {
		return 0
	}
	block, ok := snap.Metadata.Extensions[extensionKey].(map[string]any)
	if !ok {
		return 0
	}
	approvers, ok := block["approvedBy"].([]any)
	if !ok {
		return 0
	}
	return len(approvers)
}

// WCAGContrastPair is one configured contrast check, per §4.5
// `governance.wcagContrast`.
type WCAGContrastPair struct {
	Foreground string
	Background string
	Minimum    float64
	Label      string
}

// WCAGContrast is `governance.wcagContrast`: given pairs of pointers to
// colour tokens, compute the WCAG contrast ratio via
// internal/core/entities/color.go and flag any pair below its minimum.
func WCAGContrast() usecases.PolicyRule {
	return usecases.PolicyRule{
		Name: "governance.wcagContrast",
		Setup: func(options map[string]any) (usecases.PolicyHandler, error) {
			pairs, err := decodeContrastPairs(options)
			if err != nil {
				return nil, err
			}

			return func(_ context.Context, input usecases.PolicyInput) ([]entities.Violation, error) {
				var violations []entities.Violation
				for _, pair := range pairs {
					fg, fgOK := input.ByPointer(pair.Foreground)
					bg, bgOK := input.ByPointer(pair.Background)
					if !fgOK || !bgOK {
						violations = append(violations, entities.Violation{
							PolicyName: "governance.wcagContrast", Severity: entities.SeverityError,
							Message: fmt.Sprintf("wcagContrast pair %q references a missing token", pair.Label),
						})
						continue
					}
					fgColor, ok1 := colorFromSnapshot(fg)
					bgColor, ok2 := colorFromSnapshot(bg)
					if !ok1 || !ok2 {
						violations = append(violations, entities.Violation{
							PolicyName: "governance.wcagContrast", Severity: entities.SeverityError,
							Message: fmt.Sprintf("wcagContrast pair %q does not reference colour tokens", pair.Label),
						})
						continue
					}
					ratio := entities.ContrastRatio(fgColor, bgColor)
					if ratio >= pair.Minimum {
						continue
					}
					violations = append(violations, entities.Violation{
						PolicyName: "governance.wcagContrast", Pointer: fg.Pointer, Snapshot: fg,
						Severity: entities.SeverityError,
						Message:  fmt.Sprintf("contrast pair %q has ratio %.2f, below minimum %.2f", pair.Label, ratio, pair.Minimum),
						Details:  map[string]any{"ratio": ratio, "minimum": pair.Minimum, "reason": "contrast-below-threshold"},
					})
				}
				return violations, nil
			}, nil
		},
	}
}

func decodeContrastPairs(options map[string]any) ([]WCAGContrastPair, error) {
	raw, ok := options["pairs"].([]any)
	if !ok {
		return nil, nil
	}
	pairs := make([]WCAGContrastPair, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("governance.wcagContrast: malformed pair entry")
		}
		fg, _ := m["foreground"].(string)
		bg, _ := m["background"].(string)
		label, _ := m["label"].(string)
		minimum := 4.5
		if v, ok := m["minimum"].(float64); ok {
			minimum = v
		}
		if fg == "" || bg == "" {
			return nil, fmt.Errorf("governance.wcagContrast: pair %q missing foreground/background", label)
		}
		pairs = append(pairs, WCAGContrastPair{Foreground: fg, Background: bg, Minimum: minimum, Label: label})
	}
	return pairs, nil
}

func colorFromSnapshot(snap *entities.Snapshot) (entities.SRGB, bool) {
	m, ok := snap.Value.(map[string]any)
	if !ok {
		return entities.SRGB{}, false
	}
	raw, ok := m["srgb"].([]any)
	if !ok || len(raw) < 3 {
		return entities.SRGB{}, false
	}
	r, ok1 := raw[0].(float64)
	g, ok2 := raw[1].(float64)
	b, ok3 := raw[2].(float64)
	if !ok1 || !ok2 || !ok3 {
		return entities.SRGB{}, false
	}
	return entities.SRGBFromComponents(r, g, b), true
}

// Registry returns all five built-in rules, name-indexed for
// usecases.NewPolicyEngine.
func Registry() map[string]usecases.PolicyRule {
	rules := []usecases.PolicyRule{
		RequireOwner(), RequireTag(), DeprecationHasReplacement(),
		RequireOverrideApproval(), WCAGContrast(),
	}
	out := make(map[string]usecases.PolicyRule, len(rules))
	for _, r := range rules {
		out[r.Name] = r
	}
	return out
}
