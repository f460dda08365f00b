package entities

import "testing"

func TestSnapshotIsAlias(t *testing.T) {
	s := &Snapshot{Raw: map[string]any{"$ref": "#/color/base"}}
	if !s.IsAlias() {
		t.Fatalf("expected snapshot with $ref raw value to be detected as alias")
	}
	target, ok := s.RefTarget()
	if !ok || target != "#/color/base" {
		t.Fatalf("unexpected ref target: %q (ok=%v)", target, ok)
	}
}

func TestSnapshotIsAliasFalseForPlainValue(t *testing.T) {
	s := &Snapshot{Raw: map[string]any{"srgb": []any{0.1, 0.2, 0.3}}}
	if s.IsAlias() {
		t.Fatalf("plain value must not be detected as alias")
	}
}

func TestSnapshotCloneValueIndependence(t *testing.T) {
	s := &Snapshot{Value: map[string]any{"srgb": []any{0.1, 0.2, 0.3}}}
	clone := s.CloneValueDeep().(map[string]any)
	clone["srgb"].([]any)[0] = 9.9

	orig := s.Value.(map[string]any)["srgb"].([]any)[0]
	if orig != 0.1 {
		t.Fatalf("mutating clone leaked into snapshot value: %v", orig)
	}
}
