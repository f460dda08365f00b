package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

func findTransform(t *testing.T, name string) usecases.Transform {
	t.Helper()
	for _, tr := range Registry() {
		if tr.Name == name {
			return tr
		}
	}
	t.Fatalf("no registered transform named %q", name)
	return usecases.Transform{}
}

func TestWebHexRendersColor(t *testing.T) {
	tr := findTransform(t, "web/hex")
	snap := &entities.Snapshot{Pointer: "#/color/primary", Path: []string{"color", "primary"}, Type: "color"}
	value := map[string]any{"srgb": []any{1.0, 0.0, 0.0}}
	got, err := tr.Run(context.Background(), usecases.TransformContext{Snapshot: snap, Value: value})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "#ff0000" {
		t.Fatalf("got %v", got)
	}
}

func TestWebRemConvertsPixels(t *testing.T) {
	tr := findTransform(t, "web/rem")
	snap := &entities.Snapshot{Pointer: "#/space/md", Path: []string{"space", "md"}, Type: "dimension"}
	value := map[string]any{"value": 24.0, "unit": "px"}
	got, err := tr.Run(context.Background(), usecases.TransformContext{Snapshot: snap, Value: value})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "1.5rem" {
		t.Fatalf("got %v", got)
	}
}

func TestWebRemPassesThroughNonPixelUnits(t *testing.T) {
	tr := findTransform(t, "web/rem")
	snap := &entities.Snapshot{Pointer: "#/space/md", Path: []string{"space", "md"}, Type: "dimension"}
	value := map[string]any{"value": 50.0, "unit": "%"}
	got, err := tr.Run(context.Background(), usecases.TransformContext{Snapshot: snap, Value: value})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "50%" {
		t.Fatalf("got %v", got)
	}
}

func TestWebCustomPropertyNameJoinsPath(t *testing.T) {
	tr := findTransform(t, "web/custom-property-name")
	snap := &entities.Snapshot{Pointer: "#/color/brand/primary", Path: []string{"color", "brand", "primary"}}
	got, err := tr.Run(context.Background(), usecases.TransformContext{Snapshot: snap})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "--color-brand-primary" {
		t.Fatalf("got %v", got)
	}
}

func TestWebOKLCHFormatsDegrees(t *testing.T) {
	tr := findTransform(t, "web/oklch")
	snap := &entities.Snapshot{Pointer: "#/color/primary", Type: "color"}
	value := map[string]any{"srgb": []any{0.2, 0.4, 0.8}}
	got, err := tr.Run(context.Background(), usecases.TransformContext{Snapshot: snap, Value: value})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	s, ok := got.(string)
	if !ok || !strings.HasPrefix(s, "oklch(") || !strings.HasSuffix(s, "deg)") {
		t.Fatalf("got %v", got)
	}
}
