package clireport

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

func TestDedupFormatsPreservesFirstOccurrence(t *testing.T) {
	got := DedupFormats([]string{"human", "json", "human"})
	want := []string{"human", "json"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBuildReportsArtifactCounts(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Build(usecases.RunResult{
		Artifacts: []string{"a.css", "b.css"},
		Formatted: []entities.FormatterExecution{{FormatterID: "css"}},
	})
	out := buf.String()
	if !strings.Contains(out, "Artifacts written: 2") {
		t.Fatalf("expected artifact count in output, got %q", out)
	}
}

func TestAuditListsViolationsSortedBySeverity(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Audit(usecases.RunResult{
		Violations: []entities.Violation{
			{PolicyName: "governance.requireTag", Severity: entities.SeverityWarning, Message: "missing tag"},
			{PolicyName: "governance.requireOwner", Severity: entities.SeverityError, Message: "missing owner"},
		},
	})
	out := buf.String()
	errIdx := strings.Index(out, "requireOwner")
	warnIdx := strings.Index(out, "requireTag")
	if errIdx == -1 || warnIdx == -1 || errIdx > warnIdx {
		t.Fatalf("expected error-severity violation before warning-severity, got %q", out)
	}
}

func TestAuditReportsNoViolations(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Audit(usecases.RunResult{})
	if !strings.Contains(buf.String(), "No policy violations") {
		t.Fatalf("expected no-violations message, got %q", buf.String())
	}
}

func TestDiffReportsBreakingChanges(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Diff(usecases.DiffResult{
		HasBreaking: true,
		Changes: []usecases.TokenChange{
			{Pointer: "#/color/brand", Kind: usecases.ChangeRemoved, Breaking: true},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "#/color/brand") || !strings.Contains(out, "breaking") {
		t.Fatalf("expected breaking change details, got %q", out)
	}
}

func TestErrorPrintsMessage(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Error(errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected error message, got %q", buf.String())
	}
}
