// Package clireport renders build, audit, and diff results for the thin
// CLI driver, grounded on the teacher's `cli.ReportFormatter` and
// `cli.ProgressReporter` for structure and `ui.Output`'s lipgloss palette
// for styling.
package clireport

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var (
	colorPrimary = lipgloss.Color("#2563eb")
	colorSuccess = lipgloss.Color("#10b981")
	colorWarning = lipgloss.Color("#f59e0b")
	colorError   = lipgloss.Color("#ef4444")
	colorMuted   = lipgloss.Color("#6b7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

func severityStyle(sev entities.Severity) lipgloss.Style {
	switch sev {
	case entities.SeverityError:
		return errorStyle
	case entities.SeverityWarning:
		return warningStyle
	default:
		return mutedStyle
	}
}

// Reporter prints RunResult and DiffResult summaries to a writer as styled,
// human-readable text. It takes no format option.
type Reporter struct {
	w io.Writer
}

// New constructs a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// DedupFormats preserves first-occurrence order while discarding repeats,
// so ["human", "json", "human"] becomes ["human", "json"].
func DedupFormats(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Build prints a human-readable summary of a build run: artifact counts,
// diagnostics by severity, and stage timings.
func (r *Reporter) Build(result usecases.RunResult) {
	fmt.Fprintln(r.w, titleStyle.Render("Build complete"))
	fmt.Fprintf(r.w, "  Tokens resolved: %d\n", len(result.Resolved.Merged))
	fmt.Fprintf(r.w, "  Formatters run:  %d\n", len(result.Formatted))
	fmt.Fprintf(r.w, "  Artifacts written: %d\n", len(result.Artifacts))

	r.printDiagnostics(result.Diagnostics)

	fmt.Fprintln(r.w, mutedStyle.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(r.w, "  plan %dms  resolve %dms  transform %dms  format %dms  total %dms\n",
		result.Timings.PlanMs, result.Timings.ResolveMs, result.Timings.TransformMs,
		result.Timings.FormatMs, result.Timings.TotalMs)
}

// Audit prints a human-readable summary of an audit run: policy violations
// grouped by severity, then diagnostics and timings.
func (r *Reporter) Audit(result usecases.RunResult) {
	fmt.Fprintln(r.w, titleStyle.Render("Audit complete"))
	summary := result.PolicySummary
	fmt.Fprintf(r.w, "  Policies evaluated: %d\n", summary.PolicyCount)
	fmt.Fprintf(r.w, "  Tokens checked:     %d\n", summary.TokenCount)

	if len(result.Violations) == 0 {
		fmt.Fprintln(r.w, successStyle.Render("✓ No policy violations"))
	} else {
		violations := make([]entities.Violation, len(result.Violations))
		copy(violations, result.Violations)
		sort.SliceStable(violations, func(i, j int) bool {
			return severityRank(violations[i].Severity) < severityRank(violations[j].Severity)
		})
		for _, v := range violations {
			style := severityStyle(v.Severity)
			prefix := style.Render(fmt.Sprintf("[%s]", v.Severity))
			fmt.Fprintf(r.w, "  %s %s: %s\n", prefix, v.PolicyName, v.Message)
		}
		fmt.Fprintf(r.w, "\nTotal violations: %d\n", len(result.Violations))
	}

	r.printDiagnostics(result.Diagnostics)
	fmt.Fprintf(r.w, "  audit %dms  total %dms\n", result.Timings.AuditMs, result.Timings.TotalWithAuditMs)
}

func severityRank(sev entities.Severity) int {
	switch sev {
	case entities.SeverityError:
		return 0
	case entities.SeverityWarning:
		return 1
	default:
		return 2
	}
}

func (r *Reporter) printDiagnostics(diags entities.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	counts := diags.CountBySeverity()
	fmt.Fprintf(r.w, "  Diagnostics: %d error, %d warning, %d info\n",
		counts[entities.SeverityError], counts[entities.SeverityWarning], counts[entities.SeverityInfo])
	for _, d := range diags {
		style := severityStyle(d.Severity)
		loc := d.Pointer
		if loc == "" {
			loc = d.URI
		}
		fmt.Fprintf(r.w, "    %s [%s] %s — %s\n", style.Render(string(d.Severity)), d.Code, loc, d.Message)
	}
}

// Diff prints a human-readable token-change report.
func (r *Reporter) Diff(result usecases.DiffResult) {
	if len(result.Changes) == 0 {
		fmt.Fprintln(r.w, successStyle.Render("✓ No token changes"))
		return
	}
	for _, c := range result.Changes {
		label := string(c.Kind)
		if c.Breaking {
			label = errorStyle.Render(label + " (breaking)")
		} else {
			label = mutedStyle.Render(label)
		}
		fmt.Fprintf(r.w, "  %s %s\n", label, c.Pointer)
	}
	fmt.Fprintf(r.w, "\nTotal changes: %d", len(result.Changes))
	if result.HasBreaking {
		fmt.Fprint(r.w, warningStyle.Render(" (breaking changes present)"))
	}
	fmt.Fprintln(r.w)
}

// Error prints a fatal error message.
func (r *Reporter) Error(err error) {
	fmt.Fprintln(r.w, errorStyle.Render("✗ "+err.Error()))
}

// Success prints a standalone success message.
func (r *Reporter) Success(msg string) {
	fmt.Fprintln(r.w, successStyle.Render("✓ "+msg))
}
