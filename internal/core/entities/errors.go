package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions any caller might check with errors.Is.
var (
	ErrEmptyPointer     = errors.New("pointer cannot be empty")
	ErrDuplicateLayer   = errors.New("layer name already declared")
	ErrDuplicateSource  = errors.New("duplicate source id within layer")
	ErrUnknownLayer     = errors.New("source references unknown layer")
	ErrCacheVersionSkew = errors.New("dependency cache version mismatch")
)

// PlanningIssue describes one failed or skipped source-plan entry, per
// §4.1's `{kind, sourceId, uri, pointerPrefix, message}` shape.
type PlanningIssue struct {
	Kind          string // "validation" | "missing" | "io"
	SourceID      string
	URI           string
	PointerPrefix string
	Message       string
}

func (i PlanningIssue) Error() string {
	return fmt.Sprintf("source %q (%s): %s", i.SourceID, i.Kind, i.Message)
}

// PlanningError is the fatal, typed error surfaced when one or more
// planning issues of kind "validation" occur (§4.1, §6
// AuditSourcePlanningError). It lists every failed entry so a caller can
// report them all at once rather than fail-fast on the first.
type PlanningError struct {
	Issues []PlanningIssue
}

func (e *PlanningError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("source planning failed: %s", e.Issues[0].Error())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "source planning failed with %d issues:\n", len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, issue.Error())
	}
	return b.String()
}

// PolicyConfigurationError is raised when a policy rule's setup function
// fails, per §4.5 "Failure" and §6 PolicyConfigurationError.
type PolicyConfigurationError struct {
	RuleName string
	Err      error
}

func (e *PolicyConfigurationError) Error() string {
	return fmt.Sprintf("policy %q configuration failed: %s", e.RuleName, e.Err)
}

func (e *PolicyConfigurationError) Unwrap() error { return e.Err }

// TransformExecutionError wraps a transform registry misconfiguration
// (unknown transform/group name), distinct from a per-snapshot transform
// failure, which is reported as a Diagnostic instead (§4.3).
type TransformExecutionError struct {
	TransformName string
	Err           error
}

func (e *TransformExecutionError) Error() string {
	return fmt.Sprintf("transform %q: %s", e.TransformName, e.Err)
}

func (e *TransformExecutionError) Unwrap() error { return e.Err }

// DependencyCacheCorruptError is raised when the on-disk dependency
// snapshot cannot be parsed, per §4.6 "Failure". A version mismatch is not
// an error: Evaluate then reports every pointer as changed.
type DependencyCacheCorruptError struct {
	Path string
	Err  error
}

func (e *DependencyCacheCorruptError) Error() string {
	return fmt.Sprintf("dependency cache at %q is corrupt: %s", e.Path, e.Err)
}

func (e *DependencyCacheCorruptError) Unwrap() error { return e.Err }

// FormatterRegistryError is raised when a configured formatter instance
// names an unregistered formatter. A duplicate artifact path within one
// execution is reported as an error-severity diagnostic instead
// (§4.4 "Ordering").
type FormatterRegistryError struct {
	FormatterName string
	Message       string
}

func (e *FormatterRegistryError) Error() string {
	return fmt.Sprintf("formatter %q: %s", e.FormatterName, e.Message)
}

// ArtifactWriteError wraps an I/O failure while writing a formatter
// artifact, fatal for the run per §7 "Write".
type ArtifactWriteError struct {
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("failed to write artifact %q: %s", e.Path, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }
