package entities

import "time"

// State is a Snapshot's position in its per-snapshot lifecycle, per §3
// "Lifecycle": Planned -> Parsed -> Merged -> {Resolved, Failed}.
type State string

const (
	StatePlanned  State = "planned"
	StateParsed   State = "parsed"
	StateMerged   State = "merged"
	StateResolved State = "resolved"
	StateFailed   State = "failed"
)

// Deprecation records a token's supersede chain target and reason.
type Deprecation struct {
	Reason       string
	SupersededBy string
}

// SourceLocation pinpoints where a token was declared in its source file.
type SourceLocation struct {
	URI  string
	Span *Span
}

// Metadata is a Snapshot's optional descriptive block, per §3 "Token
// Snapshot". Extensions are always accessed through a clone (Invariant 5).
type Metadata struct {
	Description  string
	Extensions   map[string]any
	Source       *SourceLocation
	Deprecation  *Deprecation
	UsageCount   int
	Tags         []string
	Author       string
	Hash         string
	LastModified time.Time
	LastUsed     time.Time
}

// CloneExtensionsDeep returns a deep copy of the metadata's extension block.
func (m Metadata) CloneExtensionsDeep() map[string]any {
	return CloneExtensions(m.Extensions)
}

// Provenance records which source, layer, and document a Snapshot's
// surviving definition came from, per §3 and §4.2 Invariant 1.
type Provenance struct {
	SourceID      string
	Layer         string
	LayerIndex    int
	DocumentURI   string
	PointerPrefix string
}

// Reference is one hop in a Snapshot's resolution trace.
type Reference struct {
	URI      string
	Pointer  string
	External bool
}

// Snapshot is the atomic resolved token unit, per §3 "Token Snapshot".
type Snapshot struct {
	Pointer    string   // stable identifier: pointer string within the owning document
	Path       []string // decoded path segments, ordered
	Type       string   // color, dimension, typography, gradient, shadow, border, image, string, number, cubic-bezier, transition, fontFamily, duration, strokeStyle, ...
	Value      any      // fully substituted value; nil until resolved
	Raw        any      // pre-resolution literal from the document
	Metadata   *Metadata
	Provenance Provenance

	References     []Reference // direct $ref targets
	ResolutionPath []string    // ordered trace from alias to terminal, by pointer
	AppliedAliases []string    // deprecation supersede chain
	OverridesLayer bool        // true when a lower-layer definition of this pointer was superseded (§4.2 Invariant 1)

	Transforms map[string]any // populated by the Transform Engine; absent entries are omitted, never nil-valued

	State State
}

// CloneRaw returns a deep copy of the snapshot's raw value (Invariant 4).
func (s *Snapshot) CloneRaw() any {
	return CloneValue(s.Raw)
}

// CloneValueDeep returns a deep copy of the snapshot's resolved value
// (Invariant 4).
func (s *Snapshot) CloneValueDeep() any {
	return CloneValue(s.Value)
}

// IsAlias reports whether the snapshot's raw value is a `$ref` literal.
func (s *Snapshot) IsAlias() bool {
	m, ok := s.Raw.(map[string]any)
	if !ok {
		return false
	}
	_, hasRef := m["$ref"]
	return hasRef
}

// RefTarget returns the `$ref` string when IsAlias is true.
func (s *Snapshot) RefTarget() (string, bool) {
	m, ok := s.Raw.(map[string]any)
	if !ok {
		return "", false
	}
	ref, ok := m["$ref"].(string)
	return ref, ok
}
