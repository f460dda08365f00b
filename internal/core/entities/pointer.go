// Package entities holds the engine's core domain types: pointers, token
// snapshots, source plans, diagnostics, and the colour math shared by
// transforms and policies.
package entities

import "strings"

// Pointer is an RFC-6901 JSON pointer scoped to an owning document URI.
// Two pointers are Equal when their decoded segments and document match,
// regardless of surface differences like a leading "#/" or escape style.
type Pointer struct {
	URI      string
	Segments []string
}

// ParsePointer decodes a raw pointer string (with an optional "#" or "#/"
// prefix) into its segments. An empty string or "#" denotes the root pointer.
func ParsePointer(uri, raw string) Pointer {
	s := raw
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return Pointer{URI: uri, Segments: nil}
	}
	s = strings.TrimPrefix(s, "/")
	parts := strings.Split(s, "/")
	segments := make([]string, len(parts))
	for i, p := range parts {
		segments[i] = decodeSegment(p)
	}
	return Pointer{URI: uri, Segments: segments}
}

// decodeSegment reverses RFC-6901 escaping: "~1" -> "/", then "~0" -> "~".
// Order matters: decoding "~0" first would corrupt a literal "~1" sequence.
func decodeSegment(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	s = strings.ReplaceAll(s, "~0", "~")
	return s
}

// encodeSegment applies RFC-6901 escaping in the mandated order: "~" -> "~0"
// before "/" -> "~1" would double-escape; the spec requires "~" first.
func encodeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

// String renders the canonical encoded form: "#/seg0/seg1/...". The root
// pointer renders as "#".
func (p Pointer) String() string {
	if len(p.Segments) == 0 {
		return "#"
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, seg := range p.Segments {
		b.WriteByte('/')
		b.WriteString(encodeSegment(seg))
	}
	return b.String()
}

// Equal compares two pointers by decoded segments and URI, independent of
// the surface encoding either was constructed from.
func (p Pointer) Equal(other Pointer) bool {
	if p.URI != other.URI {
		return false
	}
	if len(p.Segments) != len(other.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// Join returns a new pointer with extra segments appended.
func (p Pointer) Join(segments ...string) Pointer {
	next := make([]string, 0, len(p.Segments)+len(segments))
	next = append(next, p.Segments...)
	next = append(next, segments...)
	return Pointer{URI: p.URI, Segments: next}
}

// IsRoot reports whether the pointer addresses the document root.
func (p Pointer) IsRoot() bool {
	return len(p.Segments) == 0
}
