// Package transform provides the built-in Transform registry (§4.3): the
// web, iOS/SwiftUI, and Android Material/Compose transform groups.
package transform

import (
	"strconv"
	"strings"
	"unicode"
)

// sanitizeSegment strips characters that can't appear in a bare identifier
// and splits on non-alphanumeric runs, per §4.4 "identifiers are generated
// from pointer segments".
func sanitizeSegment(seg string) []string {
	var parts []string
	var cur strings.Builder
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func pascalWord(word string) string {
	if word == "" {
		return ""
	}
	r := []rune(word)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// PascalCase joins decoded pointer segments into a PascalCase identifier,
// used by the Android Material/Compose transforms (§4.4).
func PascalCase(segments []string) string {
	var b strings.Builder
	for _, seg := range segments {
		for _, word := range sanitizeSegment(seg) {
			b.WriteString(pascalWord(strings.ToLower(word)))
		}
	}
	name := b.String()
	if name == "" {
		return "Token"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "T" + name
	}
	return name
}

// CamelCase joins decoded pointer segments into a lowerCamelCase
// identifier, used by the SwiftUI transform (§4.4).
func CamelCase(segments []string) string {
	pascal := PascalCase(segments)
	if pascal == "" {
		return "token"
	}
	r := []rune(pascal)
	return strings.ToLower(string(r[0])) + string(r[1:])
}

var swiftKeywords = map[string]bool{
	"associatedtype": true, "class": true, "deinit": true, "enum": true,
	"extension": true, "func": true, "import": true, "init": true,
	"inout": true, "internal": true, "let": true, "operator": true,
	"private": true, "protocol": true, "public": true, "static": true,
	"struct": true, "subscript": true, "typealias": true, "var": true,
	"if": true, "else": true, "switch": true, "case": true, "default": true,
	"for": true, "while": true, "return": true, "continue": true, "break": true,
	"self": true, "Self": true, "true": true, "false": true, "nil": true,
}

// SwiftIdentifier returns a Swift-safe lowerCamelCase identifier, prefixing
// reserved keywords with an underscore per §4.4 "reserved keywords are
// prefixed".
func SwiftIdentifier(segments []string) string {
	name := CamelCase(segments)
	if swiftKeywords[name] {
		return "_" + name
	}
	return name
}

// Deduper assigns a unique identifier per call, appending a numeric suffix
// on collision, per §4.4 "made unique by numeric suffix". Formatters own
// one Deduper per execution since uniqueness is scoped to a single
// artifact, not to the transform that first proposed the name.
type Deduper struct {
	seen map[string]int
}

// NewDeduper constructs an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]int)}
}

// Unique returns name, or name2/name3/... if name was already returned.
func (d *Deduper) Unique(name string) string {
	n := d.seen[name]
	d.seen[name] = n + 1
	if n == 0 {
		return name
	}
	return name + strconv.Itoa(n+1)
}
