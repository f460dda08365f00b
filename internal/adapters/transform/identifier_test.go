package transform

import "testing"

func TestPascalCaseJoinsSegments(t *testing.T) {
	got := PascalCase([]string{"color", "brand-primary"})
	if got != "ColorBrandPrimary" {
		t.Fatalf("got %q", got)
	}
}

func TestCamelCaseLowersFirstWord(t *testing.T) {
	got := CamelCase([]string{"color", "brand-primary"})
	if got != "colorBrandPrimary" {
		t.Fatalf("got %q", got)
	}
}

func TestSwiftIdentifierPrefixesKeywords(t *testing.T) {
	got := SwiftIdentifier([]string{"var"})
	if got != "_var" {
		t.Fatalf("got %q", got)
	}
}

func TestPascalCasePrefixesLeadingDigit(t *testing.T) {
	got := PascalCase([]string{"404", "page"})
	if got[0] == '4' {
		t.Fatalf("identifier must not start with a digit: %q", got)
	}
}

func TestDeduperAppendsNumericSuffix(t *testing.T) {
	d := NewDeduper()
	first := d.Unique("primary")
	second := d.Unique("primary")
	third := d.Unique("primary")
	if first != "primary" || second != "primary2" || third != "primary3" {
		t.Fatalf("got %q, %q, %q", first, second, third)
	}
}
