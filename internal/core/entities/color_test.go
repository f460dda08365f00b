package entities

import (
	"math"
	"testing"
)

func TestOKLCHRoundTrip(t *testing.T) {
	orig := SRGBFromComponents(0.2, 0.6, 0.8)
	oklch := orig.ToOKLCH()
	back := oklch.ToSRGB()

	if math.Abs(orig.R-back.R) > 1e-3 || math.Abs(orig.G-back.G) > 1e-3 || math.Abs(orig.B-back.B) > 1e-3 {
		t.Fatalf("round trip drift too large: got %+v want %+v", back, orig)
	}
}

func TestContrastRatioBlackOnWhite(t *testing.T) {
	black := SRGBFromComponents(0, 0, 0)
	white := SRGBFromComponents(1, 1, 1)
	ratio := ContrastRatio(black, white)
	if math.Abs(ratio-21) > 0.05 {
		t.Fatalf("expected contrast ratio near 21, got %v", ratio)
	}
}

func TestContrastRatioIsSymmetric(t *testing.T) {
	a := SRGBFromComponents(0, 0, 0)
	b := SRGBFromComponents(0.5, 0.5, 0.5)
	if ContrastRatio(a, b) != ContrastRatio(b, a) {
		t.Fatalf("contrast ratio must not depend on argument order")
	}
}

func TestParseSRGBHex(t *testing.T) {
	c, err := ParseSRGBHex("#1A334C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(c.R-0x1A/255.0) > 1e-6 {
		t.Fatalf("unexpected red channel: %v", c.R)
	}
}
