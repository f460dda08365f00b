package entities

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// SRGB is a colour in the sRGB gamut with components in [0,1].
type SRGB struct {
	R, G, B float64
}

// ParseSRGBHex parses a "#rrggbb" or "#rgb" hex string into sRGB, using
// go-colorful's hex parser (the ecosystem's standard sRGB/hex routine in the
// retrieval pack).
func ParseSRGBHex(hex string) (SRGB, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return SRGB{}, fmt.Errorf("entities: invalid sRGB hex %q: %w", hex, err)
	}
	return SRGB{R: c.R, G: c.G, B: c.B}, nil
}

// SRGBFromComponents builds an SRGB value from three [0,1] channel floats,
// the representation DTIF documents use for `{srgb: [r,g,b]}` literals.
func SRGBFromComponents(r, g, b float64) SRGB {
	return SRGB{R: r, G: g, B: b}
}

// Hex renders the colour as a lowercase "#rrggbb" string.
func (c SRGB) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Hex()
}

// srgbToLinear converts one gamma-encoded sRGB channel to linear light,
// per the IEC 61966-2-1 piecewise transfer function.
func srgbToLinear(channel float64) float64 {
	if channel <= 0.04045 {
		return channel / 12.92
	}
	return math.Pow((channel+0.055)/1.055, 2.4)
}

// RelativeLuminance computes the WCAG relative luminance of an sRGB colour:
// L = 0.2126*R_lin + 0.7152*G_lin + 0.0722*B_lin.
func (c SRGB) RelativeLuminance() float64 {
	r := srgbToLinear(c.R)
	g := srgbToLinear(c.G)
	b := srgbToLinear(c.B)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio computes the WCAG contrast ratio between two colours:
// (L1+0.05)/(L2+0.05) where L1 is the lighter of the two relative
// luminances, per §4.5 governance.wcagContrast.
func ContrastRatio(fg, bg SRGB) float64 {
	l1 := fg.RelativeLuminance()
	l2 := bg.RelativeLuminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// OKLab is a colour in the Björn Ottosson OKLab perceptual space.
type OKLab struct {
	L, A, B float64
}

// OKLCH is OKLab expressed in cylindrical (lightness, chroma, hue) form.
type OKLCH struct {
	L, C, H float64
}

// linearToOKLab converts a linear-light sRGB colour to OKLab using the
// published OKLab reference matrices. Cross-check against
// https://bottosson.github.io/posts/oklab/ when modifying these constants.
func linearToOKLab(r, g, b float64) OKLab {
	l := 0.4122214708*r + 0.5363325363*g + 0.0514459929*b
	m := 0.2119034982*r + 0.6806995451*g + 0.1073969566*b
	s := 0.0883024619*r + 0.2817188376*g + 0.6299787005*b

	l_ := math.Cbrt(l)
	m_ := math.Cbrt(m)
	s_ := math.Cbrt(s)

	return OKLab{
		L: 0.2104542553*l_ + 0.7936177850*m_ - 0.0040720468*s_,
		A: 1.9779984951*l_ - 2.4285922050*m_ + 0.4505937099*s_,
		B: 0.0259040371*l_ + 0.7827717662*m_ - 0.8086757660*s_,
	}
}

// oklabToLinear is the inverse of linearToOKLab.
func oklabToLinear(lab OKLab) (r, g, b float64) {
	l_ := lab.L + 0.3963377774*lab.A + 0.2158037573*lab.B
	m_ := lab.L - 0.1055613458*lab.A - 0.0638541728*lab.B
	s_ := lab.L - 0.0894841775*lab.A - 1.2914855480*lab.B

	l := l_ * l_ * l_
	m := m_ * m_ * m_
	s := s_ * s_ * s_

	r = +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g = -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b = -0.0041960863*l - 0.7034186147*m + 1.7076147010*s
	return r, g, b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func linearToSRGBChannel(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func srgbToLinearColor(c SRGB) (r, g, b float64) {
	return srgbToLinear(c.R), srgbToLinear(c.G), srgbToLinear(c.B)
}

// ToOKLab converts sRGB to OKLab.
func (c SRGB) ToOKLab() OKLab {
	r, g, b := srgbToLinearColor(c)
	return linearToOKLab(r, g, b)
}

// ToOKLCH converts sRGB to OKLCH (cylindrical OKLab).
func (c SRGB) ToOKLCH() OKLCH {
	lab := c.ToOKLab()
	return lab.ToOKLCH()
}

// ToOKLCH converts OKLab to its cylindrical OKLCH form.
func (lab OKLab) ToOKLCH() OKLCH {
	c := math.Hypot(lab.A, lab.B)
	h := math.Atan2(lab.B, lab.A) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return OKLCH{L: lab.L, C: c, H: h}
}

// ToOKLab converts cylindrical OKLCH back to OKLab.
func (o OKLCH) ToOKLab() OKLab {
	rad := o.H * math.Pi / 180
	return OKLab{
		L: o.L,
		A: o.C * math.Cos(rad),
		B: o.C * math.Sin(rad),
	}
}

// ToSRGB converts OKLCH back to gamma-encoded sRGB, clamping out-of-gamut
// channels to [0,1].
func (o OKLCH) ToSRGB() SRGB {
	r, g, b := oklabToLinear(o.ToOKLab())
	return SRGB{
		R: linearToSRGBChannel(r),
		G: linearToSRGBChannel(g),
		B: linearToSRGBChannel(b),
	}
}
