package colorscheme

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"synhl/core"
)

// HLSA is hue/lightness/saturation/alpha, matching Python's colorsys
// ordering (not go-colorful's Hsl, which is h/s/l) — the hue-interpolation
// trick in HLSALerp depends on this exact field order being preserved
// end to end, the way hl.py's gradient sampler does.
type HLSA struct {
	H, L, S, A float64
}

// RGBAToHLSA converts via go-colorful's RGB<->HSL for the numeric
// heavy-lifting, just reordering into HLS.
func RGBAToHLSA(c core.RGBA) HLSA {
	col := colorful.Color{R: c.R, G: c.G, B: c.B}
	h, s, l := col.Hsl()
	return HLSA{H: h / 360.0, L: l, S: s, A: c.A}
}

// HLSAToRGBA is the inverse of RGBAToHLSA.
func HLSAToRGBA(c HLSA) core.RGBA {
	col := colorful.Hsl(c.H*360.0, c.S, c.L)
	r, g, b := col.R, col.G, col.B
	return core.RGBA{R: clamp01(r), G: clamp01(g), B: clamp01(b), A: c.A}
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

// HLSALerp linearly interpolates two HLSA colors at t, with hue
// interpolated along the shorter arc of the hue circle: from 0.9 to 0.1
// it moves forward through 1.0, from 0.1 to 0.9 it moves backward through
// 0.0, and equal hues stay put. The result's hue is wrapped into [0, 1).
func HLSALerp(c0, c1 HLSA, t float64) HLSA {
	invT := 1 - t
	d := c1.H - c0.H
	if d > 0.5 {
		d -= 1.0
	} else if d < -0.5 {
		d += 1.0
	}
	h := math.Mod(c0.H+d*t, 1.0)
	if h < 0 {
		h += 1.0
	}
	return HLSA{
		H: h,
		L: c0.L*invT + c1.L*t,
		S: c0.S*invT + c1.S*t,
		A: c0.A*invT + c1.A*t,
	}
}

// ToANSI256 quantizes an RGBA color to the xterm 256-color palette: exact
// greys (equal 0-255 channels) map to the 24-step greyscale ramp, or to
// cube black/white at the extremes; every other color maps to the 6x6x6
// color cube. Ported from sublcolorsys.py's rgb255_to_ansi256 — no pack
// library implements this Sublime-specific mapping, see DESIGN.md.
func ToANSI256(c core.RGBA) int {
	r := int(math.Round(c.R * 255))
	g := int(math.Round(c.G * 255))
	b := int(math.Round(c.B * 255))
	if r == g && g == b {
		if r < 8 {
			return 16
		}
		if r > 248 {
			return 231
		}
		return int(math.Round(float64(r-8)/247*24)) + 232
	}
	return 16 + 36*roundFrac(r) + 6*roundFrac(g) + roundFrac(b)
}

func roundFrac(channel int) int {
	return int(math.Round(float64(channel) / 255 * 5))
}
