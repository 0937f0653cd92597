package colorscheme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
	"github.com/lucasb-eyer/go-colorful"

	"synhl/core"
)

// EvalColor evaluates a CSS-flavored color expression as used in
// sublime-color-scheme files: hex literals, rgb()/rgba()/hsl()/hsla(),
// named colors, var(name) variable references, and the Sublime-specific
// color(<base> <adjuster>...) chain with alpha/saturation/lightness/
// blend/blenda adjusters. min-contrast is accepted and ignored, matching
// sublcolorscheme.py's evalfunc (it never implements contrast-adjustment
// despite parsing the token).
func EvalColor(vars map[string]string, expr string) (core.RGBA, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return core.RGBA{}, fmt.Errorf("empty color expression")
	}
	if s[0] == '#' {
		return hexColor(s)
	}
	if name, args, ok := extractCall(s); ok {
		return evalCall(vars, name, args)
	}
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	return core.RGBA{}, fmt.Errorf("unrecognized color expression %q", s)
}

// extractCall splits "name(args)" into name and the unparenthesized
// argument string, using the CSS scanner only to validate the leading
// token is an identifier/function (the paren-depth walk below handles
// the rest, since nested color()/blend() calls need balanced matching
// the scanner's flat token stream doesn't give for free).
func extractCall(s string) (name, args string, ok bool) {
	lex := scanner.New(s)
	tok := lex.Next()
	if tok.Type != scanner.TokenFunction {
		return "", "", false
	}
	name = strings.TrimSuffix(tok.Value, "(")
	open := strings.Index(s, "(")
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return strings.ToLower(name), s[open+1 : len(s)-1], true
}

// splitArgs splits a top-level argument string on commas or whitespace
// runs, leaving anything nested inside balanced parens untouched — color()
// separates its adjusters with spaces while the adjusters' own arguments
// (e.g. blend(#fff, 50%)) use commas, so both are treated as separators.
func splitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			depth--
			cur.WriteByte(c)
		case depth == 0 && (c == ',' || c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

func evalCall(vars map[string]string, name, argStr string) (core.RGBA, error) {
	args := splitArgs(argStr)
	switch name {
	case "var":
		if len(args) != 1 {
			return core.RGBA{}, fmt.Errorf("var() takes exactly one argument")
		}
		ref, ok := vars[strings.Trim(args[0], `"'`)]
		if !ok {
			return core.RGBA{}, fmt.Errorf("undefined color variable %q", args[0])
		}
		return EvalColor(vars, ref)
	case "rgb", "rgba":
		return evalRGB(vars, args)
	case "hsl", "hsla":
		return evalHSL(vars, args)
	case "color":
		return evalColorChain(vars, args)
	default:
		return core.RGBA{}, fmt.Errorf("unsupported color function %q", name)
	}
}

func evalColorChain(vars map[string]string, args []string) (core.RGBA, error) {
	if len(args) == 0 {
		return core.RGBA{}, fmt.Errorf("color() takes at least one argument")
	}
	base, err := EvalColor(vars, args[0])
	if err != nil {
		return core.RGBA{}, err
	}
	for _, adj := range args[1:] {
		aname, aargs, ok := extractCall(adj)
		if !ok {
			return core.RGBA{}, fmt.Errorf("unrecognized color() adjuster %q", adj)
		}
		base, err = applyAdjuster(vars, base, aname, splitArgs(aargs))
		if err != nil {
			return core.RGBA{}, err
		}
	}
	return base, nil
}

func applyAdjuster(vars map[string]string, c core.RGBA, name string, args []string) (core.RGBA, error) {
	switch name {
	case "alpha", "a":
		v, err := parseFraction(args[0])
		if err != nil {
			return c, err
		}
		c.A = v
		return c, nil
	case "saturation", "s":
		v, err := parseFraction(args[0])
		if err != nil {
			return c, err
		}
		h := RGBAToHLSA(c)
		h.S = v
		return HLSAToRGBA(h), nil
	case "lightness", "l":
		v, err := parseFraction(args[0])
		if err != nil {
			return c, err
		}
		h := RGBAToHLSA(c)
		h.L = v
		return HLSAToRGBA(h), nil
	case "blend":
		return blendAdjuster(vars, c, args)
	case "blenda":
		// blenda additionally blends alpha; an RGBA lerp already does
		// that in one step, so it is implemented identically to blend.
		return blendAdjuster(vars, c, args)
	case "min-contrast":
		return c, nil
	default:
		return c, nil
	}
}

func blendAdjuster(vars map[string]string, c core.RGBA, args []string) (core.RGBA, error) {
	if len(args) < 2 {
		return c, fmt.Errorf("blend() takes a color and a percentage")
	}
	target, err := EvalColor(vars, args[0])
	if err != nil {
		return c, err
	}
	t, err := parseFraction(args[1])
	if err != nil {
		return c, err
	}
	return core.RGBA{
		R: c.R*(1-t) + target.R*t,
		G: c.G*(1-t) + target.G*t,
		B: c.B*(1-t) + target.B*t,
		A: c.A*(1-t) + target.A*t,
	}, nil
}

func evalRGB(vars map[string]string, args []string) (core.RGBA, error) {
	if len(args) < 3 {
		return core.RGBA{}, fmt.Errorf("rgb()/rgba() takes at least 3 components")
	}
	r, err := parseChannel(args[0])
	if err != nil {
		return core.RGBA{}, err
	}
	g, err := parseChannel(args[1])
	if err != nil {
		return core.RGBA{}, err
	}
	b, err := parseChannel(args[2])
	if err != nil {
		return core.RGBA{}, err
	}
	a := 1.0
	if len(args) > 3 {
		a, err = parseFraction(args[3])
		if err != nil {
			return core.RGBA{}, err
		}
	}
	_ = vars
	return core.RGBA{R: r, G: g, B: b, A: a}, nil
}

func evalHSL(vars map[string]string, args []string) (core.RGBA, error) {
	if len(args) < 3 {
		return core.RGBA{}, fmt.Errorf("hsl()/hsla() takes at least 3 components")
	}
	h, err := parseHue(args[0])
	if err != nil {
		return core.RGBA{}, err
	}
	s, err := parseFraction(args[1])
	if err != nil {
		return core.RGBA{}, err
	}
	l, err := parseFraction(args[2])
	if err != nil {
		return core.RGBA{}, err
	}
	a := 1.0
	if len(args) > 3 {
		a, err = parseFraction(args[3])
		if err != nil {
			return core.RGBA{}, err
		}
	}
	_ = vars
	return HLSAToRGBA(HLSA{H: h / 360.0, S: s, L: l, A: a}), nil
}

func parseChannel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp01(v / 100), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp01(v / 255), nil
}

func parseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp01(v / 100), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp01(v), nil
}

func parseHue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "deg")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	for v < 0 {
		v += 360
	}
	for v >= 360 {
		v -= 360
	}
	return v, nil
}

func hexColor(s string) (core.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 4:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	a := 1.0
	rgbHex := hex
	if len(hex) == 8 {
		rgbHex = hex[:6]
		av, err := strconv.ParseUint(hex[6:8], 16, 8)
		if err != nil {
			return core.RGBA{}, err
		}
		a = float64(av) / 255
	}
	col, err := colorful.Hex("#" + rgbHex)
	if err != nil {
		return core.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return core.RGBA{R: col.R, G: col.G, B: col.B, A: a}, nil
}

var namedColors = map[string]core.RGBA{
	"transparent": {0, 0, 0, 0},
	"black":       mustHex("#000000"),
	"white":       mustHex("#ffffff"),
	"red":         mustHex("#ff0000"),
	"green":       mustHex("#008000"),
	"lime":        mustHex("#00ff00"),
	"blue":        mustHex("#0000ff"),
	"yellow":      mustHex("#ffff00"),
	"orange":      mustHex("#ffa500"),
	"purple":      mustHex("#800080"),
	"gray":        mustHex("#808080"),
	"grey":        mustHex("#808080"),
	"silver":      mustHex("#c0c0c0"),
	"maroon":      mustHex("#800000"),
	"navy":        mustHex("#000080"),
	"teal":        mustHex("#008080"),
	"olive":       mustHex("#808000"),
	"cyan":        mustHex("#00ffff"),
	"magenta":     mustHex("#ff00ff"),
	"pink":        mustHex("#ffc0cb"),
	"brown":       mustHex("#a52a2a"),
	"gold":        mustHex("#ffd700"),
	"indigo":      mustHex("#4b0082"),
	"violet":      mustHex("#ee82ee"),
	"coral":       mustHex("#ff7f50"),
	"salmon":      mustHex("#fa8072"),
	"khaki":       mustHex("#f0e68c"),
	"beige":       mustHex("#f5f5dc"),
	"tan":         mustHex("#d2b48c"),
}

func mustHex(s string) core.RGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return core.RGBA{R: c.R, G: c.G, B: c.B, A: 1}
}
