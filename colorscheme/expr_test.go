package colorscheme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalColorHex(t *testing.T) {
	c, err := EvalColor(nil, "#ff0000")
	require.NoError(t, err)
	require.InDelta(t, 1.0, c.R, 0.01)
	require.InDelta(t, 0.0, c.G, 0.01)
	require.InDelta(t, 1.0, c.A, 0.01)
}

func TestEvalColorShortHex(t *testing.T) {
	c, err := EvalColor(nil, "#f00")
	require.NoError(t, err)
	require.InDelta(t, 1.0, c.R, 0.01)
	require.InDelta(t, 0.0, c.G, 0.01)
}

func TestEvalColorHexWithAlpha(t *testing.T) {
	c, err := EvalColor(nil, "#ff000080")
	require.NoError(t, err)
	require.InDelta(t, 0.5, c.A, 0.01)
}

func TestEvalColorNamed(t *testing.T) {
	c, err := EvalColor(nil, "white")
	require.NoError(t, err)
	require.InDelta(t, 1.0, c.R, 0.01)
	require.InDelta(t, 1.0, c.G, 0.01)
	require.InDelta(t, 1.0, c.B, 0.01)
}

func TestEvalColorRGB(t *testing.T) {
	c, err := EvalColor(nil, "rgb(255, 0, 0)")
	require.NoError(t, err)
	require.InDelta(t, 1.0, c.R, 0.01)
	require.InDelta(t, 0.0, c.G, 0.01)
}

func TestEvalColorRGBA(t *testing.T) {
	c, err := EvalColor(nil, "rgba(0, 255, 0, 0.5)")
	require.NoError(t, err)
	require.InDelta(t, 0.0, c.R, 0.01)
	require.InDelta(t, 1.0, c.G, 0.01)
	require.InDelta(t, 0.5, c.A, 0.01)
}

func TestEvalColorHSL(t *testing.T) {
	c, err := EvalColor(nil, "hsl(0, 100%, 50%)")
	require.NoError(t, err)
	require.InDelta(t, 1.0, c.R, 0.05)
	require.InDelta(t, 0.0, c.G, 0.05)
}

func TestEvalColorVar(t *testing.T) {
	vars := map[string]string{"accent": "#00ff00"}
	c, err := EvalColor(vars, "var(accent)")
	require.NoError(t, err)
	require.InDelta(t, 0.0, c.R, 0.01)
	require.InDelta(t, 1.0, c.G, 0.01)
}

func TestEvalColorVarUndefined(t *testing.T) {
	_, err := EvalColor(nil, "var(missing)")
	require.Error(t, err)
}

func TestEvalColorAlphaAdjuster(t *testing.T) {
	c, err := EvalColor(nil, "color(white alpha(0.3))")
	require.NoError(t, err)
	require.InDelta(t, 0.3, c.A, 0.01)
}

func TestEvalColorBlendAdjuster(t *testing.T) {
	c, err := EvalColor(nil, "color(black blend(white 50%))")
	require.NoError(t, err)
	require.InDelta(t, 0.5, c.R, 0.02)
	require.InDelta(t, 0.5, c.G, 0.02)
	require.InDelta(t, 0.5, c.B, 0.02)
}

func TestEvalColorUnsupportedFunction(t *testing.T) {
	_, err := EvalColor(nil, "cmyk(0, 0, 0, 0)")
	require.Error(t, err)
}

func TestEvalColorUnrecognized(t *testing.T) {
	_, err := EvalColor(nil, "not-a-color")
	require.Error(t, err)
}

func TestEvalColorEmpty(t *testing.T) {
	_, err := EvalColor(nil, "")
	require.Error(t, err)
}

func TestSplitArgsRespectsNestedParens(t *testing.T) {
	got := splitArgs("black blend(white, 50%)")
	require.Equal(t, []string{"black", "blend(white, 50%)"}, got)
}

func TestMustHexPanicsOnInvalidHex(t *testing.T) {
	require.Panics(t, func() { mustHex("not-hex") })
}
