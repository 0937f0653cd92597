package style

import (
	"testing"

	"github.com/stretchr/testify/require"

	"synhl/colorscheme"
	"synhl/core"
)

func testScheme() *core.ColorScheme {
	return &core.ColorScheme{
		Name: "test",
		Rules: []core.StyleRule{
			{Selector: "keyword", Foreground: []core.RGBA{{R: 1, G: 0, B: 0, A: 1}}},
			{Selector: "comment", Foreground: []core.RGBA{{R: 0, G: 1, B: 0, A: 1}}},
			{
				Selector: "gradient",
				Foreground: []core.RGBA{
					{R: 1, G: 0, B: 0, A: 1},
					{R: 0, G: 0, B: 1, A: 1},
				},
			},
		},
	}
}

func TestResolveScoresBestMatchingRule(t *testing.T) {
	r := New(testScheme())

	fgKeyword, _ := r.Resolve([][]string{{"keyword"}}, "tok")
	fgComment, _ := r.Resolve([][]string{{"comment"}}, "tok")

	require.Equal(t, colorscheme.ToANSI256(core.RGBA{R: 1, A: 1}), fgKeyword)
	require.Equal(t, colorscheme.ToANSI256(core.RGBA{G: 1, A: 1}), fgComment)
	require.NotEqual(t, fgKeyword, fgComment)
}

func TestResolveCachesByStackAndToken(t *testing.T) {
	r := New(testScheme())

	fg1, bg1 := r.Resolve([][]string{{"keyword"}}, "tok")
	fg2, bg2 := r.Resolve([][]string{{"keyword"}}, "tok")

	require.Equal(t, fg1, fg2)
	require.Equal(t, bg1, bg2)
	require.Len(t, r.cache, 1)
}

func TestResolveGradientSamplesDeterministically(t *testing.T) {
	r := New(testScheme())

	fg1, _ := r.Resolve([][]string{{"gradient"}}, "same-token")
	fg2, _ := r.Resolve([][]string{{"gradient"}}, "same-token")
	require.Equal(t, fg1, fg2, "the same token must always sample the same gradient position")
}

func TestResolveNoRuleMatchesReturnsNoColor(t *testing.T) {
	r := New(&core.ColorScheme{})
	fg, bg := r.Resolve([][]string{{"anything"}}, "tok")
	require.Equal(t, -1, fg)
	require.Equal(t, -1, bg)
}

func TestResolveFallsBackToGlobalsWhenNoRuleScores(t *testing.T) {
	scheme := testScheme()
	scheme.Globals = map[string]core.RGBA{
		"foreground": {R: 0, G: 0, B: 1, A: 1},
		"background": {R: 1, G: 1, B: 1, A: 1},
	}
	r := New(scheme)

	fg, bg := r.Resolve([][]string{{"plain"}}, "tok")

	require.Equal(t, colorscheme.ToANSI256(core.RGBA{B: 1, A: 1}), fg)
	require.Equal(t, colorscheme.ToANSI256(core.RGBA{R: 1, G: 1, B: 1, A: 1}), bg)
}

func TestResolveNeverPicksAZeroScoringRuleOverGlobals(t *testing.T) {
	// Regression: best must not start at -1, or a rule that scores 0 (no
	// real match) would still beat the sentinel and win over the globals
	// fallback.
	scheme := &core.ColorScheme{
		Rules: []core.StyleRule{
			{Selector: "keyword", Foreground: []core.RGBA{{R: 1, A: 1}}},
		},
		Globals: map[string]core.RGBA{
			"foreground": {G: 1, A: 1},
		},
	}
	r := New(scheme)

	fg, _ := r.Resolve([][]string{{"comment"}}, "tok")

	require.Equal(t, colorscheme.ToANSI256(core.RGBA{G: 1, A: 1}), fg)
}
