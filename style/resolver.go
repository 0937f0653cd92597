// Package style resolves a scope stack (plus, for gradients, the token
// text being colored) to a concrete foreground/background ANSI-256 pair,
// by scoring every color-scheme rule's selector and taking the best match.
package style

import (
	"hash/fnv"
	"strings"
	"sync"

	"synhl/colorscheme"
	"synhl/core"
	"synhl/selector"
)

// compiledRule pairs a parsed selector with its scheme colors so scoring
// never re-tokenizes the same selector text on every token.
type compiledRule struct {
	node selector.Node
	rule core.StyleRule
}

// Resolver implements output.Styler against a loaded color scheme.
type Resolver struct {
	scheme *core.ColorScheme
	rules  []compiledRule

	mu    sync.Mutex
	cache map[cacheKey][2]int
}

type cacheKey struct {
	stackSig string
	token    string
}

// New compiles every rule selector once up front; a scheme with an
// unparseable selector is a configuration error the caller should have
// surfaced before reaching here, so compilation failures are skipped with
// the rule simply never matching (mirrors hl.py's best-effort load).
func New(scheme *core.ColorScheme) *Resolver {
	r := &Resolver{scheme: scheme, cache: make(map[cacheKey][2]int)}
	for _, rule := range scheme.Rules {
		n, err := selector.Parse(rule.Selector)
		if err != nil {
			continue
		}
		r.rules = append(r.rules, compiledRule{node: n, rule: rule})
	}
	return r
}

// Resolve implements output.Styler. token is empty for a pure scope
// push/pop SGR refresh and non-empty for the color actually applied to
// emitted text — gradients sample a position along their stops keyed on
// the token's hash, matching hl.py's token_color. A rule only wins with a
// strictly positive score; when nothing scores above zero, Resolve falls
// back to the scheme's globals foreground/background rather than the
// first (non-matching) rule, matching token_color's
// `if score > 0 and (best is None or score > best_score)` gate.
func (r *Resolver) Resolve(stack [][]string, token string) (fg, bg int) {
	key := cacheKey{stackSig: stackSignature(stack), token: token}
	r.mu.Lock()
	if v, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return v[0], v[1]
	}
	r.mu.Unlock()

	best := 0
	var bestRule *core.StyleRule
	for i := range r.rules {
		s := selector.Score(r.rules[i].node, stack)
		if s > best {
			best = s
			bestRule = &r.rules[i].rule
		}
	}

	fg, bg = -1, -1
	if bestRule != nil {
		fg = sampleChannel(bestRule.Foreground, token)
		bg = sampleChannel(bestRule.Background, token)
	} else {
		if c, ok := r.scheme.Globals["foreground"]; ok {
			fg = colorscheme.ToANSI256(c)
		}
		if c, ok := r.scheme.Globals["background"]; ok {
			bg = colorscheme.ToANSI256(c)
		}
	}

	r.mu.Lock()
	r.cache[key] = [2]int{fg, bg}
	r.mu.Unlock()
	return fg, bg
}

// sampleChannel maps a (possibly multi-stop) color list to a single
// ANSI-256 index. A single stop is used as-is; a gradient is sampled at a
// position derived from hash(token), interpolating between the floor and
// ceiling stops in HLSA space with shortest-arc hue blending.
func sampleChannel(stops []core.RGBA, token string) int {
	if len(stops) == 0 {
		return -1
	}
	if len(stops) == 1 || token == "" {
		return colorscheme.ToANSI256(stops[0])
	}
	t := gradientPosition(token) * float64(len(stops)-1)
	lo := int(t)
	hi := lo + 1
	if hi >= len(stops) {
		return colorscheme.ToANSI256(stops[len(stops)-1])
	}
	frac := t - float64(lo)
	c0 := colorscheme.RGBAToHLSA(stops[lo])
	c1 := colorscheme.RGBAToHLSA(stops[hi])
	blended := colorscheme.HLSALerp(c0, c1, frac)
	return colorscheme.ToANSI256(colorscheme.HLSAToRGBA(blended))
}

// gradientPosition derives a stable pseudo-random position in [0, 1) from
// a token's text, so the same token always samples the same point along a
// gradient within a run.
func gradientPosition(token string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return float64(h.Sum32()%255) / 255.0
}

// stackSignature renders a scope stack into a stable cache key without
// allocating a slice-of-slice comparison on every lookup.
func stackSignature(stack [][]string) string {
	var b strings.Builder
	for i, tags := range stack {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(tags, "."))
	}
	return b.String()
}
