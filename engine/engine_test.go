package engine

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"synhl/core"
	"synhl/output"
	"synhl/syntaxfile"
)

// styleCall records one Resolve invocation: the scope stack at call time
// (deep-copied, since Writer mutates its slice in place) and the token, if
// any, the call was made for.
type styleCall struct {
	stack [][]string
	token string
}

// recordingStyler is a fake output.Styler that never colors anything but
// remembers every call, so tests can assert on scope stacks and token order
// without needing a real color scheme.
type recordingStyler struct {
	calls []styleCall
}

func (r *recordingStyler) Resolve(stack [][]string, token string) (int, int) {
	cp := make([][]string, len(stack))
	copy(cp, stack)
	r.calls = append(r.calls, styleCall{stack: cp, token: token})
	return -1, -1
}

// hasTag reports whether any recorded token-write call's scope stack
// contains the given dotted tag as its topmost frame.
func (r *recordingStyler) hasTopTag(token, tag string) bool {
	for _, c := range r.calls {
		if c.token != token || len(c.stack) == 0 {
			continue
		}
		top := c.stack[len(c.stack)-1]
		for _, part := range top {
			if part == tag {
				return true
			}
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }

// stripSGR removes the literal reset sequence recordingStyler's fixed
// (-1, -1) result always produces via output.TermColor, isolating the
// plain text a sink captured from the SGR codes interleaved with it.
// Exhausted-context filler characters go straight to the sink with no SGR
// of their own (see output.Writer.WriteRaw), so this only ever needs to
// strip the reset, never a color-index escape.
func stripSGR(s string) string {
	return strings.ReplaceAll(s, "\x1b[0m", "")
}

func newTestEngine(t *testing.T, syntax *core.Syntax) (*Engine, *recordingStyler, *strings.Builder) {
	t.Helper()
	styler := &recordingStyler{}
	var sink strings.Builder
	writer := output.New(&sink, styler, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := New(syntaxfile.NewRegistry(nil), writer, syntax, logger, false)
	require.NoError(t, eng.Begin())
	return eng, styler, &sink
}

// TestPlainLiteral is scenario S1: a single `match` action with a plain
// scope, run against text split across words and spaces.
func TestPlainLiteral(t *testing.T) {
	syntax := &core.Syntax{
		Name: "s1",
		Contexts: map[string]*core.Context{
			"main": {
				Name: "main",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `\w+`, Scope: "keyword"},
				},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, syntax)

	require.NoError(t, eng.Process("foo bar"))
	require.NoError(t, eng.End())

	require.Equal(t, "foo bar", stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("foo", "keyword"))
	require.True(t, styler.hasTopTag("bar", "keyword"))
}

// TestMultibyteFillerAndMatch is a regression test for rune/byte offset
// confusion: a multi-byte rune sits in the unmatched filler gap before a
// later match, and another sits inside a matched token. Both must survive
// byte-for-byte, and the cursor must not desync partway through.
func TestMultibyteFillerAndMatch(t *testing.T) {
	syntax := &core.Syntax{
		Name: "s7",
		Contexts: map[string]*core.Context{
			"main": {
				Name: "main",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `wörd`, Scope: "keyword"},
				},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, syntax)

	input := "héllo wörd ✓"
	require.NoError(t, eng.Process(input))
	require.NoError(t, eng.End())

	require.Equal(t, input, stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("wörd", "keyword"))
}

// TestPushPop is scenario S2: entering and leaving a quoted-string context
// via push/pop leaves the surrounding text unscoped.
func TestPushPop(t *testing.T) {
	syntax := &core.Syntax{
		Name: "s2",
		Contexts: map[string]*core.Context{
			"main": {
				Name: "main",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `"`, Push: []core.Target{{Kind: core.TargetName, Name: "string"}}},
				},
			},
			"string": {
				Name:      "string",
				MetaScope: "string.quoted",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `"`, Pop: 1},
					{Kind: core.ActionMatch, Pattern: `[^"]+`},
				},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, syntax)

	require.NoError(t, eng.Process(`a"b"c`))
	require.NoError(t, eng.End())

	require.Equal(t, `a"b"c`, stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("b", "quoted"))
	require.False(t, styler.hasTopTag("a", "quoted"))
	require.False(t, styler.hasTopTag("c", "quoted"))
}

// TestSet is scenario S3: `set` behaves like the S2 push/pop but without
// growing the stack — replacing main's own frame rather than nesting under
// it, so there is nothing left to pop at the closing quote.
func TestSet(t *testing.T) {
	syntax := &core.Syntax{
		Name: "s3",
		Contexts: map[string]*core.Context{
			"main": {
				Name: "main",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `"`, Set: []core.Target{{Kind: core.TargetName, Name: "string"}}},
				},
			},
			"string": {
				Name:      "string",
				MetaScope: "string.quoted",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `"`, Set: []core.Target{{Kind: core.TargetName, Name: "main"}}},
					{Kind: core.ActionMatch, Pattern: `[^"]+`},
				},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, syntax)

	require.NoError(t, eng.Process(`"b"`))
	require.Equal(t, 1, len(eng.stack), "set must not leave extra frames stacked up")
	require.NoError(t, eng.End())

	require.Equal(t, `"b"`, stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("b", "quoted"))
}

// TestIncludePrototype is scenario S4: a context's prototype-derived comment
// handling applies unless meta_include_prototype: false opts out of it.
func TestIncludePrototype(t *testing.T) {
	input := "code /*c*/ code"

	withProto := &core.Syntax{
		Name: "s4a",
		Contexts: map[string]*core.Context{
			"prototype": {
				Name:    "prototype",
				Actions: []*core.Action{{Kind: core.ActionMatch, Pattern: `/\*.*?\*/`, Scope: "comment.block"}},
			},
			"main": {
				Name:    "main",
				Actions: []*core.Action{{Kind: core.ActionMatch, Pattern: `\w+`, Scope: "source.word"}},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, withProto)
	require.NoError(t, eng.Process(input))
	require.NoError(t, eng.End())
	require.Equal(t, input, stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("/*c*/", "comment"))

	withoutProto := &core.Syntax{
		Name: "s4b",
		Contexts: map[string]*core.Context{
			"prototype": {
				Name:    "prototype",
				Actions: []*core.Action{{Kind: core.ActionMatch, Pattern: `/\*.*?\*/`, Scope: "comment.block"}},
			},
			"main": {
				Name:                 "main",
				MetaIncludePrototype: boolPtr(false),
				Actions:              []*core.Action{{Kind: core.ActionMatch, Pattern: `\w+`, Scope: "source.word"}},
			},
		},
	}
	eng2, styler2, sink2 := newTestEngine(t, withoutProto)
	require.NoError(t, eng2.Process(input))
	require.NoError(t, eng2.End())
	require.Equal(t, input, stripSGR(sink2.String()))
	require.False(t, styler2.hasTopTag("/*c*/", "comment"))
}

// TestBranchCommit is scenario S5: the first branch candidate fails and
// rolls back to the branch point, the second succeeds, and only the
// second's output survives.
func TestBranchCommit(t *testing.T) {
	syntax := &core.Syntax{
		Name: "s5",
		Contexts: map[string]*core.Context{
			"main": {
				Name: "main",
				Actions: []*core.Action{
					{
						Kind:        core.ActionMatch,
						Pattern:     `(?=.)`,
						BranchPoint: "bp",
						Branch:      []core.Target{{Kind: core.TargetName, Name: "A"}, {Kind: core.TargetName, Name: "B"}},
					},
				},
			},
			"A": {
				Name:    "A",
				Actions: []*core.Action{{Kind: core.ActionMatch, Pattern: `x`, Fail: "bp"}},
			},
			"B": {
				Name:    "B",
				Actions: []*core.Action{{Kind: core.ActionMatch, Pattern: `xy`, Scope: "b.match"}},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, syntax)

	require.NoError(t, eng.Process("xy"))
	require.NoError(t, eng.End())

	// The failed candidate A's speculative write ("x") never reaches the
	// real sink; only B's committed emission does — the sink is the
	// source of truth for what actually got emitted.
	require.Equal(t, "xy", stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("xy", "match"))
}

// TestEmbed is scenario S6: an HTML-in-JS-style embed renders the embedded
// region under its own scope, the escape token ends the embed, and the
// tail resumes under the outer (unscoped) context.
func TestEmbed(t *testing.T) {
	syntax := &core.Syntax{
		Name: "s6",
		Contexts: map[string]*core.Context{
			"main": {
				Name: "main",
				Actions: []*core.Action{
					{Kind: core.ActionMatch, Pattern: `<script>`, Push: []core.Target{{Kind: core.TargetName, Name: "script"}}},
				},
			},
			"script": {
				Name: "script",
				Actions: []*core.Action{
					{
						Kind:       core.ActionMatch,
						Pattern:    `(?=.)`,
						Embed:      "jsBody",
						EmbedScope: "embedded.js",
						Escape:     `</script>`,
					},
				},
			},
			"jsBody": {
				Name:    "jsBody",
				Actions: []*core.Action{{Kind: core.ActionMatch, Pattern: `\w+`, Scope: "source.js"}},
			},
		},
	}
	eng, styler, sink := newTestEngine(t, syntax)

	input := "<script>var x=1;</script>tail"
	require.NoError(t, eng.Process(input))
	require.Equal(t, 1, len(eng.stack), "embed rollback must land back on the pushing context's parent")
	require.NoError(t, eng.End())

	require.Equal(t, input, stripSGR(sink.String()))
	require.True(t, styler.hasTopTag("var", "js"))
	require.True(t, styler.hasTopTag("x", "js"))
}
