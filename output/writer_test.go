package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubStyler struct {
	fg, bg int
}

func (s stubStyler) Resolve(_ [][]string, _ string) (int, int) { return s.fg, s.bg }

func TestPushScopeSplitsOnSpacesAndTracksGroupSize(t *testing.T) {
	var sink strings.Builder
	w := New(&sink, stubStyler{fg: -1, bg: -1}, false)

	w.PushScope("keyword.control string.quoted")
	require.Equal(t, [][]string{{"keyword", "control"}, {"string", "quoted"}}, w.Stack())

	w.PopScope()
	require.Empty(t, w.Stack(), "a single PushScope call's group must pop atomically")
}

func TestPopScopeIsNoopOnEmptyStack(t *testing.T) {
	var sink strings.Builder
	w := New(&sink, stubStyler{fg: -1, bg: -1}, false)
	require.NotPanics(t, w.PopScope)
}

func TestWriteTokenEmitsSGRThenText(t *testing.T) {
	var sink strings.Builder
	w := New(&sink, stubStyler{fg: 1, bg: 2}, false)
	w.WriteToken("hi")
	require.Equal(t, "\x1b[38;5;1m\x1b[48;5;2mhi", sink.String())
}

func TestShowScopesWrapsTagsInAngleBrackets(t *testing.T) {
	var sink strings.Builder
	w := New(&sink, stubStyler{fg: -1, bg: -1}, true)
	w.PushScope("keyword")
	w.PopScope()
	require.Contains(t, sink.String(), "<keyword>")
	require.Contains(t, sink.String(), "</keyword>")
}

func TestTermColorResetsOnNegativeColor(t *testing.T) {
	require.Equal(t, "\x1b[0m", TermColor(-1, 5))
	require.Equal(t, "\x1b[0m", TermColor(5, -1))
}

func TestTermColorFormatsBothChannels(t *testing.T) {
	require.Equal(t, "\x1b[38;5;7m\x1b[48;5;200m", TermColor(7, 200))
}

func TestSetSinkReturnsPrevious(t *testing.T) {
	var a, b strings.Builder
	w := New(&a, stubStyler{fg: -1, bg: -1}, false)
	prev := w.SetSink(&b)
	require.Equal(t, &a, prev)
	require.Equal(t, &b, w.Sink())
}

func TestNewBufferIsEmpty(t *testing.T) {
	var sink strings.Builder
	w := New(&sink, stubStyler{fg: -1, bg: -1}, false)
	buf := w.NewBuffer()
	require.Equal(t, 0, buf.Len())
}
