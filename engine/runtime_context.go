// Package engine implements the context stack machine: the per-character
// state machine that drives regex matches against the top-of-stack
// context, manages the scope stack via the output writer, and implements
// push/pop/set/include/branch/fail/embed.
package engine

import (
	"io"

	"github.com/dlclark/regexp2"

	"synhl/core"
)

// runtimeContext is one stack frame. It is engine-private state (the data
// model in core only describes the static syntax definition); this is
// where the "program counter" for a context lives.
type runtimeContext struct {
	syntax  *core.Syntax
	name    string
	actions []*core.Action
	curIdx  int

	included bool

	metaScope            string
	metaContentScope     string
	metaIncludePrototype *bool // mirrors the owning core.Context's flag

	withPrototype *withPrototypeRef
	embed         *embedState
	branchMeta    *branchMeta
}

type withPrototypeRef struct {
	context *core.Context
	syntax  *core.Syntax
}

type embedState struct {
	escape         *regexp2.Regexp
	rollbackID     int
	contentScope   string
	escapeCaptures map[int]string
}

// branchMeta is attached to the frame that launched a `branch` action —
// the frame directly below the pushed candidate context, per hl.py's
// BranchMetadata.
type branchMeta struct {
	ctxID       int // stack height of the frame pushed for the active candidate
	branchPoint string
	remaining   []core.Target
	nextIdx     int
	prevText    string
	prevPos     int
	prevSink    io.Writer
}

func (b *branchMeta) next() (core.Target, bool) {
	if b.nextIdx >= len(b.remaining) {
		return core.Target{}, false
	}
	t := b.remaining[b.nextIdx]
	b.nextIdx++
	return t, true
}

func newRuntimeContext(syntax *core.Syntax, name string, ctx *core.Context, included bool, wp *withPrototypeRef, em *embedState) *runtimeContext {
	return &runtimeContext{
		syntax:               syntax,
		name:                 name,
		actions:              ctx.Actions,
		included:             included,
		metaIncludePrototype: ctx.MetaIncludePrototype,
		withPrototype:        wp,
		embed:                em,
	}
}
