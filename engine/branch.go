package engine

import (
	"bytes"
	"io"

	"synhl/core"
)

// launchBranch records branch metadata on the launching frame, redirects
// output to a fresh buffer so the candidate's emission can be discarded on
// failure, and pushes the first candidate context.
func (e *Engine) launchBranch(rt *runtimeContext, branches []core.Target, branchPoint string, text string, pos int, withProto *withPrototypeRef) error {
	bm := &branchMeta{
		ctxID:       len(e.stack), // height the first candidate frame will occupy
		branchPoint: branchPoint,
		remaining:   branches,
		prevText:    text,
		prevPos:     pos,
		prevSink:    e.writer.Sink(),
	}
	rt.branchMeta = bm
	e.writer.SetSink(e.writer.NewBuffer())

	target, ok := bm.next()
	if !ok {
		return core.RuntimeError(rt.syntax.Name, rt.name, "branch action has no candidates")
	}
	return e.pushTargets([]core.Target{target}, false, true, withProto, nil)
}

// commitBranch is called from popContext when the frame directly below a
// just-popped one is waiting on a branch: the candidate succeeded (ran to
// its own pop), so its speculative buffer is appended to the real sink and
// the branch is resolved.
func (e *Engine) commitBranch(owner *runtimeContext) {
	bm := owner.branchMeta
	if buf, ok := e.writer.Sink().(*bytes.Buffer); ok {
		io.WriteString(bm.prevSink, buf.String())
	}
	e.writer.SetSink(bm.prevSink)
	owner.branchMeta = nil
}

// handleFail looks for the open branch matching failPoint, tears down
// every frame pushed since that branch launched, and either advances to
// the next candidate or — if none remain — gives up and resumes from the
// launching frame with its original (pre-speculation) output restored.
// text/pos are threaded through and returned because a successful rollback
// can jump back into text accumulated across earlier Process calls, not
// just the current one.
func (e *Engine) handleFail(failPoint string, text string, pos int, withProto *withPrototypeRef) (int, string, error) {
	var rollbackCtx *runtimeContext
	for i := len(e.stack) - 1; i >= 0; i-- {
		if e.stack[i].branchMeta != nil && e.stack[i].branchMeta.branchPoint == failPoint {
			rollbackCtx = e.stack[i]
			break
		}
	}
	if rollbackCtx == nil {
		// Per the branch_point contract, failing to find an open branch
		// with this name is a no-op, not an error.
		return pos, text, nil
	}

	bm := rollbackCtx.branchMeta
	pops := len(e.stack) - bm.ctxID
	for i := 0; i < pops; i++ {
		if _, err := e.popContext(false); err != nil {
			return pos, text, err
		}
	}

	newPos, newText, prevSink := bm.prevPos, bm.prevText, bm.prevSink
	e.writer.SetSink(e.writer.NewBuffer())

	if target, ok := bm.next(); ok {
		if err := e.pushTargets([]core.Target{target}, false, true, withProto, nil); err != nil {
			return newPos, newText, err
		}
		return newPos, newText, nil
	}
	e.writer.SetSink(prevSink)
	rollbackCtx.branchMeta = nil
	return newPos, newText, nil
}
