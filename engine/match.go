package engine

import (
	"sort"

	"github.com/dlclark/regexp2"

	"synhl/core"
)

// actionMatch runs one `match` action at pos, and on success emits the
// matched token (split across scope/captures as configured) and dispatches
// whichever of push/set/pop/branch/fail/embed the action specifies. This
// is the single busiest function in the engine — every matched token
// passes through it (only exhausted-context filler characters bypass it,
// see Process) — so its control flow mirrors the reference
// action_match almost statement for statement.
func (e *Engine) actionMatch(rt *runtimeContext, text string, pos int, action *core.Action) (int, string, error) {
	re, err := e.compiledPattern(rt, action)
	if err != nil {
		return pos, text, err
	}
	m, err := matchAt(re, text, pos)
	if err != nil {
		return pos, text, err
	}
	if m == nil {
		return pos, text, nil
	}

	push := action.Push
	pop := action.Pop
	if len(action.Set) > 0 {
		pop = 1
		push = action.Set
	}

	var withProto *withPrototypeRef
	if len(action.WithPrototype) > 0 {
		ctx, syn, _, err := e.resolveTarget(action.WithPrototype[0], rt.syntax)
		if err != nil {
			return pos, text, err
		}
		withProto = &withPrototypeRef{context: ctx, syntax: syn}
	}

	var embedSt *embedState
	if action.Embed != "" {
		push = []core.Target{targetFromRef(action.Embed)}
		if action.Escape == "" {
			return pos, text, core.ConfigError(rt.syntax.Name, rt.name, "embed requires an escape pattern")
		}
		escapeText := substituteEmbedBackrefs(action.Escape, m)
		escapeRe, err := compilePattern(rt.syntax, rt.name, escapeText)
		if err != nil {
			return pos, text, err
		}
		rollbackID := len(e.stack) - 1
		for i := len(e.stack) - 1; i >= 0; i-- {
			if !e.stack[i].included {
				rollbackID = i
				break
			}
		}
		embedSt = &embedState{
			escape:         escapeRe,
			rollbackID:     rollbackID,
			contentScope:   action.EmbedScope,
			escapeCaptures: action.EscapeCaptures,
		}
	}

	metaScope := ""
	if len(push) > 0 {
		if pushCtx := e.peekContext(push, rt.syntax); pushCtx != nil {
			metaScope = pushCtx.MetaScope
			if metaScope != "" {
				e.writer.PushScope(metaScope)
			}
		}
	}

	mbegin := m.Index
	newPos := m.Index + m.Length

	if mbegin < newPos {
		if action.Scope != "" {
			e.writer.PushScope(action.Scope)
		}
		if len(action.Captures) > 0 {
			e.writeCaptures(text, mbegin, newPos, m, action.Captures)
		} else {
			e.writer.WriteToken(runeSlice(text, mbegin, newPos))
		}
		if action.Scope != "" {
			e.writer.PopScope()
		}
	}

	if pop > 0 {
		handleBranching := len(push) == 0
		i := 0
		for i < pop {
			top := e.top()
			counts := !top.included || top.branchMeta != nil
			if _, err := e.popContext(handleBranching); err != nil {
				return newPos, text, err
			}
			if counts {
				i++
			}
		}
		if len(push) == 0 && len(action.Branch) == 0 && action.Fail == "" {
			top := e.top()
			for top.included && top.branchMeta == nil {
				if _, err := e.popContext(handleBranching); err != nil {
					return newPos, text, err
				}
				top = e.top()
			}
			if !top.included && top.branchMeta == nil {
				if err := e.resetContext(top); err != nil {
					return newPos, text, err
				}
			}
		}
	}

	switch {
	case len(push) > 0:
		if embedSt != nil && embedSt.contentScope != "" {
			e.writer.PushScope(embedSt.contentScope)
		}
		if err := e.pushTargets(push, false, metaScope == "", withProto, embedSt); err != nil {
			return newPos, text, err
		}
	case len(action.Branch) > 0:
		if err := e.launchBranch(rt, action.Branch, action.BranchPoint, text, newPos, withProto); err != nil {
			return newPos, text, err
		}
	case action.Fail != "":
		np, nt, err := e.handleFail(action.Fail, text, newPos, withProto)
		if err != nil {
			return np, nt, err
		}
		newPos, text = np, nt
	case pop == 0:
		top := e.top()
		for top.included && top.branchMeta == nil {
			if _, err := e.popContext(true); err != nil {
				return newPos, text, err
			}
			top = e.top()
		}
		if !top.included && top.branchMeta == nil {
			if err := e.resetContext(top); err != nil {
				return newPos, text, err
			}
		}
	}

	return newPos, text, nil
}

// writeCaptures walks a captures map in ascending group-index order,
// writing the plain text between captures, then each captured group
// wrapped in its own scope push/pop, and finally whatever trails the last
// capture. A group that did not participate in the match (no span) is
// skipped entirely, leaving mbegin wherever it was.
func (e *Engine) writeCaptures(text string, mbegin, end int, m *regexp2.Match, captures map[int]string) {
	runes := []rune(text)
	idxs := make([]int, 0, len(captures))
	for idx := range captures {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		group := m.GroupByNumber(idx)
		if group == nil || group.Index < 0 {
			continue
		}
		gb, ge := group.Index, group.Index+group.Length
		if mbegin < gb {
			e.writer.WriteToken(string(runes[mbegin:gb]))
			mbegin = gb
		}
		if gb < ge {
			e.writer.PushScope(captures[idx])
			e.writer.WriteToken(string(runes[gb:ge]))
			e.writer.PopScope()
			mbegin = ge
		}
	}
	if mbegin < end {
		e.writer.WriteToken(string(runes[mbegin:end]))
	}
}

// compiledPattern returns the action's compiled pattern, compiling (and
// caching on the action) on first use — the syntax loader only parses the
// pattern text, compilation is deferred to here.
func (e *Engine) compiledPattern(rt *runtimeContext, action *core.Action) (*regexp2.Regexp, error) {
	if action.Compiled != nil {
		return action.Compiled.(*regexp2.Regexp), nil
	}
	re, err := compilePattern(rt.syntax, rt.name, action.Pattern)
	if err != nil {
		return nil, err
	}
	action.Compiled = re
	return re, nil
}
