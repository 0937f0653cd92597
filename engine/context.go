package engine

import (
	"fmt"
	"strings"

	"synhl/core"
)

// targetFromRef parses a bare context reference string (used by `include`
// and `embed`, which the loader keeps as plain strings since they never
// take the list/inline-context shapes push/set/branch allow) into a
// Target, recognizing the same scope:/Packages/ prefixes syntaxfile's
// loader does for push/set/branch targets.
func targetFromRef(s string) core.Target {
	const scopePfx = "scope:"
	const pkgPfx = "Packages/"
	if strings.HasPrefix(s, scopePfx) {
		rest := s[len(scopePfx):]
		scopeName, ctxName := rest, "main"
		if i := strings.IndexByte(rest, '#'); i >= 0 {
			scopeName, ctxName = rest[:i], rest[i+1:]
		}
		return core.Target{Kind: core.TargetScopeRef, ScopeName: scopeName, CtxName: ctxName}
	}
	if strings.HasPrefix(s, pkgPfx) {
		return core.Target{Kind: core.TargetPackagesRef, PackagesPath: s}
	}
	return core.Target{Kind: core.TargetName, Name: s}
}

// resolveTarget resolves one Target against a base syntax, returning the
// context it names, the syntax that context actually lives in (which
// differs from base for scope:/Packages refs) and a display name for
// runtimeContext bookkeeping.
func (e *Engine) resolveTarget(t core.Target, base *core.Syntax) (*core.Context, *core.Syntax, string, error) {
	switch t.Kind {
	case core.TargetName:
		if t.Name == "prototype" {
			return base.Contexts["prototype"], base, "prototype", nil
		}
		ctx, ok := base.Contexts[t.Name]
		if !ok {
			return nil, nil, "", core.RuntimeError(base.Name, "", fmt.Sprintf("context %q not found", t.Name))
		}
		return ctx, base, t.Name, nil
	case core.TargetScopeRef:
		ext, err := e.registry.GetByScope(t.ScopeName)
		if err != nil {
			return nil, nil, "", err
		}
		name := t.CtxName
		if name == "" {
			name = "main"
		}
		ctx, ok := ext.Contexts[name]
		if !ok {
			return nil, nil, "", core.RuntimeError(ext.Name, "", fmt.Sprintf("context %q not found", name))
		}
		return ctx, ext, name, nil
	case core.TargetPackagesRef:
		ext, err := e.registry.GetByPackagesPath(t.PackagesPath)
		if err != nil {
			return nil, nil, "", err
		}
		ctx, ok := ext.Contexts["main"]
		if !ok {
			return nil, nil, "", core.RuntimeError(ext.Name, "", "context \"main\" not found")
		}
		return ctx, ext, "main", nil
	case core.TargetInline:
		return t.Inline, base, "", nil
	default:
		return nil, nil, "", fmt.Errorf("unsupported target kind %v", t.Kind)
	}
}

// peekContext resolves a target without pushing, used only to peek a
// pushed context's meta_scope ahead of emitting the matched token (so the
// metascope's color applies to the token itself). When push names more
// than one target the peek is skipped, approximating the reference
// implementation's own best-effort (and arguably buggy) handling of that
// combination.
func (e *Engine) peekContext(targets []core.Target, base *core.Syntax) *core.Context {
	if len(targets) != 1 {
		return nil
	}
	ctx, _, _, err := e.resolveTarget(targets[0], base)
	if err != nil {
		return nil
	}
	return ctx
}

// pushTargets pushes one or more targets in order against the same base
// syntax — list-form push/set/branch targets share syntax across the
// whole push so mixed-syntax prototypes don't desync.
func (e *Engine) pushTargets(targets []core.Target, included bool, doMetaScope bool, withProto *withPrototypeRef, embed *embedState) error {
	base := e.ctxSyntax()
	for _, t := range targets {
		if err := e.pushOne(t, included, base, doMetaScope, withProto, embed); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushOne(t core.Target, included bool, base *core.Syntax, doMetaScope bool, withProto *withPrototypeRef, embed *embedState) error {
	ctx, syntax, name, err := e.resolveTarget(t, base)
	if err != nil {
		return err
	}
	if ctx == nil {
		if name == "prototype" {
			return nil
		}
		return core.RuntimeError(base.Name, "", fmt.Sprintf("push_context: context %q not found", name))
	}

	if withProto == nil && len(e.stack) > 0 {
		withProto = e.top().withPrototype
	}
	if embed == nil && len(e.stack) > 0 {
		embed = e.top().embed
	}

	rt := newRuntimeContext(syntax, name, ctx, included, withProto, embed)
	rt.metaScope = ""
	rt.metaContentScope = ""

	if !included {
		if ctx.ClearScopesAll || ctx.ClearScopes > 0 {
			e.applyClearScopes(ctx)
		}
		if ctx.MetaScope != "" {
			rt.metaScope = ctx.MetaScope
			if doMetaScope {
				e.writer.PushScope(ctx.MetaScope)
			}
		}
		if ctx.MetaContentScope != "" {
			rt.metaContentScope = ctx.MetaContentScope
			e.writer.PushScope(ctx.MetaContentScope)
		}
	}

	e.stack = append(e.stack, rt)
	e.traceStack("push")

	if !included && name != "prototype" {
		return e.resetContext(rt)
	}
	return nil
}

// applyClearScopes walks down the stack popping metascope/meta-content
// -scope SGR groups off contexts that aren't themselves included, until
// either n frames are cleared or the stack bottoms out.
func (e *Engine) applyClearScopes(ctx *core.Context) {
	n := len(e.stack)
	if !ctx.ClearScopesAll {
		n = ctx.ClearScopes
	}
	for i := len(e.stack) - 1; i >= 0 && n > 0; i-- {
		clr := e.stack[i]
		if clr.included {
			continue
		}
		if clr.metaContentScope != "" {
			e.writer.PopScope()
			clr.metaContentScope = ""
		}
		if clr.metaScope != "" {
			e.writer.PopScope()
			clr.metaScope = ""
		}
		n--
	}
}

// popContext pops the top frame, unwinding any metascope/meta-content
// -scope groups it owns, and — if a branch below it just succeeded — commits
// the branch's redirected output into the parent sink.
func (e *Engine) popContext(handleBranching bool) (*runtimeContext, error) {
	e.traceStack("pop")
	rt := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]

	if !rt.included {
		if rt.metaContentScope != "" {
			e.writer.PopScope()
			rt.metaContentScope = ""
		}
		if rt.metaScope != "" {
			e.writer.PopScope()
			rt.metaScope = ""
		}
	}

	if handleBranching && len(e.stack) > 0 {
		next := e.top()
		if next.branchMeta != nil {
			e.commitBranch(next)
		}
	}
	return rt, nil
}

// resetContext rearms a frame for its next character: resets its action
// cursor and re-splices with_prototype/prototype includes ahead of the
// frame's own actions.
func (e *Engine) resetContext(rt *runtimeContext) error {
	rt.curIdx = 0
	if rt.name == "prototype" {
		return nil
	}
	if rt.withPrototype != nil {
		if err := e.pushOne(core.Target{Kind: core.TargetInline, Inline: rt.withPrototype.context}, true, rt.withPrototype.syntax, true, nil, nil); err != nil {
			return err
		}
	}
	includesPrototype := rt.metaIncludePrototype == nil || *rt.metaIncludePrototype
	if includesPrototype {
		if _, ok := rt.syntax.Contexts["prototype"]; ok {
			if err := e.pushOne(core.Target{Kind: core.TargetName, Name: "prototype"}, true, rt.syntax, true, nil, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) top() *runtimeContext {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

func (e *Engine) ctxSyntax() *core.Syntax {
	if len(e.stack) == 0 {
		return e.mainSyntax
	}
	return e.top().syntax
}

func (e *Engine) traceStack(verb string) {
	if e.logger == nil || !e.debug {
		return
	}
	names := make([]string, 0, len(e.stack))
	for i := len(e.stack) - 1; i >= 0; i-- {
		names = append(names, e.stack[i].name)
	}
	e.logger.Debug(verb, "run", e.runID, "stack", strings.Join(names, " <- "))
}
