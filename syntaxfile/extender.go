package syntaxfile

import "synhl/core"

// mergeVariables chains variable maps left-to-right; later definitions
// win. Mirrors sublsyntax.py's _syntax_merge_vars.
func mergeVariables(chain ...*core.Syntax) map[string]string {
	out := map[string]string{}
	for _, s := range chain {
		for k, v := range s.Variables {
			out[k] = v
		}
	}
	return out
}

// mergeContexts folds a chain of syntaxes (parents first, the syntax
// itself last) into one context map. For each context name, the first
// syntax in the chain to define it seeds the result; every later
// definition of the same name is combined with what's already
// accumulated according to its own meta_prepend/meta_append directive —
// defaulting, when neither is set, to being placed BEFORE the
// accumulated result (the child-overrides-but-runs-first policy
// described in sublsyntax.py's _syntax_merge_contexts).
func mergeContexts(chain ...*core.Syntax) map[string]*core.Context {
	result := map[string]*core.Context{}
	for _, s := range chain {
		for name, ctx := range s.Contexts {
			existing, seen := result[name]
			if !seen {
				result[name] = ctx
				continue
			}
			switch {
			case ctx.MetaPrepend:
				result[name] = concatContexts(ctx, existing)
			case ctx.MetaAppend:
				result[name] = concatContexts(existing, ctx)
			default:
				result[name] = concatContexts(ctx, existing)
			}
		}
	}
	return result
}

// concatContexts merges two context bodies' action lists, keeping the
// first's meta directives (so an overriding child's meta_scope etc. wins)
// unless it has none set, in which case it inherits the second's.
func concatContexts(first, second *core.Context) *core.Context {
	out := &core.Context{
		Name:                 first.Name,
		Actions:              append(append([]*core.Action{}, first.Actions...), second.Actions...),
		MetaScope:            first.MetaScope,
		MetaContentScope:     first.MetaContentScope,
		MetaIncludePrototype: first.MetaIncludePrototype,
		ClearScopes:          first.ClearScopes,
		ClearScopesAll:       first.ClearScopesAll,
	}
	if out.MetaScope == "" {
		out.MetaScope = second.MetaScope
	}
	if out.MetaContentScope == "" {
		out.MetaContentScope = second.MetaContentScope
	}
	if out.MetaIncludePrototype == nil {
		out.MetaIncludePrototype = second.MetaIncludePrototype
	}
	return out
}

// resolveExtends recursively loads and merges a syntax's extends chain,
// memoizing by resolved path so diamond extends graphs load each parent
// exactly once.
func (r *Registry) resolveExtends(s *core.Syntax, seen map[string]bool) (*core.Syntax, error) {
	if seen[s.Path] {
		return s, nil
	}
	seen[s.Path] = true
	if len(s.Extends) == 0 {
		return s, nil
	}
	parents := make([]*core.Syntax, 0, len(s.Extends))
	for _, ref := range s.Extends {
		parent, err := r.loadParentByRef(ref)
		if err != nil {
			return nil, err
		}
		resolved, err := r.resolveExtends(parent, seen)
		if err != nil {
			return nil, err
		}
		parents = append(parents, resolved)
	}
	chain := append(parents, s)
	s.Variables = mergeVariables(chain...)
	s.Contexts = mergeContexts(chain...)
	return s, nil
}
