// Package syntaxfile loads sublime-syntax YAML files, resolves `extends`
// chains (merging variables and contexts per the prepend/append/override
// rule) and exposes a registry for by-name and by-scope lookup.
package syntaxfile

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"synhl/core"
)

// FileExt is the canonical syntax file suffix this loader looks for,
// alongside a plain ".yaml" fallback so hand-authored test fixtures don't
// need the longer name.
const FileExt = ".sublime-syntax.yaml"

// rawDoc is the shape a syntax YAML file unmarshals into directly; action
// bodies stay as generic maps because they are a heterogeneous variant
// resolved by parseContext.
type rawDoc struct {
	Name      string              `yaml:"name"`
	Scope     string              `yaml:"scope"`
	FileExts  []string            `yaml:"file_extensions"`
	Variables map[string]string   `yaml:"variables"`
	Contexts  map[string][]rawEnt `yaml:"contexts"`
	Extends   yaml.Node           `yaml:"extends"`
}

type rawEnt map[string]any

// loadRawFile reads and yaml-decodes a single syntax file from disk.
func loadRawFile(path string) (*rawDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ConfigError(path, "", fmt.Sprintf("cannot read syntax file: %v", err))
	}
	var doc rawDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, core.ConfigError(path, "", fmt.Sprintf("cannot parse syntax yaml: %v", err))
	}
	return &doc, nil
}

// extendsList normalizes the `extends` field, which may be a bare string
// or a list of strings, into a slice.
func (d *rawDoc) extendsList() ([]string, error) {
	switch d.Extends.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := d.Extends.Decode(&s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var s []string
		if err := d.Extends.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("extends: unsupported yaml node kind %v", d.Extends.Kind)
	}
}

// toSyntax converts the raw, unmerged document into a core.Syntax whose
// Contexts are already resolved to the tagged Action variant. extends
// merging happens afterward in extender.go, on core.Syntax values, not
// here.
func (d *rawDoc) toSyntax(path string) (*core.Syntax, error) {
	ext, err := d.extendsList()
	if err != nil {
		return nil, core.ConfigError(path, "", err.Error())
	}
	s := &core.Syntax{
		Name:      d.Name,
		Scope:     d.Scope,
		FileExts:  d.FileExts,
		Variables: d.Variables,
		Contexts:  make(map[string]*core.Context, len(d.Contexts)),
		Extends:   ext,
		Path:      path,
	}
	for name, body := range d.Contexts {
		ctx, err := parseContext(name, body)
		if err != nil {
			return nil, core.ConfigError(d.Name, name, err.Error())
		}
		s.Contexts[name] = ctx
	}
	return s, nil
}

// parseContext splits a context's raw entry list into meta directives
// (folded onto the Context itself) and actions (match/include).
func parseContext(name string, entries []rawEnt) (*core.Context, error) {
	ctx := &core.Context{Name: name}
	for _, e := range entries {
		// meta_include_prototype may appear on ANY entry in the body,
		// including a match action, not only on a standalone meta
		// directive: "any action in the body" disables the prototype.
		if v, ok := e["meta_include_prototype"]; ok {
			if b, ok := v.(bool); ok && !b {
				f := false
				ctx.MetaIncludePrototype = &f
			}
		}
		if isMetaOnly(e) {
			applyMeta(ctx, e)
			continue
		}
		act, err := parseAction(e)
		if err != nil {
			return nil, fmt.Errorf("context %q: %w", name, err)
		}
		ctx.Actions = append(ctx.Actions, act)
	}
	return ctx, nil
}

// isMetaOnly reports whether an entry is a pure meta directive (carries no
// match/include key of its own). Of the meta keys, only
// meta_include_prototype is honoured on an entry that also carries a
// match or include (parseContext checks it on every entry); any other meta
// key alongside a match/include is ignored, since applyMeta runs only for
// meta-only entries.
func isMetaOnly(e rawEnt) bool {
	_, hasMatch := e["match"]
	_, hasInclude := e["include"]
	return !hasMatch && !hasInclude
}

func applyMeta(ctx *core.Context, e rawEnt) {
	if v, ok := e["meta_scope"].(string); ok {
		ctx.MetaScope = v
	}
	if v, ok := e["meta_content_scope"].(string); ok {
		ctx.MetaContentScope = v
	}
	if v, ok := e["meta_include_prototype"]; ok {
		b, _ := v.(bool)
		ctx.MetaIncludePrototype = &b
	}
	if v, ok := e["meta_prepend"].(bool); ok {
		ctx.MetaPrepend = v
	}
	if v, ok := e["meta_append"].(bool); ok {
		ctx.MetaAppend = v
	}
	if v, ok := e["clear_scopes"]; ok {
		switch t := v.(type) {
		case bool:
			ctx.ClearScopesAll = t
		case int:
			ctx.ClearScopes = t
		case string:
			if n, err := strconv.Atoi(t); err == nil {
				ctx.ClearScopes = n
			}
		}
	}
}

func parseAction(e rawEnt) (*core.Action, error) {
	if inc, ok := e["include"].(string); ok {
		return &core.Action{Kind: core.ActionInclude, Include: inc}, nil
	}
	pattern, _ := e["match"].(string)
	a := &core.Action{Kind: core.ActionMatch, Pattern: pattern}
	if v, ok := e["scope"].(string); ok {
		a.Scope = v
	}
	if v, ok := e["captures"].(map[string]any); ok {
		a.Captures = toIntStringMap(v)
	}
	var err error
	if a.Push, err = parseTargets(e["push"]); err != nil {
		return nil, err
	}
	if a.Set, err = parseTargets(e["set"]); err != nil {
		return nil, err
	}
	switch v := e["pop"].(type) {
	case bool:
		if v {
			a.PopAll = true
			a.Pop = 1
		}
	case int:
		a.Pop = v
	}
	if a.Branch, err = parseTargets(e["branch"]); err != nil {
		return nil, err
	}
	if v, ok := e["branch_point"].(string); ok {
		a.BranchPoint = v
	}
	if v, ok := e["fail"].(string); ok {
		a.Fail = v
	}
	if v, ok := e["embed"].(string); ok {
		a.Embed = v
	}
	if v, ok := e["embed_scope"].(string); ok {
		a.EmbedScope = v
	}
	if v, ok := e["escape"].(string); ok {
		a.Escape = v
	}
	if v, ok := e["escape_captures"].(map[string]any); ok {
		a.EscapeCaptures = toIntStringMap(v)
	}
	if a.WithPrototype, err = parseTargets(e["with_prototype"]); err != nil {
		return nil, err
	}
	return a, nil
}

func toIntStringMap(m map[string]any) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[n] = s
		}
	}
	return out
}

// parseTargets accepts the several shapes a context target may take: a
// bare name string, a single-entry list, a multi-entry list (pushed
// left-to-right), or an inline anonymous context (a list of action/meta
// maps masquerading, at the YAML level, as a context body).
func parseTargets(v any) ([]core.Target, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return []core.Target{nameTarget(t)}, nil
	case []any:
		// Could be a list of target names/refs, or an inline anonymous
		// context body (a list of rawEnt-shaped maps). Distinguish by
		// element type.
		if len(t) > 0 {
			if _, ok := t[0].(map[string]any); ok {
				ctx, err := parseContext("", toRawEntries(t))
				if err != nil {
					return nil, err
				}
				return []core.Target{{Kind: core.TargetInline, Inline: ctx}}, nil
			}
		}
		out := make([]core.Target, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unsupported target element %#v", item)
			}
			out = append(out, nameTarget(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported target shape %#v", v)
	}
}

func toRawEntries(list []any) []rawEnt {
	out := make([]rawEnt, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, rawEnt(m))
		}
	}
	return out
}

func nameTarget(s string) core.Target {
	if len(s) > len("scope:") && s[:len("scope:")] == "scope:" {
		rest := s[len("scope:"):]
		scopeName, ctxName := rest, "main"
		for i := 0; i < len(rest); i++ {
			if rest[i] == '#' {
				scopeName, ctxName = rest[:i], rest[i+1:]
				break
			}
		}
		return core.Target{Kind: core.TargetScopeRef, ScopeName: scopeName, CtxName: ctxName}
	}
	if len(s) > len("Packages/") && s[:len("Packages/")] == "Packages/" {
		return core.Target{Kind: core.TargetPackagesRef, PackagesPath: s}
	}
	return core.Target{Kind: core.TargetName, Name: s}
}
