// Package selector parses and scores scope-selector expressions against a
// runtime scope stack. Selectors are dotted-tag sequences combined with
// OR (`|`), MINUS (` - `) and INCLUDES (`,`) operators and optional
// parenthesized grouping.
package selector

import (
	"fmt"
	"strings"
)

// Op tags an operator node. INCLUDES is intentionally scored the same as
// OR — see Score's doc comment.
type Op int

const (
	OpOr Op = iota
	OpXcl
	OpIncl
)

const (
	opOrTok   = "|"
	opXclTok  = " - "
	opInclTok = ","
)

// operatorOrder is the fixed fold order: OR binds loosest, then MINUS,
// then INCLUDES — reproduced exactly from the reference scorer so the
// resulting tree (and therefore the score) matches it token for token.
var operatorOrder = []string{opOrTok, opXclTok, opInclTok}

// Node is either a *LeafNode (a window-sequence of dotted tags) or an
// *OpNode (a boolean combination of sub-selectors).
type Node interface{ isNode() }

// LeafNode is a sequence of dot-split tag tuples; it is matched against
// the scope stack as a sliding window (see Score).
type LeafNode struct{ Seq [][]string }

func (*LeafNode) isNode() {}

// OpNode combines Args with Op.
type OpNode struct {
	Op   Op
	Args []Node
}

func (*OpNode) isNode() {}

// rawOp is the intermediate, untyped fold result — mirrors the reference
// implementation's (op, [args]) tuple before tag-splitting.
type rawOp struct {
	op   string
	args []any
}

// Parse tokenizes and folds a selector expression into a Node tree.
func Parse(expr string) (Node, error) {
	toks := tokenize(expr)
	raw, err := buildRawTree(toks)
	if err != nil {
		return nil, err
	}
	for _, op := range operatorOrder {
		raw = foldTop(raw, op)
	}
	return toNode(raw), nil
}

// buildRawTree turns the flat token stream into a nested []any tree,
// parentheses becoming nested []any groups.
func buildRawTree(toks []string) (any, error) {
	list, i, err := parseGroup(toks, 0, false)
	if err != nil {
		return nil, err
	}
	if i != len(toks) {
		return nil, fmt.Errorf("selector: stray ')' in %q", toks)
	}
	return list, nil
}

// parseGroup parses tokens starting at i until either the end of input
// (insideParen == false) or a matching ")" (insideParen == true).
func parseGroup(toks []string, i int, insideParen bool) ([]any, int, error) {
	list := []any{}
	for i < len(toks) {
		t := toks[i]
		switch t {
		case "(":
			child, next, err := parseGroup(toks, i+1, true)
			if err != nil {
				return nil, 0, err
			}
			list = append(list, child)
			i = next
		case ")":
			if !insideParen {
				return nil, 0, fmt.Errorf("selector: stray ')' in %q", toks)
			}
			return list, i + 1, nil
		default:
			list = append(list, t)
			i++
		}
	}
	if insideParen {
		return nil, 0, fmt.Errorf("selector: unbalanced parens in %q", toks)
	}
	return list, i, nil
}

// foldTop applies one operator pass at the top of the tree, handling the
// case where a previous pass already wrapped the whole expression in a
// rawOp (matching the reference's `if isinstance(expr, tuple)` branch).
func foldTop(expr any, op string) any {
	if ro, ok := expr.(*rawOp); ok {
		return &rawOp{op: ro.op, args: asAnySlice(foldOp(ro.args, op))}
	}
	list, _ := expr.([]any)
	return foldOp(list, op)
}

func asAnySlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case *rawOp:
		return []any{t}
	default:
		return nil
	}
}

// foldOp is a direct port of the reference __opgroup: fold a flat list of
// items (strings, nested []any groups, or already-tagged *rawOp operands)
// into a single *rawOp keyed on op, or pass the list through unchanged if
// op never occurs at this level.
func foldOp(expr []any, op string) any {
	var r *rawOp
	var buf []any

	flush := func() {
		if len(buf) == 1 {
			if ro, ok := buf[0].(*rawOp); ok {
				r.args = append(r.args, ro)
				buf = nil
				return
			}
		}
		r.args = append(r.args, append([]any{}, buf...))
		buf = nil
	}

	for _, item := range expr {
		switch v := item.(type) {
		case string:
			if v == op {
				if r == nil {
					r = &rawOp{op: op}
				}
				flush()
			} else {
				buf = append(buf, v)
			}
		case []any:
			buf = append(buf, foldOp(v, op))
		case *rawOp:
			buf = append(buf, &rawOp{op: v.op, args: asAnySlice(foldOp(v.args, op))})
		}
	}

	if len(buf) > 0 {
		if r == nil {
			return buf
		}
		flush()
	}
	if r == nil {
		return buf
	}
	return r
}

// toNode converts the final, fully-folded raw tree into the typed Node
// tree, splitting each leaf identifier on '.' the way __splittags does.
func toNode(v any) Node {
	switch t := v.(type) {
	case *rawOp:
		op := opFromToken(t.op)
		args := make([]Node, 0, len(t.args))
		for _, a := range t.args {
			args = append(args, toNode(a))
		}
		return &OpNode{Op: op, Args: args}
	case []any:
		return &LeafNode{Seq: flattenTags(t)}
	case nil:
		return &LeafNode{}
	default:
		return &LeafNode{}
	}
}

// flattenTags splits each leaf token on '.'; a bare, operator-free
// parenthesized group nested inside a leaf sequence (not a construct the
// reference selectors use — grouping is only meaningful with an operator)
// is flattened in place rather than rejected.
func flattenTags(list []any) [][]string {
	var out [][]string
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, strings.Split(v, "."))
		case []any:
			out = append(out, flattenTags(v)...)
		}
	}
	return out
}

func opFromToken(t string) Op {
	switch t {
	case opXclTok:
		return OpXcl
	case opInclTok:
		return OpIncl
	default:
		return OpOr
	}
}
