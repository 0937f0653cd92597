package selector

// Score scores a Node against a scope stack (each stack entry already
// dot-split into tags, bottom of the source text's scope first). Higher
// wins; zero means no match.
//
// INCLUDES (",") is scored identically to OR ("|") — maximum of the
// operands — even though Sublime's own documentation describes INCLUDES
// as requiring every operand to match. This reproduces a documented bug
// in the reference scorer rather than "fixing" it: see DESIGN.md's first
// Open Question.
func Score(n Node, stack [][]string) int {
	switch t := n.(type) {
	case *LeafNode:
		return scoreLeaf(t.Seq, stack)
	case *OpNode:
		switch t.Op {
		case OpOr, OpIncl:
			best := 0
			for _, arg := range t.Args {
				if s := Score(arg, stack); s > best {
					best = s
				}
			}
			return best
		case OpXcl:
			if len(t.Args) == 0 {
				return 0
			}
			best := Score(t.Args[0], stack)
			for _, arg := range t.Args[1:] {
				if Score(arg, stack) > 0 {
					return 0
				}
			}
			return best
		}
	}
	return 0
}

// scoreLeaf slides a window of len(seq) across the stack; at each offset
// the score is the sum of per-position prefix-tag matches, reset to zero
// on the first tag mismatch at that offset. The best offset wins.
func scoreLeaf(seq [][]string, stack [][]string) int {
	sdLen := len(seq)
	ssLen := len(stack)
	best := 0
	endI := ssLen - sdLen + 1
	for i := 0; i < endI; i++ {
		score := 0
		for j := 0; j < sdLen; j++ {
			ssTags := stack[i+j]
			tags := seq[j]
			n := len(ssTags)
			if len(tags) < n {
				n = len(tags)
			}
			for k := 0; k < n; k++ {
				if ssTags[k] != tags[k] {
					score = 0
					break
				}
				score++
			}
			if score <= 0 {
				break
			}
		}
		if score > best {
			best = score
		}
	}
	return best
}
