package selector

import "testing"

func stack(entries ...string) [][]string {
	out := make([][]string, len(entries))
	for i, e := range entries {
		out[i] = splitDots(e)
	}
	return out
}

func splitDots(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '.' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func TestScoreLeafPrefix(t *testing.T) {
	n, err := Parse("keyword.control")
	if err != nil {
		t.Fatal(err)
	}
	ss := stack("source.python", "keyword.control.import.python")
	if s := Score(n, ss); s == 0 {
		t.Fatalf("expected positive score, got 0")
	}
}

func TestScoreOrIsMax(t *testing.T) {
	a, _ := Parse("string")
	b, _ := Parse("comment")
	or, _ := Parse("string | comment")
	ss := stack("source.x", "comment.line")
	got := Score(or, ss)
	want := Score(a, ss)
	if s := Score(b, ss); s > want {
		want = s
	}
	if got != want {
		t.Fatalf("score(A|B)=%d, want max(score(A),score(B))=%d", got, want)
	}
}

func TestScoreMinus(t *testing.T) {
	// "string - string.quoted" should be zeroed when the stack matches
	// the excluded operand.
	n, err := Parse("string - string.quoted")
	if err != nil {
		t.Fatal(err)
	}
	ss := stack("source.x", "string.quoted.double")
	if s := Score(n, ss); s != 0 {
		t.Fatalf("expected 0, got %d", s)
	}

	ss2 := stack("source.x", "string.unquoted")
	if s := Score(n, ss2); s == 0 {
		t.Fatalf("expected positive score for non-excluded match")
	}
}

func TestIncludesScoredLikeOr(t *testing.T) {
	// Documented deviation: "," (INCLUDES) must score identically to "|".
	or, _ := Parse("string | comment")
	incl, _ := Parse("string , comment")
	ss := stack("source.x", "comment.line")
	if Score(or, ss) != Score(incl, ss) {
		t.Fatalf("INCLUDES must score identically to OR")
	}
}

func TestScoreMonotoneOnDeeperMatch(t *testing.T) {
	n, _ := Parse("keyword.control.import")
	shallow := stack("keyword.control")
	deeper := stack("keyword.control.import")
	if Score(n, deeper) < Score(n, shallow) {
		t.Fatalf("score should be monotone nondecreasing as tags match further")
	}
}

func TestParseParens(t *testing.T) {
	n, err := Parse("(string | comment) - comment.block")
	if err != nil {
		t.Fatal(err)
	}
	op, ok := n.(*OpNode)
	if !ok || op.Op != OpXcl {
		t.Fatalf("expected top-level XCL node, got %#v", n)
	}
}
