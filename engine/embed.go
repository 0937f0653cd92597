package engine

import (
	"regexp"
	"strconv"

	"github.com/dlclark/regexp2"
)

// matchEmbedAndRollback checks an embedded frame's escape pattern before
// running its own actions; on a match it emits the escape token, pops back
// out through the frames embed stashed as its rollback point, and reports
// that the caller should continue the scan loop rather than advance into
// the (now-popped) frame's actions.
func (e *Engine) matchEmbedAndRollback(rt *runtimeContext, text string, pos int) (bool, int, error) {
	m, err := matchAt(rt.embed.escape, text, pos)
	if err != nil {
		return false, pos, err
	}
	if m == nil {
		return false, pos, nil
	}

	pops := len(e.stack) - rt.embed.rollbackID
	mbegin := m.Index
	newPos := m.Index + m.Length

	if rt.embed.contentScope != "" {
		e.writer.PopScope()
	}
	if len(rt.embed.escapeCaptures) > 0 {
		e.writeCaptures(text, mbegin, newPos, m, rt.embed.escapeCaptures)
	} else {
		e.writer.WriteToken(runeSlice(text, mbegin, newPos))
	}

	for i := 0; i < pops; i++ {
		if _, err := e.popContext(false); err != nil {
			return false, pos, err
		}
	}
	return true, newPos, nil
}

var backrefToken = regexp.MustCompile(`\\(\d+)`)

// substituteEmbedBackrefs replaces "\N" placeholders in an embed's escape
// pattern text with the literal text the push match captured in group N,
// stopping at the first group that didn't participate, doesn't exist or
// captured empty text (group 0 included, so a zero-width push match
// substitutes nothing) — mirroring the reference implementation's
// early-exit backreference loop.
// Matching is done on the full digit run so "\1" is never mistaken for a
// prefix of "\10".
func substituteEmbedBackrefs(pattern string, m *regexp2.Match) string {
	for gi := 0; ; gi++ {
		group := m.GroupByNumber(gi)
		if group == nil || group.Index < 0 {
			break
		}
		text := group.String()
		if text == "" {
			break
		}
		token := strconv.Itoa(gi)
		pattern = backrefToken.ReplaceAllStringFunc(pattern, func(match string) string {
			if match[1:] == token {
				return text
			}
			return match
		})
	}
	return pattern
}
