package selector

import "regexp"

// tokenPattern mirrors the original lexer: dotted identifiers, the three
// operator tokens (OR, MINUS surrounded by single spaces, INCLUDES), and
// parentheses. Alternation order matters: an identifier run (which itself
// may contain '-') is tried before the standalone " - " operator, so a
// hyphenated tag like "foo-bar" never splits into an XCL token.
var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9_\-.]+|,| - |\||\(|\)`)

func tokenize(expr string) []string {
	return tokenPattern.FindAllString(expr, -1)
}
