package engine

import (
	"fmt"
	"regexp"

	"github.com/dlclark/regexp2"

	"synhl/core"
)

var varRef = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// substituteVars repeatedly replaces {{name}} references from the
// syntax's variables map until none remain, mirroring hl.py's
// compile_pattern substitution loop. A reference to an undefined
// variable is a fatal configuration error.
func substituteVars(syntax *core.Syntax, pattern string) (string, error) {
	for {
		matches := varRef.FindAllStringSubmatch(pattern, -1)
		if len(matches) == 0 {
			return pattern, nil
		}
		replaced := false
		for _, m := range matches {
			name := m[1]
			val, ok := syntax.Variables[name]
			if !ok {
				return "", core.ConfigError(syntax.Name, "", "variable "+name+" not found")
			}
			pattern = regexp.MustCompile(regexp.QuoteMeta(m[0])).ReplaceAllString(pattern, regexpReplacementEscape(val))
			replaced = true
		}
		if !replaced {
			return pattern, nil
		}
	}
}

// regexpReplacementEscape escapes '$' so a variable's literal text (which
// may itself contain regex metacharacters, but never intends to reference
// a ReplaceAllString capture group) passes through unchanged.
func regexpReplacementEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '$' {
			out = append(out, '$', '$')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// compilePattern substitutes variables and compiles the result with the
// Oniguruma-compatible engine. It does not cache: compiledPattern stores
// the result on the action so repeated matches skip recompilation (the
// Syntax Loader defers compilation to first use; this is that first use).
func compilePattern(syntax *core.Syntax, contextName, pattern string) (*regexp2.Regexp, error) {
	substituted, err := substituteVars(syntax, pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(substituted, regexp2.None)
	if err != nil {
		if substituted != pattern {
			err = fmt.Errorf("%w (after variable substitution: %q)", err, substituted)
		}
		return nil, core.PatternError(syntax.Name, contextName, pattern, err)
	}
	return re, nil
}

// matchAt tries re anchored exactly at pos — Oniguruma's `match(text,
// pos)` semantics, not "search from pos onward". regexp2 only exposes
// search-from-position, so a match whose reported start isn't pos is
// treated as no match.
func matchAt(re *regexp2.Regexp, text string, pos int) (*regexp2.Match, error) {
	m, err := re.FindStringMatchStartingAt(text, pos)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Index != pos {
		return nil, nil
	}
	return m, nil
}
