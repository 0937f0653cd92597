// Package colorscheme loads sublime-color-scheme files (JSON-with-comments
// or plain YAML) and evaluates their color expressions into the RGBA
// values the style resolver scores selectors against.
package colorscheme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"synhl/core"
)

// FileExt is the native sublime-color-scheme file suffix.
const FileExt = ".sublime-color-scheme"

// Resolve finds a color scheme by name across a list of search
// directories, trying the native extension before the YAML fallbacks
// hand-authored fixtures use.
func Resolve(dirs []string, name string) (string, error) {
	candidates := []string{name + FileExt, name + ".yaml", name + ".yml"}
	for _, dir := range dirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", core.ConfigError(name, "", fmt.Sprintf("color scheme %q not found in %v", name, dirs))
}

// List scans every search directory for color scheme files and returns
// their basenames (without extension), the way --list-color-schemes
// reports them.
func List(dirs []string) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			n := e.Name()
			if !strings.HasSuffix(n, FileExt) && !strings.HasSuffix(n, ".yaml") && !strings.HasSuffix(n, ".yml") {
				continue
			}
			base := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(n, FileExt), ".yaml"), ".yml")
			if strings.HasPrefix(base, ".") || seen[base] {
				continue
			}
			seen[base] = true
			names = append(names, base)
		}
	}
	return names, nil
}

type rawScheme struct {
	Name      string            `json:"name" yaml:"name"`
	Variables map[string]string `json:"variables" yaml:"variables"`
	Globals   map[string]any    `json:"globals" yaml:"globals"`
	Rules     []rawRule         `json:"rules" yaml:"rules"`
}

type rawRule struct {
	Scope      string `json:"scope" yaml:"scope"`
	Foreground any    `json:"foreground" yaml:"foreground"`
	Background any    `json:"background" yaml:"background"`
}

// Load reads a color scheme file from disk and evaluates every color
// expression it contains, the way sublcolorscheme.py's loadcolorscheme
// followed by parsecolorscheme does in one pass.
func Load(path string) (*core.ColorScheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ConfigError(path, "", fmt.Sprintf("cannot read color scheme: %v", err))
	}

	var raw rawScheme
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, core.ConfigError(path, "", fmt.Sprintf("cannot parse color scheme yaml: %v", err))
		}
	} else {
		stripped := stripLineComments(string(data))
		if err := json.Unmarshal([]byte(stripped), &raw); err != nil {
			return nil, core.ConfigError(path, "", fmt.Sprintf("cannot parse color scheme json: %v", err))
		}
	}

	scheme := &core.ColorScheme{Name: raw.Name}
	if scheme.Name == "" {
		scheme.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	scheme.Globals = make(map[string]core.RGBA, len(raw.Globals))
	for k, v := range raw.Globals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		c, err := EvalColor(raw.Variables, s)
		if err != nil {
			return nil, core.ConfigError(path, "globals."+k, err.Error())
		}
		scheme.Globals[k] = c
	}

	for _, r := range raw.Rules {
		fg, err := toColorList(raw.Variables, r.Foreground)
		if err != nil {
			return nil, core.ConfigError(path, r.Scope, fmt.Sprintf("foreground: %v", err))
		}
		bg, err := toColorList(raw.Variables, r.Background)
		if err != nil {
			return nil, core.ConfigError(path, r.Scope, fmt.Sprintf("background: %v", err))
		}
		scheme.Rules = append(scheme.Rules, core.StyleRule{
			Selector:   r.Scope,
			Foreground: fg,
			Background: bg,
		})
	}
	return scheme, nil
}

// toColorList evaluates a rule's foreground/background field, which may be
// a single color expression or a list of stops used for gradient sampling.
func toColorList(vars map[string]string, v any) ([]core.RGBA, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		c, err := EvalColor(vars, t)
		if err != nil {
			return nil, err
		}
		return []core.RGBA{c}, nil
	case []any:
		out := make([]core.RGBA, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("gradient stop is not a string: %#v", item)
			}
			c, err := EvalColor(vars, s)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported color value shape %#v", v)
	}
}

// stripLineComments removes "// ..." comments from JSONC content, tracking
// whether it is inside a (possibly escaped) double-quoted string so a
// literal "//" inside a color name or scope selector is never mistaken for
// a comment. Ported from loadcolorscheme's quote-aware stripper.
func stripLineComments(s string) string {
	var out strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i < len(s) && s[i] != '\n' {
				i++
			}
			out.WriteByte('\n')
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}
