package syntaxfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"synhl/core"
)

// Registry discovers, loads and caches syntaxes from a search list of
// directories. It mirrors the container.go registration-plus-lookup
// pattern, repurposed from task lookup to lazy syntax loading by name or
// by scope.
type Registry struct {
	dirs []string

	byPath  map[string]*core.Syntax
	byName  map[string]*core.Syntax
	byScope map[string]string // scope -> resolved path, built lazily
}

// NewRegistry creates a registry over the given search directories,
// searched in order for both by-name lookup and by-scope file scanning.
func NewRegistry(dirs []string) *Registry {
	return &Registry{
		dirs:   dirs,
		byPath: map[string]*core.Syntax{},
		byName: map[string]*core.Syntax{},
	}
}

// Get loads (or returns the cached, extends-resolved) syntax by plain
// name, trying each search directory in order.
func (r *Registry) Get(name string) (*core.Syntax, error) {
	if s, ok := r.byName[name]; ok {
		return s, nil
	}
	path, err := r.resolveNamePath(name)
	if err != nil {
		return nil, err
	}
	s, err := r.loadAndResolve(path)
	if err != nil {
		return nil, err
	}
	r.byName[name] = s
	return s, nil
}

// GetByScope lazily scans every syntax file under the search directories
// for a matching top-level `scope:` field, memoizing the scope->path
// table after the first scan — grounded on hl.py's
// load_syntax_lazy_with_scope.
func (r *Registry) GetByScope(scope string) (*core.Syntax, error) {
	if r.byScope == nil {
		if err := r.buildScopeIndex(); err != nil {
			return nil, err
		}
	}
	path, ok := r.byScope[scope]
	if !ok {
		return nil, core.ConfigError(scope, "", "no syntax found with matching scope")
	}
	return r.loadAndResolve(path)
}

// GetByPackagesPath resolves a `Packages/Name.sublime-syntax` reference
// by basename, the way sublsyntax.py's extends resolution does.
func (r *Registry) GetByPackagesPath(packagesPath string) (*core.Syntax, error) {
	base := filepath.Base(packagesPath)
	name := strings.TrimSuffix(strings.TrimSuffix(base, ".sublime-syntax"), ".yaml")
	return r.Get(name)
}

func (r *Registry) loadParentByRef(ref string) (*core.Syntax, error) {
	base := filepath.Base(ref)
	name := strings.TrimSuffix(strings.TrimSuffix(base, FileExt), ".yaml")
	name = strings.TrimSuffix(name, ".sublime-syntax")
	path, err := r.resolveNamePath(name)
	if err != nil {
		return nil, err
	}
	return r.loadRaw(path)
}

func (r *Registry) resolveNamePath(name string) (string, error) {
	candidates := []string{name + FileExt, name + ".yaml", name + ".sublime-syntax"}
	for _, dir := range r.dirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", core.ConfigError(name, "", fmt.Sprintf("syntax %q not found in %v", name, r.dirs))
}

func (r *Registry) loadRaw(path string) (*core.Syntax, error) {
	if s, ok := r.byPath[path]; ok {
		return s, nil
	}
	doc, err := loadRawFile(path)
	if err != nil {
		return nil, err
	}
	s, err := doc.toSyntax(path)
	if err != nil {
		return nil, err
	}
	r.byPath[path] = s
	return s, nil
}

func (r *Registry) loadAndResolve(path string) (*core.Syntax, error) {
	s, err := r.loadRaw(path)
	if err != nil {
		return nil, err
	}
	return r.resolveExtends(s, map[string]bool{})
}

// Info is one entry in the list-syntaxes CLI output.
type Info struct {
	Name string
	Scope string
	Path string
}

// List scans every search directory for syntax files and returns their
// declared name/scope without fully resolving extends chains — enough
// for `--list-syntaxes`.
func (r *Registry) List() ([]Info, error) {
	var out []Info
	seen := map[string]bool{}
	for _, dir := range r.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !isSyntaxFile(e.Name()) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if seen[path] {
				continue
			}
			seen[path] = true
			doc, err := loadRawFile(path)
			if err != nil {
				return nil, err
			}
			out = append(out, Info{Name: doc.Name, Scope: doc.Scope, Path: path})
		}
	}
	return out, nil
}

// ListNames scans every search directory for syntax files and returns
// their basenames (without extension), the way --list-syntaxes reports
// them — distinct from List, which also loads each file's declared
// name/scope.
func ListNames(dirs []string) ([]string, error) {
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
			if e.IsDir() || !isSyntaxFile(e.Name()) {
				continue
			}
			base := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(e.Name(), FileExt), ".sublime-syntax"), ".yaml")
			if seen[base] {
				continue
			}
			seen[base] = true
			names = append(names, base)
		}
	}
	return names, nil
}

func isSyntaxFile(name string) bool {
	return strings.HasSuffix(name, FileExt) || strings.HasSuffix(name, ".sublime-syntax") ||
		strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func (r *Registry) buildScopeIndex() error {
	r.byScope = map[string]string{}
	for _, dir := range r.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !isSyntaxFile(e.Name()) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			doc, err := loadRawFile(path)
			if err != nil {
				return err
			}
			if doc.Scope != "" {
				r.byScope[doc.Scope] = path
			}
		}
	}
	return nil
}
