// Package core holds the data model shared by the syntax loader, the
// context engine, the style resolver and the output writer: syntax
// definitions, actions, runtime stack frames and scope-stack bookkeeping.
package core

// Syntax is a named collection of contexts, as loaded (and extended) from
// a sublime-syntax YAML file.
type Syntax struct {
	Name          string              `yaml:"name"`
	Scope         string              `yaml:"scope"`
	FileExts      []string            `yaml:"file_extensions"`
	Variables     map[string]string   `yaml:"variables"`
	Contexts      map[string]*Context `yaml:"contexts"`
	Extends       []string            `yaml:"-"`
	Path          string              `yaml:"-"`
}

// Context is a named list of actions plus the meta directives that apply
// to the whole context body.
type Context struct {
	Name                 string
	Actions              []*Action
	MetaScope             string
	MetaContentScope      string
	MetaIncludePrototype  *bool // nil == default (true)
	MetaPrepend           bool
	MetaAppend            bool
	ClearScopes           int // 0 == unset; use ClearScopesAll for `true`
	ClearScopesAll        bool
}

// ActionKind tags which variant of Action is populated.
type ActionKind int

const (
	ActionMatch ActionKind = iota
	ActionInclude
)

// Action is a tagged variant: a match action or an include action. Meta
// directives are not actions; they live on Context.
type Action struct {
	Kind ActionKind

	// ActionInclude
	Include string

	// ActionMatch
	Pattern string
	Scope   string
	// Captures maps capture group index to a scope name.
	Captures map[int]string

	Push   []Target
	Set    []Target
	Pop    int
	PopAll bool // `pop: true` with no explicit count (pop: 1)

	Branch      []Target
	BranchPoint string
	Fail        string

	Embed          string
	EmbedScope     string
	Escape         string
	EscapeCaptures map[int]string
	WithPrototype  []Target

	// Compiled is filled lazily by the engine on the action's first match;
	// this package only declares the slot, engine owns the regex type.
	// The engine does not set CompiledEscape or SubstFingerprint: embed
	// escapes are compiled afresh on each embed match.
	Compiled       any
	CompiledEscape any
	SubstFingerprint string
}

// TargetKind distinguishes the four forms a context target can take.
type TargetKind int

const (
	TargetName TargetKind = iota
	TargetScopeRef
	TargetPackagesRef
	TargetInline
)

// Target is one element of a push/set/branch/with_prototype list.
type Target struct {
	Kind TargetKind

	Name string // TargetName

	ScopeName string // TargetScopeRef: "scope:SCOPE#CTX" -> ScopeName, CtxName
	CtxName   string

	PackagesPath string // TargetPackagesRef

	Inline *Context // TargetInline: an anonymous context
}

// ColorScheme is the parsed, evaluated representation of a color-scheme
// file: every color expression resolved to concrete RGBA.
type ColorScheme struct {
	Name    string
	Globals map[string]RGBA
	Rules   []StyleRule
}

// StyleRule is one `rules` entry: a scope selector plus the colors it
// contributes.
type StyleRule struct {
	Selector   string
	Foreground []RGBA // len==1 for a solid color, >1 for a gradient
	Background []RGBA
}

// RGBA is a straightforward 0..1 normalized color; kept here (rather than
// in colorscheme) because both style and colorscheme need it and core is
// the common dependency root.
type RGBA struct {
	R, G, B, A float64
}
