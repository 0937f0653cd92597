package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"synhl/core"
	"synhl/output"
	"synhl/syntaxfile"
)

// Engine drives the context stack against input text, emitting styled
// output through a writer. Positions are indexed in runes throughout,
// matching regexp2's own indexing (Match.Index/Length count runes, not
// bytes), not just at the top-level scan cursor but through every match,
// capture span and embed/escape offset derived from it. It owns exactly
// the mutable state process()/action_match() close over in the reference
// engine: the stack, the syntax registry used for external references,
// and the output writer.
type Engine struct {
	registry   *syntaxfile.Registry
	writer     *output.Writer
	mainSyntax *core.Syntax
	stack      []*runtimeContext

	logger *slog.Logger
	debug  bool
	runID  string
}

// New builds an engine ready for Begin. mainSyntax must already have its
// extends chain resolved (syntaxfile.Registry does this on load).
func New(registry *syntaxfile.Registry, writer *output.Writer, mainSyntax *core.Syntax, logger *slog.Logger, debug bool) *Engine {
	return &Engine{
		registry:   registry,
		writer:     writer,
		mainSyntax: mainSyntax,
		logger:     logger,
		debug:      debug,
		runID:      uuid.NewString(),
	}
}

// Begin pushes the main context and, if the syntax declares a top-level
// scope, records it on the main (root) frame and opens it as a scope group
// that stays open until that frame is popped.
func (e *Engine) Begin() error {
	if len(e.stack) != 0 {
		return core.RuntimeError(e.mainSyntax.Name, "", "Begin called with a non-empty stack")
	}
	if err := e.pushTargets([]core.Target{{Kind: core.TargetName, Name: "main"}}, false, true, nil, nil); err != nil {
		return err
	}
	// The main frame is at the bottom; a spliced prototype may sit above it.
	rt := e.stack[0]
	if e.mainSyntax.Scope != "" {
		rt.metaScope = e.mainSyntax.Scope
		e.writer.PushScope(e.mainSyntax.Scope)
	}
	return nil
}

// End unwinds every remaining context, closing any open scope groups.
func (e *Engine) End() error {
	for len(e.stack) > 0 {
		if _, err := e.popContext(true); err != nil {
			return err
		}
	}
	return nil
}

// Process feeds one chunk of input text (typically a line, including its
// trailing newline) through the context stack, scanning from position 0
// to the end of text.
func (e *Engine) Process(text string) error {
	for _, ctx := range e.stack {
		if ctx.branchMeta != nil {
			ctx.branchMeta.prevText += text
		}
	}

	pos := 0
	runes := []rune(text)
	for pos < len(runes) {
		rt := e.top()
		curIdx := rt.curIdx

		if curIdx == 0 && rt.embed != nil {
			rolledBack, newPos, err := e.matchEmbedAndRollback(rt, text, pos)
			if err != nil {
				return err
			}
			if rolledBack {
				pos = newPos
				continue
			}
		}

		if curIdx >= len(rt.actions) {
			if rt.included {
				if _, err := e.popContext(true); err != nil {
					return err
				}
				continue
			}
			e.writer.WriteRaw(string(runes[pos]))
			pos++
			if err := e.resetContext(rt); err != nil {
				return err
			}
			continue
		}

		action := rt.actions[curIdx]
		rt.curIdx = curIdx + 1

		switch action.Kind {
		case core.ActionMatch:
			newPos, newText, err := e.actionMatch(rt, text, pos, action)
			if err != nil {
				return err
			}
			if newText != text {
				runes = []rune(newText)
			}
			pos, text = newPos, newText
		case core.ActionInclude:
			if err := e.pushTargets([]core.Target{targetFromRef(action.Include)}, true, true, nil, nil); err != nil {
				return fmt.Errorf("include %q: %w", action.Include, err)
			}
		}
	}
	return nil
}
