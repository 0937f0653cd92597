package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"synhl/colorscheme"
	"synhl/core"
	"synhl/engine"
	"synhl/output"
	"synhl/style"
	"synhl/syntaxfile"
)

// runRoot is the root command's RunE: apply defaults/validation, dispatch
// to the list commands if requested, otherwise run the highlighter over
// stdin to completion.
func runRoot(_ *cobra.Command, _ []string) error {
	if err := core.PrepareOptions(&opts); err != nil {
		return err
	}

	if opts.ListSyntaxes || opts.ListColorSchemes {
		if opts.ListSyntaxes {
			if err := listSyntaxes(opts.SyntaxDirs); err != nil {
				return err
			}
		}
		if opts.ListColorSchemes {
			if err := listColorSchemes(opts.ColorSchemeDirs); err != nil {
				return err
			}
		}
		return nil
	}

	registry := syntaxfile.NewRegistry(opts.SyntaxDirs)
	mainSyntax, err := registry.Get(opts.Syntax)
	if err != nil {
		return fmt.Errorf("loading syntax %q: %w", opts.Syntax, err)
	}

	schemePath, err := colorscheme.Resolve(opts.ColorSchemeDirs, opts.ColorScheme)
	if err != nil {
		return fmt.Errorf("resolving color scheme %q: %w", opts.ColorScheme, err)
	}
	scheme, err := colorscheme.Load(schemePath)
	if err != nil {
		return fmt.Errorf("loading color scheme %q: %w", opts.ColorScheme, err)
	}

	logger := newLogger(opts.Debug)
	resolver := style.New(scheme)
	writer := output.New(os.Stdout, resolver, opts.ShowScopes)
	eng := engine.New(registry, writer, mainSyntax, logger, opts.Debug)

	if err := eng.Begin(); err != nil {
		return fmt.Errorf("starting highlighter: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		line, readErr := reader.ReadString('\n')
		if len(line) > 0 {
			if err := eng.Process(line); err != nil {
				return fmt.Errorf("processing input: %w", err)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return fmt.Errorf("reading stdin: %w", readErr)
		}
	}

	return eng.End()
}
