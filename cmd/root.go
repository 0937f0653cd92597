// Package cmd wires the cobra CLI surface: flag parsing and dispatch to
// the run/list entry points. It mirrors original_source/hl.py's argparse
// block flag-for-flag.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"synhl/core"
)

var opts core.Options

var rootCmd = &cobra.Command{
	Use:   "synhl",
	Short: "Terminal syntax highlighter driven by sublime-syntax grammars",
	Long: `synhl tokenizes stdin against a sublime-syntax grammar and writes it back
out with ANSI-256 SGR styling from a sublime-color-scheme.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().StringVarP(&opts.Syntax, "syntax", "s", "", "sublime-syntax to use")
	rootCmd.Flags().StringVarP(&opts.ColorScheme, "color-scheme", "c", "", "sublime-color-scheme to use")
	rootCmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "turn debugging on")
	rootCmd.Flags().BoolVarP(&opts.ShowScopes, "show-scopes", "S", false, "output scope tags")
	// argparse's "-ls"/"-lc" are two-letter short flags; pflag shorthands
	// are always a single rune, so each is registered as a second long
	// flag bound to the same variable instead.
	rootCmd.Flags().BoolVar(&opts.ListSyntaxes, "list-syntaxes", false, "list available syntaxes")
	rootCmd.Flags().BoolVar(&opts.ListSyntaxes, "ls", false, "alias for --list-syntaxes")
	rootCmd.Flags().BoolVar(&opts.ListColorSchemes, "list-color-schemes", false, "list available color schemes")
	rootCmd.Flags().BoolVar(&opts.ListColorSchemes, "lc", false, "alias for --list-color-schemes")
	rootCmd.Flags().StringSliceVar(&opts.SyntaxDirs, "syntax-dir", nil, "additional syntax search directory (repeatable)")
	rootCmd.Flags().StringSliceVar(&opts.ColorSchemeDirs, "color-scheme-dir", nil, "additional color scheme search directory (repeatable)")
}

// Execute parses os.Args and runs the resolved subcommand.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
