package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"synhl/colorscheme"
	"synhl/syntaxfile"
)

func listSyntaxes(dirs []string) error {
	names, err := syntaxfile.ListNames(dirs)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"syntaxes": orEmpty(names)})
}

func listColorSchemes(dirs []string) error {
	names, err := colorscheme.List(dirs)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"color-schemes": orEmpty(names)})
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding list output: %w", err)
	}
	return nil
}
