package core

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Options is the CLI's configuration surface: syntax/color-scheme
// selection, search directories and display flags. It is built from flag
// values and run through PrepareOptions (defaults, then validation)
// exactly once, the way the teacher's InitializeConfig combines defaults,
// merge and validation.
type Options struct {
	Syntax           string   `default:"Default"`
	ColorScheme      string   `default:"Default"`
	SyntaxDirs       []string `default:"[\"./syntaxes\"]" validate:"min=1,dive,required"`
	ColorSchemeDirs  []string `default:"[\"./color-schemes\"]" validate:"min=1,dive,required"`
	Debug            bool     `default:"false"`
	ShowScopes       bool     `default:"false"`
	ListSyntaxes     bool     `default:"false"`
	ListColorSchemes bool     `default:"false"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	return v
}

// PrepareOptions applies struct-tag defaults and validates the result,
// logging and wrapping any failure the way the teacher's
// InitializeConfig does for plugin configs.
func PrepareOptions(opts *Options) error {
	if opts == nil {
		return fmt.Errorf("options cannot be nil")
	}
	if err := defaults.Set(opts); err != nil {
		slog.Error("options: failed to apply defaults", "error", err)
		return fmt.Errorf("failed to apply default options: %w", err)
	}
	if err := validate.Struct(opts); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			var msgs []string
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s (rule: %s)",
					fe.Field(), fe.Error(), fe.Tag()))
			}
			slog.Error("options: validation failed", "errors", msgs)
			return fmt.Errorf("options validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return fmt.Errorf("options validation failed: %w", err)
	}
	return nil
}
