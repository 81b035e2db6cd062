package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	isatty "github.com/mattn/go-isatty"
)

// ColorMode is a colorized output mode. It implements pflag.Value so that
// invalid modes are rejected during flag parsing.
type ColorMode string

const (
	// ColorAuto enables colorized output only on terminals.
	ColorAuto ColorMode = "auto"
	// ColorAlways always enables colorized output.
	ColorAlways ColorMode = "always"
	// ColorNever disables colorized output.
	ColorNever ColorMode = "never"
)

// ensure ColorMode implements pflag.Value.
var _ pflag.Value = (*ColorMode)(nil)

// String implements pflag.Value.String.
func (m *ColorMode) String() string {
	return string(*m)
}

// Set implements pflag.Value.Set.
func (m *ColorMode) Set(value string) error {
	switch mode := ColorMode(value); mode {
	case ColorAuto, ColorAlways, ColorNever:
		*m = mode
		return nil
	default:
		return errors.Errorf("invalid color mode: %s", value)
	}
}

// Type implements pflag.Value.Type.
func (m *ColorMode) Type() string {
	return "mode"
}

// IsTerminal returns whether or not the file is attached to a terminal. Cygwin
// and MSYS2 terminals (which use pipes) are treated as terminals.
func IsTerminal(file *os.File) bool {
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}

// ConfigureColor configures colorized output for the specified mode. In
// automatic mode, color is used only if standard output is a terminal and the
// NO_COLOR convention isn't in effect.
func ConfigureColor(mode ColorMode) error {
	switch mode {
	case ColorAuto, "":
		_, noColor := os.LookupEnv("NO_COLOR")
		color.NoColor = noColor || !IsTerminal(os.Stdout)
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	default:
		return errors.Errorf("invalid color mode: %s", mode)
	}
	return nil
}
