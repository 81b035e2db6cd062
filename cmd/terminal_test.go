package cmd

import (
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

func TestConfigureColor(t *testing.T) {
	original := color.NoColor
	defer func() {
		color.NoColor = original
	}()

	if err := ConfigureColor(ColorAlways); err != nil {
		t.Fatal("unable to enable color:", err)
	} else if color.NoColor {
		t.Error("color not enabled")
	}
	if err := ConfigureColor(ColorNever); err != nil {
		t.Fatal("unable to disable color:", err)
	} else if !color.NoColor {
		t.Error("color not disabled")
	}
	if err := ConfigureColor("sometimes"); err == nil {
		t.Error("invalid color mode accepted")
	}
}

func TestColorModeFlag(t *testing.T) {
	mode := ColorAuto
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Var(&mode, "color", "")

	if err := flags.Parse([]string{"--color", "never"}); err != nil {
		t.Fatal("unable to parse valid color mode:", err)
	} else if mode != ColorNever {
		t.Error("color mode not set:", mode)
	}
	if err := flags.Parse([]string{"--color=sometimes"}); err == nil {
		t.Error("invalid color mode accepted")
	}
}
