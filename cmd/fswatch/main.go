package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mutagen-io/fswatch/cmd"
	"github.com/mutagen-io/fswatch/pkg/fswatch"
)

// rootMain is the entry point for the root command.
func rootMain(command *cobra.Command, _ []string) error {
	// If no commands were specified, then print help information and bail. We
	// don't have to worry about warning about arguments being present here
	// (which would be incorrect usage) because arguments can't even reach this
	// point (they will be mistaken for subcommands and an error will be
	// displayed).
	command.Help()

	// Success.
	return nil
}

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:          "fswatch",
	Version:      fswatch.Version,
	Short:        "Watch filesystem trees using a supervised native notifier",
	Run:          cmd.Mainify(rootMain),
	SilenceUsage: true,
}

// rootConfiguration stores configuration for the root command.
var rootConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// color is the colorized output mode.
	color cmd.ColorMode
}

func init() {
	// Disable Cobra's command sorting behavior. By default, it sorts commands
	// alphabetically in the help output.
	cobra.EnableCommandSorting = false

	// Set the template used by the version flag.
	rootCommand.SetVersionTemplate("fswatch version {{ .Version }}\n")

	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	// Add persistent flags.
	persistent := rootCommand.PersistentFlags()
	rootConfiguration.color = cmd.ColorAuto
	persistent.Var(&rootConfiguration.color, "color", "Set colorized output mode (auto|always|never)")

	// Configure color before any command runs.
	rootCommand.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return cmd.ConfigureColor(rootConfiguration.color)
	}

	// Register commands. We do this here (rather than in individual init
	// functions) so that we can control the order.
	rootCommand.AddCommand(
		watchCommand,
		normalizeCommand,
		versionCommand,
	)
}

func main() {
	// Execute the root command.
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
