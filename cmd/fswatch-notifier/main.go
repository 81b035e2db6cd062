package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/fswatch/cmd"
	"github.com/mutagen-io/fswatch/pkg/fswatch"
	"github.com/mutagen-io/fswatch/pkg/notifier"
)

// watchLimitExitCode is the exit code used when watch resources are exhausted.
const watchLimitExitCode = 2

// rootMain is the entry point for the root command.
func rootMain(_ *cobra.Command, _ []string) error {
	// Set up logging. Standard output carries the protocol, so diagnostics
	// always go to standard error unless a log file is specified.
	logger, closer, err := cmd.ConfigureLogging(rootConfiguration.logLevel, rootConfiguration.logFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Cancel on termination signals.
	ctx, cancel := signal.NotifyContext(context.Background(), cmd.TerminationSignals...)
	defer cancel()

	// Run the notifier.
	if err := notifier.Run(ctx, os.Stdin, os.Stdout, logger.Sublogger("notifier")); err != nil {
		if errors.Is(err, notifier.ErrWatchLimit) {
			logger.Error(err)
			return &cmd.ExitError{Code: watchLimitExitCode}
		}
		return err
	}

	// Success.
	return nil
}

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:          "fswatch-notifier",
	Version:      fswatch.Version,
	Short:        "Report filesystem changes using the watcher line protocol on standard input and output",
	Args:         cobra.NoArgs,
	Run:          cmd.Mainify(rootMain),
	SilenceUsage: true,
}

// rootConfiguration stores configuration for the root command.
var rootConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// logLevel is the log level name.
	logLevel string
	// logFile is the path to a log file, if any.
	logFile string
}

func init() {
	// Disable Cobra's use of mousetrap. The notifier is always launched by
	// another process.
	cobra.MousetrapHelpText = ""

	// Set the template used by the version flag.
	rootCommand.SetVersionTemplate("fswatch-notifier version {{ .Version }}\n")

	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "warn", "Set the log level (disabled|error|warn|info|debug|trace)")
	flags.StringVar(&rootConfiguration.logFile, "log-file", "", "Write logs to a rotated file instead of standard error")
}

func main() {
	// Execute the root command.
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
