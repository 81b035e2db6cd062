package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/fswatch/cmd"
	"github.com/mutagen-io/fswatch/cmd/profile"
	"github.com/mutagen-io/fswatch/pkg/configuration"
	"github.com/mutagen-io/fswatch/pkg/vfs"
	"github.com/mutagen-io/fswatch/pkg/watching/dirty"
	"github.com/mutagen-io/fswatch/pkg/watching/native"
	"github.com/mutagen-io/fswatch/pkg/watching/session"
)

// defaultCacheCapacity is the default number of entries tracked by the cache.
const defaultCacheCapacity = 1 << 16

// preload records the roots and their content in the cache, stopping once the
// cache is full. Flat roots only load their immediate children. It returns the
// number of cached entries.
func preload(cache *vfs.MemoryCache, recursive, flat []string, capacity int) int {
	full := func() bool {
		return capacity > 0 && cache.Len() >= capacity
	}
	for _, root := range recursive {
		filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
			if err != nil {
				return nil
			} else if full() {
				return filepath.SkipAll
			}
			cache.Load(path)
			return nil
		})
	}
	for _, root := range flat {
		if full() {
			break
		}
		cache.Load(root)
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if full() {
				break
			}
			cache.Load(filepath.Join(root, entry.Name()))
		}
	}
	return cache.Len()
}

// describe formats a set of dirty paths for display.
func describe(paths *dirty.Paths) []string {
	var lines []string
	if paths.Overflowed {
		lines = append(lines, color.RedString("%-8s", "overflow")+" all roots are stale")
	}
	for _, path := range paths.SortedRecursive() {
		lines = append(lines, color.CyanString("%-8s", "tree")+" "+path)
	}
	for _, path := range paths.SortedDirectories() {
		lines = append(lines, color.BlueString("%-8s", "listing")+" "+path)
	}
	for _, path := range paths.SortedPaths() {
		lines = append(lines, color.GreenString("%-8s", "entry")+" "+path)
	}
	return lines
}

// loadConfiguration loads the watching configuration and applies command line
// overrides.
func loadConfiguration(command *cobra.Command) (*configuration.Configuration, error) {
	// Load the configuration.
	var result *configuration.Configuration
	var err error
	if watchConfiguration.configuration != "" {
		result, err = configuration.Load(watchConfiguration.configuration, watchConfiguration.environment)
	} else {
		result, err = configuration.LoadGlobal(watchConfiguration.environment)
	}
	if err != nil {
		return nil, err
	}

	// Apply overrides.
	flags := command.Flags()
	if flags.Changed("notifier") {
		result.NotifierPath = watchConfiguration.notifier
	}
	if flags.Changed("interval") {
		result.DrainInterval = configuration.Duration(watchConfiguration.interval)
	}
	if flags.Changed("disable") {
		result.Disabled = watchConfiguration.disable
	}
	result.Exclude = append(result.Exclude, watchConfiguration.exclude...)

	// Validate the result.
	if err := result.EnsureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	// Success.
	return result, nil
}

// watchMain is the entry point for the watch command.
func watchMain(command *cobra.Command, arguments []string) error {
	// Compute the requested roots.
	recursive := append(arguments, watchConfiguration.recursive...)
	flat := watchConfiguration.flat
	if len(recursive) == 0 && len(flat) == 0 {
		return errors.New("no roots specified")
	}

	// Set up logging.
	logger, closer, err := cmd.ConfigureLogging(watchConfiguration.logLevel, watchConfiguration.logFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Start profiling if requested.
	if watchConfiguration.profile != "" {
		profiler, err := profile.New(watchConfiguration.profile, "fswatch_watch")
		if err != nil {
			return errors.Wrap(err, "unable to start profiling")
		}
		defer func() {
			if err := profiler.Finalize(); err != nil {
				cmd.Error(errors.Wrap(err, "unable to finalize profiling"))
			}
		}()
	}

	// Load the configuration.
	config, err := loadConfiguration(command)
	if err != nil {
		return err
	}

	// Cancel on termination signals.
	ctx, cancel := signal.NotifyContext(context.Background(), cmd.TerminationSignals...)
	defer cancel()

	// Create the status printer. Status lines are only used on terminals.
	printer := &cmd.StatusLinePrinter{}
	terminal := cmd.IsTerminal(os.Stdout)
	defer printer.BreakIfNonEmpty()
	emit := func(line string) {
		if terminal {
			printer.Println(line)
		} else {
			fmt.Println(line)
		}
	}

	// Create the coordinator.
	var policy native.RecursiveDirtyPolicy
	if watchConfiguration.escalate {
		policy = native.EscalateAlways
	}
	coordinator, err := session.NewCoordinator(config, session.Options{
		RecursiveDirtyPolicy: policy,
		Logger:               logger.Sublogger("watching"),
		Notifier: session.FailureNotifierFunc(func(message string) {
			printer.BreakIfNonEmpty()
			cmd.Warning(message)
		}),
	})
	if err != nil {
		return err
	}
	defer coordinator.Terminate()

	// Submit the roots and wait for them to be applied.
	coordinator.ReplaceWatchRoots(nil, recursive, flat)
	if err := coordinator.WaitForRoots(ctx); err != nil {
		return nil
	}
	recursiveRoots, flatRoots := coordinator.Roots()

	// Populate the cache.
	cache := vfs.NewMemoryCache(watchConfiguration.cacheCapacity)
	cached := preload(cache, recursiveRoots, flatRoots, watchConfiguration.cacheCapacity)
	emit(fmt.Sprintf("Watching %s roots (%s cached entries)",
		humanize.Comma(int64(len(recursiveRoots)+len(flatRoots))),
		humanize.Comma(int64(cached)),
	))
	if !coordinator.IsOperational() {
		cmd.Warning("native watching is unavailable, roots must be polled")
	}

	// Process changes until cancelled.
	var observed, invalidated int64
	var lastChange time.Time
	reportedManual := make(map[string]bool)
	observe := func(paths *dirty.Paths) {
		for _, root := range coordinator.ManualWatchRoots() {
			if !reportedManual[root] {
				reportedManual[root] = true
				emit(color.YellowString("%-8s", "manual") + " " + root)
			}
		}
		for _, line := range describe(paths) {
			emit(line)
		}
		observed += int64(paths.Len())
		invalidated += int64(len(cache.Refresh()))
		lastChange = time.Now()
		if terminal {
			printer.Print(fmt.Sprintf("%s changes, %s cache invalidations, last change %s",
				humanize.Comma(observed),
				humanize.Comma(invalidated),
				humanize.Time(lastChange),
			))
		}
	}
	if err := coordinator.Run(ctx, cache, observe); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// Success.
	return nil
}

// watchCommand is the watch command.
var watchCommand = &cobra.Command{
	Use:          "watch [<path>...]",
	Short:        "Watch filesystem roots and report changes",
	Run:          cmd.Mainify(watchMain),
	SilenceUsage: true,
}

// watchConfiguration stores configuration for the watch command.
var watchConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// recursive are additional recursive root paths.
	recursive []string
	// flat are flat root paths.
	flat []string
	// exclude are additional exclusion patterns.
	exclude []string
	// configuration is the path to a configuration file.
	configuration string
	// environment is the path to a dotenv-style environment file.
	environment string
	// notifier is the path to the notifier executable.
	notifier string
	// interval is the drain interval.
	interval time.Duration
	// disable disables native watching.
	disable bool
	// escalate indicates whether or not recursive dirtiness notifications
	// should invalidate whole roots.
	escalate bool
	// cacheCapacity is the number of entries tracked by the cache.
	cacheCapacity int
	// logLevel is the log level name.
	logLevel string
	// logFile is the path to a log file, if any.
	logFile string
	// profile is the directory in which to write profiles, if any.
	profile string
}

func init() {
	// Grab a handle for the command line flags.
	flags := watchCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&watchConfiguration.help, "help", "h", false, "Show help information")

	// Wire up root flags.
	flags.StringSliceVarP(&watchConfiguration.recursive, "recursive", "r", nil, "Add a recursive root")
	flags.StringSliceVarP(&watchConfiguration.flat, "flat", "f", nil, "Add a flat (non-recursive) root")
	flags.StringSliceVarP(&watchConfiguration.exclude, "exclude", "x", nil, "Ignore changes to paths matching a pattern")

	// Wire up configuration flags.
	flags.StringVarP(&watchConfiguration.configuration, "config", "c", "", "Load configuration from the specified file instead of the global configuration")
	flags.StringVar(&watchConfiguration.environment, "env-file", "", "Load environment overrides from a dotenv-style file")
	flags.StringVar(&watchConfiguration.notifier, "notifier", "", "Use the specified notifier executable")
	flags.DurationVar(&watchConfiguration.interval, "interval", configuration.DefaultDrainInterval, "Set the interval between change reports")
	flags.BoolVar(&watchConfiguration.disable, "disable", false, "Disable native watching")
	flags.BoolVar(&watchConfiguration.escalate, "escalate-recursive", false, "Invalidate whole roots on recursive dirtiness notifications")
	flags.IntVar(&watchConfiguration.cacheCapacity, "cache-capacity", defaultCacheCapacity, "Set the number of entries tracked by the cache")

	// Wire up logging flags.
	flags.StringVar(&watchConfiguration.logLevel, "log-level", "warn", "Set the log level (disabled|error|warn|info|debug|trace)")
	flags.StringVar(&watchConfiguration.logFile, "log-file", "", "Write logs to a rotated file instead of standard error")

	// Wire up hidden flags.
	flags.StringVar(&watchConfiguration.profile, "profile", "", "Write CPU and heap profiles to the specified directory")
	flags.MarkHidden("profile")
}
