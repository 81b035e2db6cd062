package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/fswatch/cmd"
	"github.com/mutagen-io/fswatch/pkg/filesystem"
	"github.com/mutagen-io/fswatch/pkg/watching/roots"
)

// buildRequests creates watch requests for recursive and flat root paths. The
// paths are normalized.
func buildRequests(recursive, flat []string) ([]*roots.WatchRequest, error) {
	requests := make([]*roots.WatchRequest, 0, len(recursive)+len(flat))
	add := func(path string, recursive bool) error {
		normalized, err := filesystem.Normalize(path)
		if err != nil {
			return errors.Wrapf(err, "unable to normalize %s", path)
		}
		requests = append(requests, &roots.WatchRequest{
			ID:        roots.NewRequestID(),
			Path:      normalized,
			Recursive: recursive,
		})
		return nil
	}
	for _, path := range recursive {
		if err := add(path, true); err != nil {
			return nil, err
		}
	}
	for _, path := range flat {
		if err := add(path, false); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// normalizeMain is the entry point for the normalize command.
func normalizeMain(_ *cobra.Command, arguments []string) error {
	// Build and normalize the requests.
	requests, err := buildRequests(
		append(arguments, normalizeConfiguration.recursive...),
		normalizeConfiguration.flat,
	)
	if err != nil {
		return err
	}
	effective, dominance, _ := roots.Normalize(requests)

	// Print the effective roots.
	for _, request := range effective {
		kind := "recursive"
		if !request.Recursive {
			kind = "flat"
		}
		fmt.Printf("%-9s  %s\n", kind, request.Path)
	}

	// Print dominated requests if requested.
	if normalizeConfiguration.verbose {
		for _, request := range requests {
			if dominance[request.ID] {
				fmt.Printf("%-9s  %s\n", color.HiBlackString("dominated"), request.Path)
			}
		}
	}

	// Success.
	return nil
}

// normalizeCommand is the normalize command.
var normalizeCommand = &cobra.Command{
	Use:          "normalize [<path>...]",
	Short:        "Show the minimal set of roots covering the specified paths",
	Run:          cmd.Mainify(normalizeMain),
	SilenceUsage: true,
}

// normalizeConfiguration stores configuration for the normalize command.
var normalizeConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// recursive are additional recursive root paths.
	recursive []string
	// flat are flat root paths.
	flat []string
	// verbose indicates whether or not to show dominated requests.
	verbose bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := normalizeCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&normalizeConfiguration.help, "help", "h", false, "Show help information")
	flags.StringSliceVarP(&normalizeConfiguration.recursive, "recursive", "r", nil, "Add a recursive root")
	flags.StringSliceVarP(&normalizeConfiguration.flat, "flat", "f", nil, "Add a flat (non-recursive) root")
	flags.BoolVarP(&normalizeConfiguration.verbose, "verbose", "v", false, "Show dominated paths")
}
