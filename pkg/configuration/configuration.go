package configuration

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/mutagen-io/fswatch/pkg/encoding"
	"github.com/mutagen-io/fswatch/pkg/process"
	"github.com/mutagen-io/fswatch/pkg/watching/dirty"
	"github.com/mutagen-io/fswatch/pkg/watching/native"
)

const (
	// DisableEnvironmentVariable is the environment variable that disables
	// native watching when set to a true value.
	DisableEnvironmentVariable = "FSWATCH_DISABLE"
	// NotifierEnvironmentVariable is the environment variable that overrides
	// the path to the notifier executable.
	NotifierEnvironmentVariable = "FSWATCH_NOTIFIER"
	// NotifierName is the base name of the notifier executable.
	NotifierName = "fswatch-notifier"
	// DefaultDrainInterval is the default interval between periodic drains.
	DefaultDrainInterval = 500 * time.Millisecond
)

// Configuration is the YAML configuration object type.
type Configuration struct {
	// Disabled disables native watching entirely.
	Disabled bool `yaml:"disabled"`
	// NotifierPath overrides the path to the notifier executable.
	NotifierPath string `yaml:"notifier"`
	// MaximumStartAttempts is the number of consecutive failed notifier
	// launches after which watching is considered to have failed.
	MaximumStartAttempts int `yaml:"maximumStartAttempts"`
	// StableRunDuration is the run time after which a notifier launch is
	// considered successful.
	StableRunDuration Duration `yaml:"stableRunDuration"`
	// RestartDelay is the delay before restarting a failed notifier.
	RestartDelay Duration `yaml:"restartDelay"`
	// ShutdownGracePeriod is the time that the notifier is given to exit
	// before being killed.
	ShutdownGracePeriod Duration `yaml:"shutdownGracePeriod"`
	// DrainInterval is the interval between periodic drains.
	DrainInterval Duration `yaml:"drainInterval"`
	// MaximumPendingPaths bounds the number of dirty paths accumulated between
	// drains.
	MaximumPendingPaths int `yaml:"maximumPendingPaths"`
	// Exclude are doublestar patterns for paths whose changes are ignored.
	Exclude []string `yaml:"exclude"`
}

// Default returns the default configuration.
func Default() *Configuration {
	return &Configuration{
		MaximumStartAttempts: native.DefaultMaximumStartAttempts,
		StableRunDuration:    Duration(native.DefaultStableRunDuration),
		RestartDelay:         Duration(native.DefaultRestartDelay),
		ShutdownGracePeriod:  Duration(native.DefaultShutdownGracePeriod),
		DrainInterval:        Duration(DefaultDrainInterval),
		MaximumPendingPaths:  dirty.DefaultMaximumPendingPaths,
	}
}

// Load computes the effective configuration. It starts from the defaults and
// then applies, in order, the YAML configuration file at path (if non-empty),
// the dotenv-style environment file at environmentPath (if non-empty), and the
// process environment. A missing configuration file is an error, but a
// missing environment file is treated as empty.
func Load(path, environmentPath string) (*Configuration, error) {
	// Start with the defaults.
	result := Default()

	// Load the configuration file.
	if path != "" {
		if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
			return nil, errors.Wrap(err, "unable to load configuration file")
		}
	}

	// Apply the environment file.
	if environmentPath != "" {
		environment, err := godotenv.Read(environmentPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "unable to load environment file (%s)", environmentPath)
		}
		if err := result.applyEnvironment(func(key string) (string, bool) {
			value, ok := environment[key]
			return value, ok
		}); err != nil {
			return nil, errors.Wrap(err, "invalid environment file")
		}
	}

	// Apply the process environment.
	if err := result.applyEnvironment(os.LookupEnv); err != nil {
		return nil, errors.Wrap(err, "invalid environment")
	}

	// Validate the result.
	if err := result.EnsureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	// Success.
	return result, nil
}

// LoadGlobal computes the effective configuration using the global
// configuration file, if it exists.
func LoadGlobal(environmentPath string) (*Configuration, error) {
	path, err := GlobalConfigurationPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "unable to probe global configuration file")
		}
		path = ""
	}
	return Load(path, environmentPath)
}

// applyEnvironment applies environment variable overrides.
func (c *Configuration) applyEnvironment(lookup func(string) (string, bool)) error {
	if value, ok := lookup(DisableEnvironmentVariable); ok && value != "" {
		disabled, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s", DisableEnvironmentVariable)
		}
		c.Disabled = disabled
	}
	if value, ok := lookup(NotifierEnvironmentVariable); ok && value != "" {
		c.NotifierPath = value
	}
	return nil
}

// EnsureValid ensures that the configuration is valid.
func (c *Configuration) EnsureValid() error {
	// Check numeric parameters.
	if c.MaximumStartAttempts < 1 {
		return errors.New("maximum start attempts must be positive")
	} else if c.StableRunDuration <= 0 {
		return errors.New("stable run duration must be positive")
	} else if c.RestartDelay < 0 {
		return errors.New("restart delay must be non-negative")
	} else if c.ShutdownGracePeriod <= 0 {
		return errors.New("shutdown grace period must be positive")
	} else if c.DrainInterval <= 0 {
		return errors.New("drain interval must be positive")
	} else if c.MaximumPendingPaths < 1 {
		return errors.New("maximum pending paths must be positive")
	}

	// Check exclusion patterns.
	for _, pattern := range c.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return errors.New("empty exclusion pattern")
		} else if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid exclusion pattern: %s", pattern)
		}
	}

	// Success.
	return nil
}

// Notifier returns the path to the notifier executable. If no path is
// configured, then the notifier is searched for alongside the current
// executable and then in the directories listed in PATH.
func (c *Configuration) Notifier() (string, error) {
	// Use the configured path if present.
	if c.NotifierPath != "" {
		return c.NotifierPath, nil
	}

	// Compute the search path.
	var directories []string
	if executable, err := os.Executable(); err == nil {
		directories = append(directories, filepath.Dir(executable))
	}
	directories = append(directories, filepath.SplitList(os.Getenv("PATH"))...)

	// Search for the notifier.
	path, err := process.FindCommand(NotifierName, directories)
	if err != nil {
		return "", errors.Wrapf(err, "unable to locate %s", process.ExecutableName(NotifierName, runtime.GOOS))
	}
	return path, nil
}

// ClientOptions converts the configuration to native client options. The
// executable, filter, and logger are left for the caller to populate.
func (c *Configuration) ClientOptions() native.Options {
	return native.Options{
		MaximumStartAttempts: c.MaximumStartAttempts,
		StableRunDuration:    c.StableRunDuration.Duration(),
		RestartDelay:         c.RestartDelay.Duration(),
		ShutdownGracePeriod:  c.ShutdownGracePeriod.Duration(),
	}
}
