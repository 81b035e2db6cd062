package session

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mutagen-io/fswatch/pkg/configuration"
	"github.com/mutagen-io/fswatch/pkg/filesystem"
	"github.com/mutagen-io/fswatch/pkg/logging"
	"github.com/mutagen-io/fswatch/pkg/state"
	"github.com/mutagen-io/fswatch/pkg/vfs"
	"github.com/mutagen-io/fswatch/pkg/watching/dirty"
	"github.com/mutagen-io/fswatch/pkg/watching/native"
	"github.com/mutagen-io/fswatch/pkg/watching/pathmap"
	"github.com/mutagen-io/fswatch/pkg/watching/roots"
)

const (
	// causeStartup is the failure cause used when the notifier can't be
	// located or started.
	causeStartup = "startup"
	// coalescingWindow is the window used to group dirty path notifications
	// before an early drain.
	coalescingWindow = 20 * time.Millisecond
)

// Options are optional coordinator parameters.
type Options struct {
	// Notifier receives failure notifications. It may be nil.
	Notifier FailureNotifier
	// RecursiveDirtyPolicy is the escalation policy for recursive dirtiness
	// notifications. It may be nil.
	RecursiveDirtyPolicy native.RecursiveDirtyPolicy
	// Resolver computes canonical root paths. If nil, then
	// filesystem.Canonicalize is used.
	Resolver pathmap.Resolver
	// Logger is the logger to use. It may be nil.
	Logger *logging.Logger
}

// Coordinator is the entry point to the watching subsystem. It maintains the
// set of watch requests, applies root changes through a single executor
// Goroutine, supervises the native notifier, and applies accumulated dirty
// paths to a file cache. It is safe for concurrent usage.
type Coordinator struct {
	// configuration is the watching configuration.
	configuration *configuration.Configuration
	// logger is the coordinator's logger.
	logger *logging.Logger
	// resolve is the canonical path resolver.
	resolve pathmap.Resolver
	// notifier deduplicates failure notifications.
	notifier *onceNotifier
	// coalescer groups dirty path notifications.
	coalescer *state.Coalescer
	// aggregator accumulates dirty paths.
	aggregator *dirty.Aggregator
	// client is the native notifier client. It's nil if watching is disabled
	// or if the notifier couldn't be started.
	client *native.Client
	// wake signals the executor that a submission is pending.
	wake chan struct{}
	// cancel cancels the executor.
	cancel context.CancelFunc
	// done is closed when the executor exits.
	done chan struct{}
	// terminateOnce guards termination.
	terminateOnce sync.Once

	// tracker tracks changes to the coordinator's state.
	tracker *state.Tracker
	// lock guards the fields below and notifies tracker on release.
	lock *state.TrackingLock
	// requests are the active watch requests, in submission order.
	requests []*roots.WatchRequest
	// submitted is the generation of the latest submission.
	submitted uint64
	// applied is the generation of the latest applied submission.
	applied uint64
	// recursiveRoots are the applied effective recursive roots.
	recursiveRoots []string
	// flatRoots are the applied effective flat roots.
	flatRoots []string
	// trie is the applied normalization trie.
	trie *roots.Trie
	// pathMap is the path map for the applied effective roots.
	pathMap *pathmap.Map
	// manualRoots is the intersection of the unwatchable roots reported since
	// the roots last changed.
	manualRoots map[string]bool
	// manualRootsInitialized indicates that manualRoots holds a report.
	manualRootsInitialized bool
}

// NewCoordinator creates a new coordinator. If watching isn't disabled, then
// the native notifier is started immediately. Notifier startup failures are
// reported through the failure notifier rather than returned, leaving the
// coordinator non-operational. Errors are only returned for invalid
// configurations.
func NewCoordinator(configuration *configuration.Configuration, options Options) (*Coordinator, error) {
	// Validate the configuration.
	if err := configuration.EnsureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	filter, err := newExclusionFilter(configuration.Exclude)
	if err != nil {
		return nil, err
	}

	// Determine the resolver.
	resolve := options.Resolver
	if resolve == nil {
		resolve = filesystem.Canonicalize
	}

	// Create the coordinator.
	coalescer := state.NewCoalescer(coalescingWindow, configuration.DrainInterval.Duration())
	tracker := state.NewTracker()
	ctx, cancel := context.WithCancel(context.Background())
	coordinator := &Coordinator{
		configuration: configuration,
		logger:        options.Logger,
		resolve:       resolve,
		notifier:      newOnceNotifier(options.Notifier),
		coalescer:     coalescer,
		aggregator:    dirty.NewAggregator(configuration.MaximumPendingPaths, coalescer.Strobe),
		wake:          make(chan struct{}, 1),
		cancel:        cancel,
		done:          make(chan struct{}),
		tracker:       tracker,
		lock:          state.NewTrackingLock(tracker),
	}

	// Start the native client.
	if configuration.Disabled {
		coordinator.logger.Info("Native file watching is disabled")
	} else if executable, err := configuration.Notifier(); err != nil {
		coordinator.startupFailed(err)
	} else {
		clientOptions := configuration.ClientOptions()
		clientOptions.Executable = executable
		clientOptions.RecursiveDirtyPolicy = options.RecursiveDirtyPolicy
		clientOptions.Logger = coordinator.logger.Sublogger("native")
		if filter != nil {
			clientOptions.Filter = filter.excluded
		}
		callbacks := native.Callbacks{
			Unwatchable: coordinator.onUnwatchable,
			Failure:     coordinator.onFailure,
			StateChanged: func(_ native.State) {
				tracker.NotifyOfChange()
			},
		}
		if client, err := native.NewClient(clientOptions, coordinator.aggregator, callbacks); err != nil {
			coordinator.startupFailed(err)
		} else {
			coordinator.client = client
		}
	}

	// Start the executor.
	go coordinator.execute(ctx)

	// Success.
	return coordinator, nil
}

// startupFailed reports a notifier startup failure.
func (c *Coordinator) startupFailed(err error) {
	err = errors.Wrap(err, "unable to start native file watcher")
	c.logger.Error(err)
	c.notifier.notify(causeStartup, err.Error())
}

// onFailure handles client failure notifications. Non-fatal messages are
// keyed by their text, so each distinct message is reported once.
func (c *Coordinator) onFailure(cause native.Cause, message string) {
	key := cause.String()
	if cause.Fatal() {
		message = "Native file watcher failed (" + key + "): " + message
	} else {
		key += ": " + message
	}
	c.notifier.notify(key, message)
}

// onUnwatchable handles unwatchable root reports, intersecting them with
// earlier reports for the same roots. Reports for superseded roots are
// ignored.
func (c *Coordinator) onUnwatchable(pathMap *pathmap.Map, reported []string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if pathMap != c.pathMap {
		return
	}
	if !c.manualRootsInitialized {
		c.manualRoots = make(map[string]bool, len(reported))
		for _, root := range reported {
			c.manualRoots[root] = true
		}
		c.manualRootsInitialized = true
		return
	}
	current := make(map[string]bool, len(reported))
	for _, root := range reported {
		current[root] = true
	}
	for root := range c.manualRoots {
		if !current[root] {
			delete(c.manualRoots, root)
		}
	}
}

// normalizePath normalizes a requested path, falling back to lexical cleaning
// if normalization fails.
func (c *Coordinator) normalizePath(path string) string {
	normalized, err := filesystem.Normalize(path)
	if err != nil {
		c.logger.Warn(errors.Wrapf(err, "unable to normalize %s", path))
		return filesystem.TrimTrailingSeparators(filepath.Clean(path))
	}
	return normalized
}

// ReplaceWatchRoots removes the specified requests and adds new recursive and
// flat requests, returning the identifiers of the new requests (recursive
// requests first, in argument order). Unknown identifiers are ignored. It
// returns after submitting the change, which is then applied asynchronously
// (see IsSettingRoots and WaitForRoots). A newer submission supersedes any
// submission that hasn't yet been applied.
func (c *Coordinator) ReplaceWatchRoots(remove []roots.RequestID, addRecursive, addFlat []string) []roots.RequestID {
	// Handle no-op replacements.
	if len(remove) == 0 && len(addRecursive) == 0 && len(addFlat) == 0 {
		return nil
	}

	// Create the new requests.
	var added []*roots.WatchRequest
	for _, path := range addRecursive {
		added = append(added, &roots.WatchRequest{ID: roots.NewRequestID(), Path: c.normalizePath(path), Recursive: true})
	}
	for _, path := range addFlat {
		added = append(added, &roots.WatchRequest{ID: roots.NewRequestID(), Path: c.normalizePath(path)})
	}
	ids := make([]roots.RequestID, len(added))
	for i, request := range added {
		ids[i] = request.ID
	}

	// Compute and record the new request set.
	removed := make(map[roots.RequestID]bool, len(remove))
	for _, id := range remove {
		removed[id] = true
	}
	c.lock.Lock()
	requests := make([]*roots.WatchRequest, 0, len(c.requests)+len(added))
	for _, request := range c.requests {
		if !removed[request.ID] {
			requests = append(requests, request)
		}
	}
	c.requests = append(requests, added...)
	c.submitted++
	c.lock.Unlock()

	// Wake the executor.
	select {
	case c.wake <- struct{}{}:
	default:
	}

	// Done.
	return ids
}

// execute is the executor run loop. It applies the latest request set each
// time that it's woken.
func (c *Coordinator) execute(ctx context.Context) {
	// Signal completion when done.
	defer close(c.done)

	for {
		// Wait for a submission or cancellation.
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}

		// Grab the latest submission.
		c.lock.Lock()
		generation := c.submitted
		requests := make([]*roots.WatchRequest, len(c.requests))
		for i, request := range c.requests {
			snapshot := *request
			requests[i] = &snapshot
		}
		c.lock.UnlockWithoutNotify()

		// Compute the effective roots.
		minimal, dominance, trie := roots.Normalize(requests)
		recursive, flat := roots.Split(minimal)

		// Record the results. If the effective roots changed, then build a new
		// path map and reset the manual roots, which are only meaningful for
		// the roots that they were reported for.
		c.lock.Lock()
		for _, request := range c.requests {
			if dominated, ok := dominance[request.ID]; ok {
				request.Dominated = dominated
			}
		}
		c.trie = trie
		var pathMap *pathmap.Map
		if !equalPaths(c.recursiveRoots, recursive) || !equalPaths(c.flatRoots, flat) {
			pathMap = pathmap.Build(recursive, flat, c.resolve)
			c.recursiveRoots, c.flatRoots = recursive, flat
			c.pathMap = pathMap
			c.manualRoots = nil
			c.manualRootsInitialized = false
		}
		c.lock.UnlockWithoutNotify()

		// Update the client.
		if pathMap != nil {
			c.logger.Debugf("Applying %d recursive and %d flat roots (%d requests)", len(recursive), len(flat), len(requests))
			if c.client != nil {
				c.client.SetRoots(pathMap)
			}
		}

		// Mark the submission as applied.
		c.lock.Lock()
		c.applied = generation
		c.lock.Unlock()
	}
}

// equalPaths compares two path lists.
func equalPaths(first, second []string) bool {
	if len(first) != len(second) {
		return false
	}
	for i := range first {
		if first[i] != second[i] {
			return false
		}
	}
	return true
}

// IsOperational returns whether or not native watching is functioning (or
// restarting within its retry bound). If it returns false, callers must poll
// the filesystem themselves.
func (c *Coordinator) IsOperational() bool {
	return c.client != nil && c.client.IsOperational()
}

// IsSettingRoots returns whether or not the latest root submission has yet to
// be applied.
func (c *Coordinator) IsSettingRoots() bool {
	c.lock.Lock()
	defer c.lock.UnlockWithoutNotify()
	return c.applied < c.submitted
}

// WaitForRoots blocks until the latest root submission has been applied, the
// context is cancelled, or the coordinator is terminated.
func (c *Coordinator) WaitForRoots(ctx context.Context) error {
	for {
		index := c.tracker.Index()
		if !c.IsSettingRoots() {
			return nil
		}
		if _, err := c.tracker.WaitForChange(ctx, index); err != nil {
			return err
		}
	}
}

// Requests returns a snapshot of the active watch requests, in submission
// order, with their dominance state as of the latest applied submission.
func (c *Coordinator) Requests() []roots.WatchRequest {
	c.lock.Lock()
	defer c.lock.UnlockWithoutNotify()
	result := make([]roots.WatchRequest, len(c.requests))
	for i, request := range c.requests {
		result[i] = *request
	}
	return result
}

// Roots returns the effective recursive and flat roots of the latest applied
// submission.
func (c *Coordinator) Roots() (recursive, flat []string) {
	c.lock.Lock()
	defer c.lock.UnlockWithoutNotify()
	return append([]string(nil), c.recursiveRoots...), append([]string(nil), c.flatRoots...)
}

// IsAlreadyWatched returns whether or not a path is covered by the effective
// roots of the latest applied submission.
func (c *Coordinator) IsAlreadyWatched(path string) bool {
	c.lock.Lock()
	defer c.lock.UnlockWithoutNotify()
	return c.trie.IsAlreadyWatched(path)
}

// ManualWatchRoots returns the roots that callers must poll themselves, in
// sorted order. While native watching is operational, these are the roots that
// the notifier consistently reported as unwatchable since the roots last
// changed. Otherwise, every effective root must be polled.
func (c *Coordinator) ManualWatchRoots() []string {
	operational := c.IsOperational()
	c.lock.Lock()
	defer c.lock.UnlockWithoutNotify()
	var result []string
	if operational {
		for root := range c.manualRoots {
			result = append(result, root)
		}
	} else {
		result = append(result, c.recursiveRoots...)
		result = append(result, c.flatRoots...)
	}
	sort.Strings(result)
	return result
}

// AcknowledgeFailure allows failures with the specified cause to be reported
// again. Causes are the names of fatal native.Cause values, "startup", or
// "message: " followed by the text of a notifier message.
func (c *Coordinator) AcknowledgeFailure(cause string) {
	c.notifier.acknowledge(cause)
}

// Drain returns the dirty paths accumulated since the last drain.
func (c *Coordinator) Drain() *dirty.Paths {
	return c.aggregator.Drain()
}

// Apply drains the accumulated dirty paths, applies them to the cache, and
// returns them. An overflowed set invalidates every effective root.
func (c *Coordinator) Apply(cache vfs.Cache) *dirty.Paths {
	// Drain.
	paths := c.Drain()

	// Handle overflows.
	if paths.Overflowed {
		c.logger.Warnf("Dirty path limit (%d) exceeded, invalidating all roots", c.configuration.MaximumPendingPaths)
		recursive, flat := c.Roots()
		for _, root := range recursive {
			markRecursive(cache, root)
		}
		for _, root := range flat {
			markPath(cache, root)
			if cache.Cached(root) {
				cache.MarkFlatDirectoryDirty(root)
			}
		}
	}

	// Apply the individual sets.
	for _, path := range paths.SortedRecursive() {
		markRecursive(cache, path)
	}
	for _, path := range paths.SortedPaths() {
		markPath(cache, path)
	}
	for _, path := range paths.SortedDirectories() {
		if cache.Cached(path) {
			cache.MarkFlatDirectoryDirty(path)
		}
	}

	// Done.
	return paths
}

// markParentListing marks the listing of a path's parent as stale if the
// parent is cached.
func markParentListing(cache vfs.Cache, path string) {
	if parent, ok := filesystem.Parent(path); ok && cache.Cached(parent) {
		cache.MarkFlatDirectoryDirty(parent)
	}
}

// markPath marks a single path as stale, falling back to its parent's listing
// if the path itself isn't cached.
func markPath(cache vfs.Cache, path string) {
	if cache.Cached(path) {
		cache.MarkDirty(path)
	} else {
		markParentListing(cache, path)
	}
}

// markRecursive marks a subtree as stale, falling back to its parent's listing
// if the path itself isn't cached.
func markRecursive(cache vfs.Cache, path string) {
	if cache.Cached(path) {
		cache.MarkDirtyRecursively(path)
	} else {
		markParentListing(cache, path)
	}
}

// Run periodically drains and applies dirty paths to the cache until the
// context is cancelled. Drains happen at the configured interval and also
// shortly after changes arrive. If observe is non-nil, it's invoked with each
// non-empty result.
func (c *Coordinator) Run(ctx context.Context, cache vfs.Cache, observe func(*dirty.Paths)) error {
	// Create the ticker.
	ticker := time.NewTicker(c.configuration.DrainInterval.Duration())
	defer ticker.Stop()

	// Loop until cancelled.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-c.coalescer.Signals():
		}
		if paths := c.Apply(cache); !paths.Empty() && observe != nil {
			observe(paths)
		}
	}
}

// Terminate shuts down the coordinator, including the native notifier. It is
// safe to call multiple times.
func (c *Coordinator) Terminate() {
	c.terminateOnce.Do(func() {
		c.cancel()
		<-c.done
		if c.client != nil {
			c.client.Terminate()
		}
		c.coalescer.Terminate()
		c.tracker.Terminate()
	})
}
