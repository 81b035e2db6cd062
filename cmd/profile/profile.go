// Package profile provides CPU and heap profiling for command line entry
// points.
package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
)

// Profile is an in-progress CPU profile that also captures a heap profile when
// finalized.
type Profile struct {
	// prefix is the path prefix for profile outputs.
	prefix string
	// cpuProfile is the output file for the CPU profile.
	cpuProfile *os.File
}

// New starts a profile whose outputs are written to the specified directory
// using the specified name as a file prefix.
func New(directory, name string) (*Profile, error) {
	// Start the CPU profile.
	prefix := filepath.Join(directory, name)
	cpuProfile, err := os.Create(prefix + "_cpu.prof")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create CPU profile")
	}
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		cpuProfile.Close()
		os.Remove(cpuProfile.Name())
		return nil, errors.Wrap(err, "unable to start CPU profile")
	}

	// Success.
	return &Profile{
		prefix:     prefix,
		cpuProfile: cpuProfile,
	}, nil
}

// Finalize stops the CPU profile and writes a heap profile.
func (p *Profile) Finalize() error {
	// Close out the CPU profile.
	pprof.StopCPUProfile()
	if err := p.cpuProfile.Close(); err != nil {
		return errors.Wrap(err, "unable to close CPU profile")
	}

	// Update heap statistics and write the heap profile.
	runtime.GC()
	heapProfile, err := os.Create(p.prefix + "_heap.prof")
	if err != nil {
		return errors.Wrap(err, "unable to create heap profile")
	}
	if err := pprof.WriteHeapProfile(heapProfile); err != nil {
		heapProfile.Close()
		return errors.Wrap(err, "unable to write heap profile")
	}
	if err := heapProfile.Close(); err != nil {
		return errors.Wrap(err, "unable to close heap profile")
	}

	// Success.
	return nil
}
