package hook

import (
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// Registry maps target identifiers to the absolute path of the library built
// for them. Each target is written at most once.
type Registry struct {
	mu    sync.Mutex
	paths map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]string)}
}

// Record stores path for target. Recording the same path again is a no-op;
// a different path for an already recorded target is an error.
func (r *Registry) Record(target, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.paths[target]; ok {
		if prev == path {
			return nil
		}
		return errs.Resolutionf("target %s produced two artifacts: %s and %s; "+
			"the package must have a single bin target, or select one with --example", target, prev, path)
	}
	r.paths[target] = path
	return nil
}

// Lookup returns the path recorded for target.
func (r *Registry) Lookup(target string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.paths[target]
	return p, ok
}

// Len returns the number of recorded targets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// Snapshot returns a copy of the mapping.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.paths)
}

// Targets returns the recorded targets in sorted order.
func (r *Registry) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.paths))
}

// Verify checks that the registry holds exactly the requested targets and
// that every recorded path is an existing, non-empty file.
func (r *Registry) Verify(targets []string) error {
	paths := r.Snapshot()
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[t] = true
		p, ok := paths[t]
		if !ok {
			return errs.Resolutionf("no artifact recorded for target %s", t)
		}
		fi, err := os.Stat(p)
		if err != nil {
			return errs.Resolutionf("artifact for %s: %v", t, err)
		}
		if !fi.Mode().IsRegular() || fi.Size() == 0 {
			return errs.Resolutionf("artifact for %s is empty or not a regular file: %s", t, p)
		}
	}
	for t := range paths {
		if !want[t] {
			return errs.Resolutionf("artifact recorded for unrequested target %s", t)
		}
	}
	return nil
}
