// Package build drives one build-tool invocation over every target
// architecture and collects the library produced for each of them.
package build

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/hook"
	"github.com/goplus/cargo-sdl-apk/internal/toolchain"
)

// Request describes what to build.
type Request struct {
	ManifestPath string
	Targets      []string
	Profile      Profile
	Example      string // build this example instead of the package binaries
}

// Unit returns a readable name for the program being built.
func (r Request) Unit() string {
	if r.Example != "" {
		return "example " + r.Example
	}
	return "binaries"
}

// BuildTool runs a multi-target build and routes every compiler command
// through exec.
type BuildTool interface {
	Compile(ctx context.Context, req Request, exec hook.Executor) error
}

// Driver builds the designated program once per target.
type Driver struct {
	Tool    BuildTool
	NDKHome string

	// Linkers resolves the linker of every target. Nil uses toolchain.Linkers.
	Linkers func(ndkRoot string, targets []string) (map[string]string, error)
	// Runner overrides how intercepted commands are started.
	Runner hook.Runner
}

// Build runs the build tool once for all targets and returns the registry
// of produced libraries. The registry is complete when err is nil.
func (d *Driver) Build(ctx context.Context, req Request) (*hook.Registry, error) {
	resolve := d.Linkers
	if resolve == nil {
		resolve = toolchain.Linkers
	}
	linkers, err := resolve(d.NDKHome, req.Targets)
	if err != nil {
		return nil, err
	}

	reg := hook.NewRegistry()
	exec := &hook.LibExecutor{
		Linkers:  linkers,
		Recorder: reg,
		Runner:   d.Runner,
	}
	glog.Infof("Building %s for %v (%s)", req.Unit(), req.Targets, req.Profile)
	if err := d.Tool.Compile(ctx, req, exec); err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", req.Unit(), err)
	}
	if err := reg.Verify(req.Targets); err != nil {
		return nil, err
	}
	return reg, nil
}
