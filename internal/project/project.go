// Package project turns the SDL Android project template into a buildable
// application project and assembles it.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/build"
	"github.com/goplus/cargo-sdl-apk/internal/config"
	"github.com/goplus/cargo-sdl-apk/internal/errs"
	"github.com/goplus/cargo-sdl-apk/internal/hook"
)

// State is the packaging step in progress.
type State int

const (
	Idle State = iota
	Scaffolding
	PlacingArtifacts
	Assembling
	Done
)

var stateNames = [...]string{"idle", "scaffolding", "placing artifacts", "assembling", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// NativeLibs locates the staged native dependency of a target.
type NativeLibs interface {
	Staged(target string) string
}

// Assembler builds the application bundle of a scaffolded project.
type Assembler interface {
	Assemble(ctx context.Context, release bool) error
	Bundle(release bool) string
}

// Packager scaffolds the project in Dir from Template and assembles it.
type Packager struct {
	Template string // SDL android-project
	SDL      string // SDL source tree, linked into the project
	Dir      string // working project, <manifest dir>/target/android-project
	Identity config.Identity

	Native    NativeLibs // nil skips the SDL library slot
	Assembler Assembler

	state State
}

// State returns the step the packager is in, or Done after success.
func (p *Packager) State() State { return p.state }

func (p *Packager) enter(s State) {
	p.state = s
	glog.V(1).Infof("Packaging: %s", s)
}

// Package runs scaffolding, artifact placement and assembly in order and
// returns the assembled bundle. Any failure leaves the project as it is.
func (p *Packager) Package(ctx context.Context, reg *hook.Registry, profile build.Profile) (string, error) {
	p.enter(Scaffolding)
	if err := p.Scaffold(); err != nil {
		return "", fmt.Errorf("failed to scaffold %s: %w", p.Dir, err)
	}

	p.enter(PlacingArtifacts)
	if err := p.Place(reg); err != nil {
		return "", fmt.Errorf("failed to place libraries: %w", err)
	}

	p.enter(Assembling)
	release := profile == build.Release
	if err := p.Assembler.Assemble(ctx, release); err != nil {
		return "", err
	}
	bundle := p.Assembler.Bundle(release)
	if _, err := os.Stat(bundle); err != nil {
		return "", errs.Resolutionf("assembled bundle not found: %v", err)
	}

	p.enter(Done)
	glog.Infof("Assembled %s", bundle)
	return bundle, nil
}

// JniLibs returns the per-ABI library directory of the project.
func (p *Packager) JniLibs(abi string) string {
	return filepath.Join(p.Dir, "app", "src", "main", "jniLibs", abi)
}
