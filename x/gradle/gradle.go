// Package gradle wraps the Gradle wrapper of an Android project.
package gradle

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/command"
)

// Gradle runs tasks of the project in dir.
type Gradle struct {
	dir string

	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Gradle for the project rooted at dir.
func New(dir string) *Gradle {
	return &Gradle{dir: dir}
}

// Wrapper returns the path of the project's gradle wrapper script.
func (g *Gradle) Wrapper() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(g.dir, "gradlew.bat")
	}
	return filepath.Join(g.dir, "gradlew")
}

// Assemble runs assembleDebug or assembleRelease.
func (g *Gradle) Assemble(ctx context.Context, release bool) error {
	task := "assembleDebug"
	if release {
		task = "assembleRelease"
	}
	return g.Run(ctx, task)
}

// Run runs tasks in the project directory.
func (g *Gradle) Run(ctx context.Context, tasks ...string) error {
	glog.Infof("Running gradle %v", tasks)
	cmd := exec.CommandContext(ctx, g.Wrapper(), tasks...)
	cmd.Dir = g.dir
	cmd.Stdout = g.Stdout
	cmd.Stderr = g.Stderr
	if err := command.Run(cmd); err != nil {
		return fmt.Errorf("failed to run gradle %v: %w", tasks, err)
	}
	return nil
}

// OutputDir returns the directory of the application bundles.
func (g *Gradle) OutputDir() string {
	return filepath.Join(g.dir, "app", "build", "outputs", "apk")
}

// Bundle returns the bundle assembleDebug or assembleRelease produces.
// Release bundles leave Gradle unsigned.
func (g *Gradle) Bundle(release bool) string {
	if release {
		return filepath.Join(g.OutputDir(), "release", "app-release-unsigned.apk")
	}
	return filepath.Join(g.OutputDir(), "debug", "app-debug.apk")
}

// SignedBundle returns where the signed release bundle is written.
func (g *Gradle) SignedBundle() string {
	return filepath.Join(g.OutputDir(), "release", "app-release.apk")
}
