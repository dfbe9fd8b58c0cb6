// Package ndkbuild wraps the NDK build of the SDL2 native library.
package ndkbuild

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/goplus/cargo-sdl-apk/internal/command"
	"github.com/goplus/cargo-sdl-apk/internal/toolchain"
)

// Platform is the minimum platform the SDL library is compiled for.
const Platform = "android-18"

// LibName is the file name of the built SDL library.
const LibName = "libSDL2.so"

// NDKBuild builds SDL with ndk-build and stages the library next to the
// compiler outputs of every target.
type NDKBuild struct {
	script   string // ndk-build entry script
	sdlDir   string // SDL source tree
	stageDir string // <manifest dir>/target
	profile  string

	Stdout io.Writer
	Stderr io.Writer
}

// New returns an NDKBuild running script in sdlDir and staging below
// stageDir/<triple>/<profile>/deps.
func New(script, sdlDir, stageDir, profile string) *NDKBuild {
	return &NDKBuild{
		script:   script,
		sdlDir:   sdlDir,
		stageDir: stageDir,
		profile:  profile,
	}
}

// Args returns the ndk-build arguments for targets.
func (n *NDKBuild) Args(targets []string) ([]string, error) {
	abis := make([]string, 0, len(targets))
	for _, t := range targets {
		abi, err := toolchain.ABI(t)
		if err != nil {
			return nil, err
		}
		abis = append(abis, abi)
	}
	return []string{
		"NDK_PROJECT_PATH=.",
		"APP_BUILD_SCRIPT=./Android.mk",
		"APP_PLATFORM=" + Platform,
		"APP_ABI=" + strings.Join(abis, " "),
	}, nil
}

// Build compiles SDL once for all targets, then stages the library of each.
func (n *NDKBuild) Build(ctx context.Context, targets []string) error {
	args, err := n.Args(targets)
	if err != nil {
		return err
	}
	glog.Infof("Building SDL for %v", targets)
	cmd := exec.CommandContext(ctx, n.script, args...)
	cmd.Dir = n.sdlDir
	cmd.Stdout = n.Stdout
	cmd.Stderr = n.Stderr
	if err := command.Run(cmd); err != nil {
		return fmt.Errorf("failed to build SDL: %w", err)
	}
	return n.Stage(targets)
}

// Built returns where ndk-build leaves the library of target.
func (n *NDKBuild) Built(target string) (string, error) {
	abi, err := toolchain.ABI(target)
	if err != nil {
		return "", err
	}
	return filepath.Join(n.sdlDir, "libs", abi, LibName), nil
}

// Staged returns where the library of target is staged.
func (n *NDKBuild) Staged(target string) string {
	return filepath.Join(n.stageDir, target, n.profile, "deps", LibName)
}

// Stage copies the built library of every target into its deps directory,
// replacing any earlier copy.
func (n *NDKBuild) Stage(targets []string) error {
	var g errgroup.Group
	for _, t := range targets {
		src, err := n.Built(t)
		if err != nil {
			return err
		}
		dst := n.Staged(t)
		g.Go(func() error {
			if err := copyFile(dst, src); err != nil {
				return fmt.Errorf("unable to stage SDL for %s: %w", t, err)
			}
			glog.V(1).Infof("Staged %s", dst)
			return nil
		})
	}
	return g.Wait()
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
