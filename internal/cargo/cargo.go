// Package cargo runs Cargo with every rustc invocation routed through a
// hook.Executor.
package cargo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/build"
	"github.com/goplus/cargo-sdl-apk/internal/command"
	"github.com/goplus/cargo-sdl-apk/internal/hook"
)

// shutdownTimeout bounds how long Compile waits for in-flight hook requests.
const shutdownTimeout = 5 * time.Second

// Args returns the cargo arguments building req.
func Args(req build.Request) []string {
	args := []string{"build"}
	if req.ManifestPath != "" {
		args = append(args, "--manifest-path", req.ManifestPath)
	}
	for _, t := range req.Targets {
		args = append(args, "--target", t)
	}
	if req.Profile == build.Release {
		args = append(args, "--release")
	}
	if req.Example != "" {
		args = append(args, "--example", req.Example)
	} else {
		args = append(args, "--bins")
	}
	return args
}

// Tool is the Cargo implementation of build.BuildTool.
type Tool struct {
	Cargo   string // cargo binary; empty means $CARGO or "cargo"
	Wrapper string // rustc wrapper; empty means the running executable

	Stdout io.Writer
	Stderr io.Writer
}

func (t *Tool) cargo() string {
	if t.Cargo != "" {
		return t.Cargo
	}
	if c := os.Getenv("CARGO"); c != "" {
		return c
	}
	return "cargo"
}

func (t *Tool) wrapper() (string, error) {
	if t.Wrapper != "" {
		return t.Wrapper, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate own executable: %w", err)
	}
	return exe, nil
}

// Compile runs one cargo build for all targets of req. Cargo starts the
// wrapper for every rustc command; the wrapper hands the command back to x
// through a hook.Server.
func (t *Tool) Compile(ctx context.Context, req build.Request, x hook.Executor) error {
	wrapper, err := t.wrapper()
	if err != nil {
		return err
	}
	srv := hook.NewServer(x, Classify)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start compile hook: %w", err)
	}
	defer shutdown(srv)

	cmd := exec.CommandContext(ctx, t.cargo(), Args(req)...)
	cmd.Env = append(os.Environ(), "RUSTC_WRAPPER="+wrapper)
	cmd.Env = append(cmd.Env, srv.Env()...)
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr
	if err := command.Run(cmd); err != nil {
		// Cargo only reports that rustc failed; the executor knows why.
		if herr := srv.Err(); herr != nil {
			return herr
		}
		return err
	}
	return nil
}

type closer interface {
	Close(ctx context.Context) error
}

// shutdown stops the hook server, waiting at most shutdownTimeout for
// in-flight requests.
func shutdown(srv closer) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Close(ctx)
	if err != nil {
		glog.Warningf("hook: shutdown: %v", err)
	}
	return err
}
