// Package command runs external tools and turns their failures into
// errs.ToolError values.
package command

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// maxLine bounds a single output line; rustc JSON diagnostics can be long.
const maxLine = 4 << 20

// Run runs cmd to completion. Unset Stdout/Stderr default to the process's own.
func Run(cmd *exec.Cmd) error {
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	glog.V(1).Infof("Running command %q", cmd.Args)
	return Wrap(cmd, cmd.Run())
}

// Output runs cmd and returns its standard output with surrounding space trimmed.
func Output(cmd *exec.Cmd) (string, error) {
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	glog.V(1).Infof("Running command %q", cmd.Args)
	out, err := cmd.Output()
	if err != nil {
		return "", Wrap(cmd, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Stream runs cmd and hands every line of its standard output and standard
// error to onStdout and onStderr. A sink error does not stop the process; the
// remaining output is drained and the first sink error is returned after the
// process has exited successfully.
func Stream(cmd *exec.Cmd, onStdout, onStderr func(line string) error) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	glog.V(1).Infof("Running command %q", cmd.Args)
	if err := cmd.Start(); err != nil {
		return Wrap(cmd, err)
	}
	var pumps errgroup.Group
	pumps.Go(func() error { return pump(stdout, onStdout) })
	pumps.Go(func() error { return pump(stderr, onStderr) })
	sinkErr := pumps.Wait()
	if err := cmd.Wait(); err != nil {
		return Wrap(cmd, err)
	}
	return sinkErr
}

func pump(r io.Reader, sink func(string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLine)
	var first error
	for sc.Scan() {
		if first != nil || sink == nil {
			continue
		}
		first = sink(sc.Text())
	}
	if first != nil {
		return first
	}
	if err := sc.Err(); err != nil {
		// keep the pipe drained so the child never blocks on a full buffer
		io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// Wrap converts an exec failure of cmd into an *errs.ToolError. It returns
// nil for a nil err.
func Wrap(cmd *exec.Cmd, err error) error {
	if err == nil {
		return nil
	}
	var te *errs.ToolError
	if errors.As(err, &te) {
		return err
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	var args []string
	if len(cmd.Args) > 1 {
		args = cmd.Args[1:]
	}
	return &errs.ToolError{
		Name:     filepath.Base(cmd.Path),
		Args:     args,
		ExitCode: code,
		Err:      err,
	}
}
