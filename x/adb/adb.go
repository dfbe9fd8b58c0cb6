// Package adb wraps the Android device bridge commands used to launch an
// application and follow its log.
package adb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/command"
	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// ErrProcessNotFound reports that no running process matched the application.
var ErrProcessNotFound = &errs.Error{Kind: errs.ErrArtifactResolution, Msg: "process not found"}

// ADB runs adb against the single attached USB device.
type ADB struct {
	path string

	Stdout io.Writer
	Stderr io.Writer
}

// New returns an ADB running the binary at path.
func New(path string) *ADB {
	return &ADB{path: path}
}

func (a *ADB) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, a.path, args...)
	cmd.Stdout = a.Stdout
	cmd.Stderr = a.Stderr
	return cmd
}

// Install installs bundle, replacing an existing installation.
func (a *ADB) Install(ctx context.Context, bundle string) error {
	return command.Run(a.command(ctx, "-d", "install", "-r", bundle))
}

// ForceStop stops every process of appID.
func (a *ADB) ForceStop(ctx context.Context, appID string) error {
	return command.Run(a.command(ctx, "shell", "am", "force-stop", appID))
}

// Start launches the main activity of appID and waits for it to come up.
func (a *ADB) Start(ctx context.Context, appID string) error {
	return command.Run(a.command(ctx, "shell", "am", "start", "-W", "-n", appID+"/.MainActivity"))
}

// Pid returns the process id of appID.
func (a *ADB) Pid(ctx context.Context, appID string) (int, error) {
	cmd := a.command(ctx, "shell", "pidof", appID)
	cmd.Stdout = nil
	out, err := command.Output(cmd)
	if err != nil {
		// pidof exits 1 when nothing matches
		var te *errs.ToolError
		if errors.As(err, &te) && te.ExitCode == 1 {
			return 0, fmt.Errorf("%s: %w", appID, ErrProcessNotFound)
		}
		return 0, err
	}
	pid, err := ParsePid(out)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", appID, err)
	}
	return pid, nil
}

// ParsePid returns the first process id in pidof output.
func ParsePid(out string) (int, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, ErrProcessNotFound
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil || pid <= 0 {
		return 0, ErrProcessNotFound
	}
	return pid, nil
}

// Logcat streams the log of pid until ctx is done. Cancellation is the
// normal way to stop and is not an error.
func (a *ADB) Logcat(ctx context.Context, pid int) error {
	cmd := a.command(ctx, "logcat", "-v", "color", "--pid", strconv.Itoa(pid))
	command.KillGroupOnCancel(cmd)
	glog.V(1).Infof("Streaming log of pid %d", pid)
	err := command.Run(cmd)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
