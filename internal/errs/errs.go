// Package errs defines the failure taxonomy shared by every pipeline stage.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration reports missing environment, unknown targets or bad input.
	// Nothing has been spawned when it is returned.
	ErrConfiguration = errors.New("configuration error")

	// ErrExternalTool reports a spawned tool that exited unsuccessfully.
	ErrExternalTool = errors.New("external tool failure")

	// ErrArtifactResolution reports an artifact that could not be located after
	// its producing tool succeeded.
	ErrArtifactResolution = errors.New("artifact resolution failure")
)

// Error carries one of the sentinel kinds plus a message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Configf returns an ErrConfiguration error.
func Configf(format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// Resolutionf returns an ErrArtifactResolution error.
func Resolutionf(format string, args ...any) error {
	return &Error{Kind: ErrArtifactResolution, Msg: fmt.Sprintf(format, args...)}
}

// ToolError describes a failed external command.
type ToolError struct {
	Name     string
	Args     []string
	ExitCode int // -1 when the process never ran to completion
	Err      error
}

func (e *ToolError) Error() string {
	cmdline := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: %q exited with status %d", ErrExternalTool, cmdline, e.ExitCode)
	}
	return fmt.Sprintf("%s: %q: %v", ErrExternalTool, cmdline, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool { return target == ErrExternalTool }

// ExitCode returns the exit status carried by err, or 1 when err does not
// stem from an external tool.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var te *ToolError
	if errors.As(err, &te) && te.ExitCode > 0 {
		return te.ExitCode
	}
	return 1
}
