package hook

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

func startServer(t *testing.T, exec Executor, classify func(*Command) Unit) *Server {
	t.Helper()
	s := NewServer(exec, classify)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestServerForward(t *testing.T) {
	var got *Command
	var gotUnit Unit
	exec := execFunc(func(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error {
		got, gotUnit = cmd, unit
		onStdout("file-name.so")
		onStderr("warning: unused")
		return nil
	})
	s := startServer(t, exec, func(c *Command) Unit {
		return Unit{Name: "game", Kind: KindBin, Target: "t1"}
	})

	var stdout, stderr bytes.Buffer
	cmd := &Command{Program: "rustc", Args: []string{"-vV"}, Dir: "/w"}
	code, err := forward(context.Background(), s.Addr(), s.token, cmd, &stdout, &stderr)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if stdout.String() != "file-name.so\n" || stderr.String() != "warning: unused\n" {
		t.Errorf("stdout %q, stderr %q", stdout.String(), stderr.String())
	}
	if got == nil || got.Program != "rustc" || got.Dir != "/w" || len(got.Args) != 1 {
		t.Errorf("executor got %+v", got)
	}
	if gotUnit.Kind != KindBin {
		t.Errorf("unit = %+v", gotUnit)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestServerForwardFailure(t *testing.T) {
	exec := execFunc(func(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error {
		return &errs.ToolError{Name: "rustc", ExitCode: 101}
	})
	s := startServer(t, exec, func(c *Command) Unit { return Unit{Kind: KindBin} })

	var stdout, stderr bytes.Buffer
	code, err := forward(context.Background(), s.Addr(), s.token, &Command{Program: "rustc"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if code != 101 {
		t.Errorf("exit code = %d, want 101", code)
	}
	if !strings.Contains(stderr.String(), "status 101") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if !errors.Is(s.Err(), errs.ErrExternalTool) {
		t.Errorf("Err() = %v, want the designated unit's failure", s.Err())
	}
}

func TestServerPassThroughFailureNotRetained(t *testing.T) {
	exec := execFunc(func(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error {
		return &errs.ToolError{Name: "rustc", ExitCode: 1}
	})
	s := startServer(t, exec, func(c *Command) Unit { return Unit{Kind: KindLib} })

	var buf bytes.Buffer
	code, err := forward(context.Background(), s.Addr(), s.token, &Command{Program: "rustc"}, &buf, &buf)
	if err != nil || code != 1 {
		t.Fatalf("forward = %d, %v", code, err)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil for a pass-through unit", s.Err())
	}
}

func TestServerRejectsBadToken(t *testing.T) {
	s := startServer(t, execFunc(func(context.Context, *Command, Unit, LineFunc, LineFunc) error {
		t.Error("executor reached without a valid token")
		return nil
	}), func(*Command) Unit { return Unit{} })

	var buf bytes.Buffer
	_, err := forward(context.Background(), s.Addr(), "wrong", &Command{Program: "rustc"}, &buf, &buf)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("forward error = %v, want 403", err)
	}
}

func TestServerConcurrentRequests(t *testing.T) {
	reg := NewRegistry()
	exec := execFunc(func(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error {
		return reg.Record(cmd.Args[0], "/out/"+cmd.Args[0])
	})
	s := startServer(t, exec, func(*Command) Unit { return Unit{Kind: KindBin} })

	targets := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			var buf bytes.Buffer
			code, err := forward(context.Background(), s.Addr(), s.token,
				&Command{Program: "rustc", Args: []string{target}}, &buf, &buf)
			if err != nil || code != 0 {
				t.Errorf("forward(%s) = %d, %v", target, code, err)
			}
		}(target)
	}
	wg.Wait()
	if reg.Len() != len(targets) {
		t.Errorf("registry has %d entries, want %d", reg.Len(), len(targets))
	}
}

func TestWrappedEnv(t *testing.T) {
	in := []string{"PATH=/bin", EnvAddr + "=127.0.0.1:1", EnvToken + "=x", "CARGO_PKG_NAME=game"}
	got := wrappedEnv(in)
	if strings.Join(got, " ") != "PATH=/bin CARGO_PKG_NAME=game" {
		t.Errorf("wrappedEnv = %q", got)
	}
}

func TestKindString(t *testing.T) {
	if KindExampleBin.String() != "example" || Kind(99).String() != "unknown" {
		t.Errorf("Kind strings: %q %q", KindExampleBin, Kind(99))
	}
	if !(Unit{Kind: KindExampleBin}).Designated() || (Unit{Kind: KindBin, Mode: ModeDoc}).Designated() {
		t.Error("Designated mismatch")
	}
}
