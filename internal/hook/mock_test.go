package hook

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// fakeCompiler implements Runner. It mimics a compiler that writes
// names[target] into the output directory and prints that name when asked
// for --print file-names. An empty name writes nothing and prints a blank line.
type fakeCompiler struct {
	names map[string]string
	fail  map[string]error // target -> error returned by the build

	mu    sync.Mutex
	calls []*Command
}

func newFakeCompiler(names map[string]string) *fakeCompiler {
	return &fakeCompiler{names: names, fail: map[string]error{}}
}

func argAfter(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}

func (f *fakeCompiler) Stream(ctx context.Context, cmd *Command, onStdout, onStderr LineFunc) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd.Clone())
	f.mu.Unlock()

	target := argAfter(cmd.Args, "--target")
	if slices.Contains(cmd.Args, "--print") {
		if onStdout != nil {
			return onStdout(f.names[target])
		}
		return nil
	}
	if err := f.fail[target]; err != nil {
		return err
	}
	if onStderr != nil {
		if err := onStderr("   Compiling " + target); err != nil {
			return err
		}
	}
	if argAfter(cmd.Args, "--crate-type") != "dylib" {
		return nil
	}
	outDir := argAfter(cmd.Args, "--out-dir")
	if f.names[target] == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, f.names[target]), []byte("\x7fELF"), 0o644)
}

func (f *fakeCompiler) commands() []*Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// execFunc adapts a function to Executor.
type execFunc func(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error

func (f execFunc) Exec(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error {
	return f(ctx, cmd, unit, onStdout, onStderr)
}
