package build

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/goplus/cargo-sdl-apk/internal/hook"
)

// mockTool implements BuildTool. Like Cargo it compiles a dependency and the
// binary of every requested target, the binaries in parallel.
type mockTool struct {
	outDir string
	err    error  // returned instead of compiling
	skip   string // target whose binary is never compiled

	calls atomic.Int32
}

func (m *mockTool) Compile(ctx context.Context, req Request, exec hook.Executor) error {
	m.calls.Add(1)
	if m.err != nil {
		return m.err
	}
	dep := &hook.Command{Program: "rustc", Args: []string{"--crate-name", "sdl2", "--crate-type", "lib"}}
	if err := exec.Exec(ctx, dep, hook.Unit{Name: "sdl2", Kind: hook.KindLib}, nil, nil); err != nil {
		return err
	}

	errc := make(chan error, len(req.Targets))
	var wg sync.WaitGroup
	for _, t := range req.Targets {
		if t == m.skip {
			continue
		}
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			cmd := &hook.Command{Program: "rustc", Args: []string{
				"--crate-name", "game", "src/main.rs", "--crate-type", "bin",
				"--out-dir", filepath.Join(m.outDir, t, req.Profile.String(), "deps"),
				"--target", t,
			}}
			kind := hook.KindBin
			if req.Example != "" {
				kind = hook.KindExampleBin
			}
			errc <- exec.Exec(ctx, cmd, hook.Unit{Name: "game", Kind: kind, Target: t}, nil, nil)
		}(t)
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

// fakeRustc implements hook.Runner. It writes names[target] for library
// builds and reports it for --print file-names.
type fakeRustc struct {
	names map[string]string

	mu    sync.Mutex
	calls [][]string
}

func argAfter(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}

func (f *fakeRustc) Stream(ctx context.Context, cmd *hook.Command, onStdout, onStderr hook.LineFunc) error {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(cmd.Args))
	f.mu.Unlock()

	target := argAfter(cmd.Args, "--target")
	if slices.Contains(cmd.Args, "--print") {
		return onStdout(f.names[target])
	}
	if argAfter(cmd.Args, "--crate-type") != "dylib" {
		return nil
	}
	out := argAfter(cmd.Args, "--out-dir")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(out, f.names[target]), []byte("\x7fELF"), 0o644)
}
