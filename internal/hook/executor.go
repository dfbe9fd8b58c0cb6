package hook

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/command"
	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// Runner starts a Command and streams its output.
type Runner interface {
	Stream(ctx context.Context, cmd *Command, onStdout, onStderr LineFunc) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func (ExecRunner) Stream(ctx context.Context, cmd *Command, onStdout, onStderr LineFunc) error {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	} else {
		c.Env = os.Environ()
	}
	return command.Stream(c, onStdout, onStderr)
}

// LibExecutor is the interception Executor. Commands building the designated
// program are rebuilt as a dynamic library linked with the target's linker;
// every other command runs untouched.
type LibExecutor struct {
	Linkers  map[string]string // target -> linker
	Recorder Recorder
	Runner   Runner // nil means ExecRunner
}

func (e *LibExecutor) runner() Runner {
	if e.Runner == nil {
		return ExecRunner{}
	}
	return e.Runner
}

func (e *LibExecutor) Exec(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error {
	if !unit.Designated() {
		return e.runner().Stream(ctx, cmd, onStdout, onStderr)
	}

	rw, err := Rewrite(cmd.Args, e.Linkers)
	if err != nil {
		return err
	}
	glog.Infof("Building %s for %s as a shared library", unit.Name, rw.Target)

	lib := cmd.Clone()
	lib.Args = rw.Args
	if err := e.runner().Stream(ctx, lib, onStdout, onStderr); err != nil {
		return err
	}

	name, err := e.fileName(ctx, lib, onStderr)
	if err != nil {
		return err
	}
	path := filepath.Join(rw.OutDir, name)
	if !filepath.IsAbs(path) {
		path = filepath.Join(cmd.Dir, path)
		if path, err = filepath.Abs(path); err != nil {
			return err
		}
	}
	glog.V(1).Infof("Artifact for %s: %s", rw.Target, path)
	return e.Recorder.Record(rw.Target, path)
}

// fileName asks the compiler which file it wrote for lib. Prefix and suffix of
// library names differ per platform and compiler release, so they are never
// guessed.
func (e *LibExecutor) fileName(ctx context.Context, lib *Command, onStderr LineFunc) (string, error) {
	query := lib.Clone()
	query.Args = append(query.Args, "--print", "file-names")
	var name string
	err := e.runner().Stream(ctx, query, func(line string) error {
		if name == "" {
			name = strings.TrimSpace(line)
		}
		return nil
	}, onStderr)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errs.Resolutionf("%s --print file-names returned no file name", lib.Program)
	}
	return name, nil
}

// Rewritten is the result of Rewrite.
type Rewritten struct {
	Args   []string
	OutDir string
	Target string
}

// Rewrite turns the arguments of an executable build into those of a dynamic
// library build. The crate type is replaced in place and "-C linker=..." is
// appended; every other argument keeps its position.
func Rewrite(args []string, linkers map[string]string) (*Rewritten, error) {
	rw := &Rewritten{Args: make([]string, 0, len(args)+2)}
	replaced := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--crate-type" && i+1 < len(args) && args[i+1] == "bin":
			rw.Args = append(rw.Args, a, "dylib")
			replaced = true
			i++
			continue
		case a == "--crate-type=bin":
			rw.Args = append(rw.Args, "--crate-type=dylib")
			replaced = true
			continue
		case a == "--out-dir" && i+1 < len(args):
			rw.OutDir = args[i+1]
		case strings.HasPrefix(a, "--out-dir="):
			rw.OutDir = strings.TrimPrefix(a, "--out-dir=")
		case a == "--target" && i+1 < len(args):
			rw.Target = args[i+1]
		case strings.HasPrefix(a, "--target="):
			rw.Target = strings.TrimPrefix(a, "--target=")
		}
		rw.Args = append(rw.Args, a)
	}
	if !replaced {
		return nil, errs.Resolutionf("command does not build an executable: %q", args)
	}
	if rw.OutDir == "" {
		return nil, errs.Resolutionf("command has no --out-dir: %q", args)
	}
	linker, ok := linkers[rw.Target]
	if !ok {
		return nil, errs.Configf("no linker for target %q", rw.Target)
	}
	rw.Args = append(rw.Args, "-C", "linker="+linker)
	return rw, nil
}
