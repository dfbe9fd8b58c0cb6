// Package hook intercepts the commands a build tool runs for each compilation
// unit. The designated program is rebuilt as a loadable library for its
// target and the library's path is recorded in a Registry.
package hook

import (
	"context"
	"slices"
)

// LineFunc receives one line of process output, without its line terminator.
type LineFunc func(line string) error

// Command is a compiler invocation as the build tool would run it.
type Command struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
	Env     []string `json:"env,omitempty"` // nil inherits the current environment
	Dir     string   `json:"dir,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Command) Clone() *Command {
	return &Command{
		Program: c.Program,
		Args:    slices.Clone(c.Args),
		Env:     slices.Clone(c.Env),
		Dir:     c.Dir,
	}
}

// Kind is the role of a compilation unit inside its package.
type Kind int

const (
	KindOther Kind = iota
	KindLib
	KindBin
	KindExampleBin
	KindBuildScript
	KindTest
)

var kindNames = [...]string{"other", "lib", "bin", "example", "build-script", "test"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Mode is what the overall build invocation asked for.
type Mode int

const (
	ModeBuild Mode = iota
	ModeCheck
	ModeDoc
)

// Unit describes the compilation a Command performs.
type Unit struct {
	Name   string
	Kind   Kind
	Mode   Mode
	Target string // empty for host builds
}

// Designated reports whether u builds the program itself in a plain build,
// the only case the interception rewrites.
func (u Unit) Designated() bool {
	return u.Mode == ModeBuild && (u.Kind == KindBin || u.Kind == KindExampleBin)
}

// Executor runs one command on behalf of the build tool. Implementations
// must be safe for concurrent use; build tools compile independent units in
// parallel.
type Executor interface {
	Exec(ctx context.Context, cmd *Command, unit Unit, onStdout, onStderr LineFunc) error
}

// Recorder stores the artifact produced for a target.
type Recorder interface {
	Record(target, path string) error
}
