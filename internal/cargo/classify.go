package cargo

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/cargo-sdl-apk/internal/hook"
)

var libCrateTypes = []string{"lib", "rlib", "dylib", "cdylib", "staticlib", "proc-macro"}

// Classify derives the compilation unit of a rustc command from its
// arguments and the environment Cargo set for it.
func Classify(cmd *hook.Command) hook.Unit {
	args := cmd.Args
	u := hook.Unit{
		Name:   flagValue(args, "--crate-name"),
		Target: flagValue(args, "--target"),
		Mode:   mode(flagValue(args, "--emit")),
	}
	if strings.HasPrefix(filepath.Base(cmd.Program), "rustdoc") {
		u.Mode = hook.ModeDoc
	}

	switch {
	case slices.Contains(args, "--print") || hasPrefix(args, "--print="):
		u.Kind = hook.KindOther
	case slices.Contains(args, "--test"):
		u.Kind = hook.KindTest
	case strings.HasPrefix(u.Name, "build_script_"):
		u.Kind = hook.KindBuildScript
	default:
		types := flagValues(args, "--crate-type")
		switch {
		case slices.Contains(types, "bin"):
			if !primary(cmd.Env) {
				break
			}
			u.Kind = hook.KindBin
			if underExamples(source(args)) {
				u.Kind = hook.KindExampleBin
			}
		case slices.ContainsFunc(types, func(t string) bool { return slices.Contains(libCrateTypes, t) }):
			u.Kind = hook.KindLib
		}
	}
	return u
}

// mode maps the --emit list to what the build asked for. Check builds only
// emit metadata.
func mode(emit string) hook.Mode {
	if emit == "" {
		return hook.ModeBuild
	}
	kinds := strings.Split(emit, ",")
	for _, k := range kinds {
		if k == "link" || strings.HasPrefix(k, "link=") {
			return hook.ModeBuild
		}
	}
	for _, k := range kinds {
		if k == "metadata" || strings.HasPrefix(k, "metadata=") {
			return hook.ModeCheck
		}
	}
	return hook.ModeBuild
}

// primary reports whether Cargo marked the unit as belonging to a package
// selected on its command line.
func primary(environ []string) bool {
	for i := len(environ) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(environ[i], "CARGO_PRIMARY_PACKAGE="); ok {
			return v != ""
		}
	}
	return false
}

func source(args []string) string {
	for i, a := range args {
		if strings.HasSuffix(a, ".rs") && (i == 0 || !strings.HasPrefix(args[i-1], "-")) {
			return a
		}
	}
	return ""
}

func underExamples(src string) bool {
	if src == "" {
		return false
	}
	for _, dir := range strings.Split(filepath.ToSlash(src), "/") {
		if dir == "examples" {
			return true
		}
	}
	return false
}

// flagValue returns the value of the last occurrence of flag, accepting both
// "flag value" and "flag=value".
func flagValue(args []string, flag string) string {
	vals := flagValues(args, flag)
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

func flagValues(args []string, flag string) []string {
	var vals []string
	for i := 0; i < len(args); i++ {
		if args[i] == flag && i+1 < len(args) {
			vals = append(vals, args[i+1])
			i++
		} else if v, ok := strings.CutPrefix(args[i], flag+"="); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func hasPrefix(args []string, prefix string) bool {
	return slices.ContainsFunc(args, func(a string) bool { return strings.HasPrefix(a, prefix) })
}
