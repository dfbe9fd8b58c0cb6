// Package toolchain maps Rust target triples to their Android NDK linker and ABI.
package toolchain

import (
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// APILevel is the platform level baked into the NDK clang driver names.
const APILevel = 26

// Targets is the fixed set built when the caller does not narrow it.
var Targets = []string{
	"aarch64-linux-android",
	"armv7-linux-androideabi",
	"i686-linux-android",
}

type targetArch struct {
	abi    string // jniLibs directory name
	prefix string // NDK clang driver prefix
}

var archMap = map[string]targetArch{
	"aarch64-linux-android":   {"arm64-v8a", "aarch64-linux-android"},
	"armv7-linux-androideabi": {"armeabi-v7a", "armv7a-linux-androideabi"},
	"i686-linux-android":      {"x86", "i686-linux-android"},
}

// Toolchain is the resolved linker for one target.
type Toolchain struct {
	Target string
	ABI    string
	Linker string
}

// Locate resolves the linker of target below the NDK root ndkRoot.
func Locate(ndkRoot, target string) (Toolchain, error) {
	a, ok := archMap[target]
	if !ok {
		return Toolchain{}, errs.Configf("unknown target: %s", target)
	}
	clang := a.prefix + strconv.Itoa(APILevel) + "-clang"
	if runtime.GOOS == "windows" {
		clang += ".cmd"
	}
	return Toolchain{
		Target: target,
		ABI:    a.abi,
		Linker: filepath.Join(ndkRoot, "toolchains", "llvm", "prebuilt", HostTag(), "bin", clang),
	}, nil
}

// ABI returns the architecture label used for per-ABI directories.
func ABI(target string) (string, error) {
	a, ok := archMap[target]
	if !ok {
		return "", errs.Configf("unknown target: %s", target)
	}
	return a.abi, nil
}

// Validate checks every target against the supported set. It runs before
// anything is spawned so a typo never costs a full compile.
func Validate(targets []string) error {
	if len(targets) == 0 {
		return errs.Configf("no targets requested")
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if _, ok := archMap[t]; !ok {
			return errs.Configf("unknown target: %s", t)
		}
		if seen[t] {
			return errs.Configf("target requested twice: %s", t)
		}
		seen[t] = true
	}
	return nil
}

// Linkers resolves the linker of every target, keyed by target.
func Linkers(ndkRoot string, targets []string) (map[string]string, error) {
	if err := Validate(targets); err != nil {
		return nil, err
	}
	linkers := make(map[string]string, len(targets))
	for _, t := range targets {
		tc, err := Locate(ndkRoot, t)
		if err != nil {
			return nil, err
		}
		linkers[t] = tc.Linker
	}
	return linkers, nil
}

// HostTag names the prebuilt NDK directory for the running host.
func HostTag() string {
	switch runtime.GOOS {
	case "darwin":
		// NDK ships x86_64 binaries for macOS, run through Rosetta on arm64.
		return "darwin-x86_64"
	case "windows":
		return "windows-x86_64"
	default:
		return "linux-x86_64"
	}
}
