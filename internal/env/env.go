package env

import (
	"os"
	"path/filepath"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// Names of the required process environment values.
const (
	AndroidHome = "ANDROID_HOME"
	NDKHome     = "ANDROID_NDK_HOME"
	SDLRoot     = "SDL"
)

// Env holds the locations every stage resolves its tools from.
type Env struct {
	AndroidHome string // Android SDK root
	NDKHome     string // Android NDK root
	SDL         string // SDL2 source tree containing Android.mk and android-project
}

// Load reads the required locations. It fails with errs.ErrConfiguration
// naming the first unset variable.
func Load() (*Env, error) {
	vals := make(map[string]string, 3)
	for _, k := range []string{AndroidHome, NDKHome, SDLRoot} {
		v, ok := os.LookupEnv(k)
		if !ok || v == "" {
			return nil, errs.Configf("need env var: %s", k)
		}
		vals[k] = v
	}
	return &Env{
		AndroidHome: vals[AndroidHome],
		NDKHome:     vals[NDKHome],
		SDL:         vals[SDLRoot],
	}, nil
}

// ADB returns the device bridge binary of the SDK.
func (e *Env) ADB() string {
	return filepath.Join(e.AndroidHome, "platform-tools", HostTool("adb", ".exe"))
}

// BuildToolsDir returns the directory holding the versioned build-tools folders.
func (e *Env) BuildToolsDir() string {
	return filepath.Join(e.AndroidHome, "build-tools")
}

// NDKBuild returns the ndk-build entry script.
func (e *Env) NDKBuild() string {
	return filepath.Join(e.NDKHome, HostTool("ndk-build", ".cmd"))
}

// AndroidProject returns the SDL application project template.
func (e *Env) AndroidProject() string {
	return filepath.Join(e.SDL, "android-project")
}
