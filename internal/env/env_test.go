package env

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

func setAll(t *testing.T) {
	t.Setenv(AndroidHome, "/opt/android-sdk")
	t.Setenv(NDKHome, "/opt/android-ndk")
	t.Setenv(SDLRoot, "/src/SDL")
}

func TestLoad(t *testing.T) {
	setAll(t)

	e, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if e.AndroidHome != "/opt/android-sdk" || e.NDKHome != "/opt/android-ndk" || e.SDL != "/src/SDL" {
		t.Errorf("Load() = %+v", e)
	}
	if got, want := e.AndroidProject(), filepath.Join("/src/SDL", "android-project"); got != want {
		t.Errorf("AndroidProject() = %q, want %q", got, want)
	}
	if runtime.GOOS != "windows" {
		if got := e.ADB(); got != filepath.Join("/opt/android-sdk", "platform-tools", "adb") {
			t.Errorf("ADB() = %q", got)
		}
		if got := e.NDKBuild(); got != filepath.Join("/opt/android-ndk", "ndk-build") {
			t.Errorf("NDKBuild() = %q", got)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	for _, missing := range []string{AndroidHome, NDKHome, SDLRoot} {
		t.Run(missing, func(t *testing.T) {
			setAll(t)
			t.Setenv(missing, "")

			_, err := Load()
			if err == nil {
				t.Fatal("expected error for missing variable, got nil")
			}
			if !errors.Is(err, errs.ErrConfiguration) {
				t.Errorf("error %v is not a configuration error", err)
			}
			if !strings.Contains(err.Error(), missing) {
				t.Errorf("error %q does not name %s", err, missing)
			}
		})
	}
}

func TestHostTool(t *testing.T) {
	for _, tt := range []struct{ name, ext, win string }{
		{"adb", ".exe", "adb.exe"},
		{"ndk-build", ".cmd", "ndk-build.cmd"},
		{"apksigner", ".bat", "apksigner.bat"},
	} {
		want := tt.name
		if runtime.GOOS == "windows" {
			want = tt.win
		}
		if got := HostTool(tt.name, tt.ext); got != want {
			t.Errorf("HostTool(%q, %q) = %q, want %q", tt.name, tt.ext, got, want)
		}
	}
}
