// Command cargo-sdl-apk builds Android application bundles from Rust
// programs using SDL2. Invoked as "cargo sdl-apk".
package main

import (
	"context"
	"os"

	"github.com/goplus/cargo-sdl-apk/cmd/cargo-sdl-apk/internal"
	"github.com/goplus/cargo-sdl-apk/internal/hook"
)

func main() {
	// cargo starts this binary as RUSTC_WRAPPER during a build
	if hook.Active() {
		os.Exit(hook.Forward(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
	}
	internal.Execute()
}
