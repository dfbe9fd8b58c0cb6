package project

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/goplus/cargo-sdl-apk/internal/hook"
	"github.com/goplus/cargo-sdl-apk/internal/toolchain"
)

// Canonical library names inside jniLibs/<abi>.
const (
	MainLib = "libmain.so"
	SDLLib  = "libSDL2.so"
)

// Place copies the library of every registered target, and its staged SDL
// library, into the target's jniLibs directory.
// Every directory is resolved and created before the first copy starts.
func (p *Packager) Place(reg *hook.Registry) error {
	targets := reg.Targets()
	dirs := make(map[string]string, len(targets))
	for _, target := range targets {
		abi, err := toolchain.ABI(target)
		if err != nil {
			return err
		}
		dirs[target] = p.JniLibs(abi)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var g errgroup.Group
	for _, target := range targets {
		dir := dirs[target]
		artifact, _ := reg.Lookup(target)
		g.Go(func() error {
			if err := copyFile(filepath.Join(dir, MainLib), artifact); err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			return nil
		})
		if p.Native != nil {
			staged := p.Native.Staged(target)
			g.Go(func() error {
				if err := copyFile(filepath.Join(dir, SDLLib), staged); err != nil {
					return fmt.Errorf("%s: %w", target, err)
				}
				return nil
			})
		}
	}
	return g.Wait()
}
