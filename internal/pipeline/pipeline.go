// Package pipeline runs the build, packaging, signing and deployment stages
// in order.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/goplus/cargo-sdl-apk/internal/build"
	"github.com/goplus/cargo-sdl-apk/internal/cargo"
	"github.com/goplus/cargo-sdl-apk/internal/config"
	"github.com/goplus/cargo-sdl-apk/internal/deploy"
	"github.com/goplus/cargo-sdl-apk/internal/env"
	"github.com/goplus/cargo-sdl-apk/internal/hook"
	"github.com/goplus/cargo-sdl-apk/internal/project"
	"github.com/goplus/cargo-sdl-apk/internal/sign"
	"github.com/goplus/cargo-sdl-apk/internal/toolchain"
	"github.com/goplus/cargo-sdl-apk/x/adb"
	"github.com/goplus/cargo-sdl-apk/x/gradle"
	"github.com/goplus/cargo-sdl-apk/x/ndkbuild"
)

// Options are the caller's choices for one invocation.
type Options struct {
	ManifestPath string
	Example      string
	Profile      build.Profile
	Targets      []string // nil means toolchain.Targets

	Keystore     string
	KeystorePass string // apksigner syntax, "pass:<secret>"
}

// NativeBuilder builds and stages the native dependency for every target.
type NativeBuilder interface {
	Build(ctx context.Context, targets []string) error
}

// MatrixBuilder builds the program once per target.
type MatrixBuilder interface {
	Build(ctx context.Context, req build.Request) (*hook.Registry, error)
}

// Packager turns the built libraries into an application bundle.
type Packager interface {
	Package(ctx context.Context, reg *hook.Registry, profile build.Profile) (string, error)
}

// Signer signs a release bundle.
type Signer interface {
	Sign(ctx context.Context, unsigned, out, ks, pass string) error
}

// Deployer runs a bundle on a device.
type Deployer interface {
	Run(ctx context.Context, bundle string, id config.Identity) error
}

// Bundles names the bundles the assembler produces.
type Bundles interface {
	Bundle(release bool) string
	SignedBundle() string
}

// Pipeline holds the stages of one invocation.
type Pipeline struct {
	Opts     Options
	Identity config.Identity

	Native   NativeBuilder
	Matrix   MatrixBuilder
	Packager Packager
	Signer   Signer
	Deployer Deployer
	Bundles  Bundles
}

// New checks the environment, the targets and the manifest, then wires the
// production stages. Nothing is spawned when it fails.
func New(opts Options) (*Pipeline, error) {
	e, err := env.Load()
	if err != nil {
		return nil, err
	}
	if opts.Targets == nil {
		opts.Targets = toolchain.Targets
	}
	if err := toolchain.Validate(opts.Targets); err != nil {
		return nil, err
	}
	if opts.ManifestPath == "" {
		opts.ManifestPath = "Cargo.toml"
	}
	if opts.ManifestPath, err = filepath.Abs(opts.ManifestPath); err != nil {
		return nil, err
	}
	id, err := config.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	targetDir := filepath.Join(filepath.Dir(opts.ManifestPath), "target")
	projectDir := filepath.Join(targetDir, "android-project")
	native := ndkbuild.New(e.NDKBuild(), e.SDL, targetDir, opts.Profile.String())
	assembler := gradle.New(projectDir)
	return &Pipeline{
		Opts:     opts,
		Identity: id,
		Native:   native,
		Matrix:   &build.Driver{Tool: &cargo.Tool{}, NDKHome: e.NDKHome},
		Packager: &project.Packager{
			Template:  e.AndroidProject(),
			SDL:       e.SDL,
			Dir:       projectDir,
			Identity:  id,
			Native:    native,
			Assembler: assembler,
		},
		Signer:   &sign.Signer{BuildTools: e.BuildToolsDir()},
		Deployer: &deploy.Runner{Device: adb.New(e.ADB())},
		Bundles:  assembler,
	}, nil
}

func (p *Pipeline) targets() []string {
	if p.Opts.Targets == nil {
		return toolchain.Targets
	}
	return p.Opts.Targets
}

// Build runs the native dependency build, the program build, packaging and,
// for release builds, signing. It returns the final bundle.
func (p *Pipeline) Build(ctx context.Context) (string, error) {
	targets := p.targets()
	if err := toolchain.Validate(targets); err != nil {
		return "", err
	}
	if err := p.Native.Build(ctx, targets); err != nil {
		return "", err
	}
	reg, err := p.Matrix.Build(ctx, build.Request{
		ManifestPath: p.Opts.ManifestPath,
		Targets:      targets,
		Profile:      p.Opts.Profile,
		Example:      p.Opts.Example,
	})
	if err != nil {
		return "", err
	}
	bundle, err := p.Packager.Package(ctx, reg, p.Opts.Profile)
	if err != nil {
		return "", err
	}
	if p.Opts.Profile != build.Release {
		return bundle, nil
	}
	signed := p.Bundles.SignedBundle()
	if err := p.sign(ctx, bundle, signed); err != nil {
		return "", err
	}
	return signed, nil
}

// Run builds the bundle, then installs and runs it on the device.
func (p *Pipeline) Run(ctx context.Context) error {
	bundle, err := p.Build(ctx)
	if err != nil {
		return err
	}
	return p.Deployer.Run(ctx, bundle, p.Identity)
}

// Sign signs the release bundle left by an earlier build.
func (p *Pipeline) Sign(ctx context.Context) (string, error) {
	signed := p.Bundles.SignedBundle()
	if err := p.sign(ctx, p.Bundles.Bundle(true), signed); err != nil {
		return "", err
	}
	return signed, nil
}

func (p *Pipeline) sign(ctx context.Context, unsigned, out string) error {
	glog.Infof("Signing %s", unsigned)
	if err := p.Signer.Sign(ctx, unsigned, out, p.Opts.Keystore, p.Opts.KeystorePass); err != nil {
		return fmt.Errorf("signing failed, unsigned bundle kept at %s: %w", unsigned, err)
	}
	return nil
}
