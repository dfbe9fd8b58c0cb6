package pipeline

import (
	"context"
	"errors"

	"github.com/goplus/cargo-sdl-apk/internal/build"
	"github.com/goplus/cargo-sdl-apk/internal/config"
	"github.com/goplus/cargo-sdl-apk/internal/hook"
)

var errStage = errors.New("stage failed")

// stages implements every stage interface and records the calls in order.
type stages struct {
	calls  []string
	failAt string

	req      build.Request
	signArgs []string
	deployed config.Identity
}

func (s *stages) enter(name string) error {
	s.calls = append(s.calls, name)
	if s.failAt == name {
		return errStage
	}
	return nil
}

type nativeStage struct{ *stages }

func (n nativeStage) Build(ctx context.Context, targets []string) error { return n.enter("native") }

type matrixStage struct{ *stages }

func (m matrixStage) Build(ctx context.Context, req build.Request) (*hook.Registry, error) {
	m.req = req
	if err := m.enter("matrix"); err != nil {
		return nil, err
	}
	return hook.NewRegistry(), nil
}

func (s *stages) Package(ctx context.Context, reg *hook.Registry, profile build.Profile) (string, error) {
	if err := s.enter("package"); err != nil {
		return "", err
	}
	return s.Bundle(profile == build.Release), nil
}

func (s *stages) Sign(ctx context.Context, unsigned, out, ks, pass string) error {
	s.signArgs = []string{unsigned, out, ks, pass}
	return s.enter("sign")
}

func (s *stages) Run(ctx context.Context, bundle string, id config.Identity) error {
	s.deployed = id
	return s.enter("deploy " + bundle)
}

func (s *stages) Bundle(release bool) string {
	if release {
		return "release/app-release-unsigned.apk"
	}
	return "debug/app-debug.apk"
}

func (s *stages) SignedBundle() string { return "release/app-release.apk" }

func newPipeline(opts Options) (*Pipeline, *stages) {
	s := &stages{}
	return &Pipeline{
		Opts:     opts,
		Identity: config.Identity{AppID: config.DefaultAppID, Title: config.DefaultTitle},
		Native:   nativeStage{s},
		Matrix:   matrixStage{s},
		Packager: s,
		Signer:   s,
		Deployer: s,
		Bundles:  s,
	}, s
}
