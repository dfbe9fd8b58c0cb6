// Package sign aligns and signs release bundles with the SDK build tools.
package sign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/mod/semver"

	"github.com/goplus/cargo-sdl-apk/internal/command"
	"github.com/goplus/cargo-sdl-apk/internal/env"
	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// Self-generated keystore parameters.
const (
	KeystoreName = "sdl-apk.keystore"
	DefaultPass  = "android"
	keyAlias     = "sdl-apk"
)

// Material is a keystore and its passphrase in apksigner syntax ("pass:...").
type Material struct {
	Keystore string
	Pass     string
}

// ResolveMaterial returns the caller's keystore when one is given, and
// otherwise the self-generated keystore in dir. generate reports whether the
// returned keystore still has to be created.
func ResolveMaterial(ks, pass, dir string) (m Material, generate bool, err error) {
	if ks != "" {
		if pass == "" {
			return Material{}, false, errs.Configf("--ks-pass is required with --ks")
		}
		if _, err := os.Stat(ks); err != nil {
			return Material{}, false, errs.Configf("keystore: %v", err)
		}
		return Material{Keystore: ks, Pass: pass}, false, nil
	}
	if pass != "" {
		glog.Warningf("--ks-pass ignored without --ks")
	}
	m = Material{Keystore: filepath.Join(dir, KeystoreName), Pass: "pass:" + DefaultPass}
	_, err = os.Stat(m.Keystore)
	switch {
	case err == nil:
		return m, false, nil
	case errors.Is(err, fs.ErrNotExist):
		return m, true, nil
	default:
		return Material{}, false, err
	}
}

// LatestBuildTools returns the build-tools version folder of dir that sorts
// last as a string.
func LatestBuildTools(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.Configf("no build-tools: %v", err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return "", errs.Configf("no build-tools installed in %s", dir)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	latest := versions[0]
	if newest := newestSemver(versions); newest != "" && newest != latest {
		glog.Warningf("Using build-tools %s; %s has a higher version number", latest, newest)
	}
	return filepath.Join(dir, latest), nil
}

func newestSemver(versions []string) string {
	best := ""
	for _, v := range versions {
		if !semver.IsValid("v" + v) {
			continue
		}
		if best == "" || semver.Compare("v"+v, "v"+best) > 0 {
			best = v
		}
	}
	return best
}

// Signer aligns and signs bundles.
type Signer struct {
	BuildTools string // $ANDROID_HOME/build-tools
	Keytool    string // empty means "keytool" from PATH

	Stdout io.Writer
	Stderr io.Writer
}

func (s *Signer) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	return command.Run(cmd)
}

// Generate creates a self-signed keystore for m.
func (s *Signer) Generate(ctx context.Context, m Material) error {
	keytool := s.Keytool
	if keytool == "" {
		keytool = "keytool"
	}
	pass := strings.TrimPrefix(m.Pass, "pass:")
	if err := os.MkdirAll(filepath.Dir(m.Keystore), 0o755); err != nil {
		return err
	}
	glog.Infof("Generating keystore %s", m.Keystore)
	return s.run(ctx, keytool, "-genkey", "-v",
		"-keystore", m.Keystore,
		"-alias", keyAlias,
		"-keyalg", "RSA",
		"-keysize", "2048",
		"-validity", "10000",
		"-storepass", pass,
		"-keypass", pass,
		"-dname", "CN=sdl-apk",
		"-noprompt")
}

// Sign aligns unsigned and signs it into out. ks and pass name the caller's
// keystore; when ks is empty the keystore in the directory of out is used,
// generated on first use. The unsigned bundle is kept.
func (s *Signer) Sign(ctx context.Context, unsigned, out, ks, pass string) error {
	if _, err := os.Stat(unsigned); err != nil {
		return errs.Resolutionf("unsigned bundle: %v", err)
	}
	m, generate, err := ResolveMaterial(ks, pass, filepath.Dir(out))
	if err != nil {
		return err
	}
	tools, err := LatestBuildTools(s.BuildTools)
	if err != nil {
		return err
	}
	if generate {
		if err := s.Generate(ctx, m); err != nil {
			return fmt.Errorf("failed to generate keystore: %w", err)
		}
	}

	aligned := strings.TrimSuffix(unsigned, ".apk") + "-aligned.apk"
	if err := s.run(ctx, filepath.Join(tools, env.HostTool("zipalign", ".exe")), "-f", "-p", "4", unsigned, aligned); err != nil {
		return fmt.Errorf("failed to align %s: %w", unsigned, err)
	}
	if err := s.run(ctx, filepath.Join(tools, env.HostTool("apksigner", ".bat")),
		"sign", "--ks", m.Keystore, "--ks-pass", m.Pass, "--out", out, aligned); err != nil {
		return fmt.Errorf("failed to sign %s: %w", aligned, err)
	}
	glog.Infof("Signed %s", out)
	return nil
}
