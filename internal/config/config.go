// Package config reads the Android application identity from a Cargo manifest.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

const (
	DefaultAppID = "org.libsdl.app"
	DefaultTitle = "Untitled"
)

const (
	keyAppID = "package.metadata.android.package_name"
	keyTitle = "package.metadata.android.title"
)

// Identity names the packaged application.
type Identity struct {
	AppID string // reverse-DNS application id
	Title string // launcher label
}

// Load reads [package.metadata.android] from the manifest at manifestPath.
// Missing keys, and keys that are not strings, fall back to the defaults.
func Load(manifestPath string) (Identity, error) {
	v := viper.New()
	v.SetConfigFile(manifestPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Identity{}, errs.Configf("unable to read %s: %v", manifestPath, err)
	}
	id := Identity{
		AppID: stringOr(v, keyAppID, DefaultAppID),
		Title: stringOr(v, keyTitle, DefaultTitle),
	}
	if err := ValidateAppID(id.AppID); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func stringOr(v *viper.Viper, key, def string) string {
	if s, ok := v.Get(key).(string); ok {
		return s
	}
	return def
}

// ValidateAppID checks that id is a dotted sequence of Java identifiers, the
// form it takes as a Java package name and as the device process name.
func ValidateAppID(id string) error {
	parts := strings.Split(id, ".")
	if len(parts) < 2 {
		return errs.Configf("application id %q needs at least two segments", id)
	}
	for _, p := range parts {
		if !javaIdent(p) {
			return errs.Configf("application id %q has invalid segment %q", id, p)
		}
	}
	return nil
}

func javaIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ManifestDir returns the absolute directory containing the manifest; every
// output lives below its target directory.
func ManifestDir(manifestPath string) (string, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", err
	}
	return filepath.Dir(abs), nil
}
