package project

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Replacement substitutes every occurrence of Old by New.
type Replacement struct {
	Old, New string
}

// Substitute applies repl to s in order. Matching is by plain substring, so a
// value that also occurs elsewhere in the file is replaced there too.
func Substitute(s string, repl []Replacement) string {
	for _, r := range repl {
		s = strings.ReplaceAll(s, r.Old, r.New)
	}
	return s
}

// rewrites lists the template files carrying the identity, relative to the
// project root.
func (p *Packager) rewrites() map[string][]Replacement {
	return map[string][]Replacement{
		"app/src/main/AndroidManifest.xml": {
			{"SDLActivity", "MainActivity"},
			{"org.libsdl.app", p.Identity.AppID},
		},
		"app/build.gradle": {
			{"org.libsdl.app", p.Identity.AppID},
		},
		"app/src/main/res/values/strings.xml": {
			{"Game", p.Identity.Title},
		},
	}
}

var mainActivity = template.Must(template.New("MainActivity.java").Parse(`package {{.AppID}};

import org.libsdl.app.SDLActivity;

public class MainActivity extends SDLActivity {
}
`))

// Scaffold brings Dir up to date with the template. Files that already exist
// are kept, except for the identity-bearing files, which are regenerated from
// the pristine template on every run.
func (p *Packager) Scaffold() error {
	if err := copyTree(p.Dir, p.Template); err != nil {
		return err
	}
	if err := p.writeMainActivity(); err != nil {
		return err
	}
	for name, repl := range p.rewrites() {
		data, err := os.ReadFile(filepath.Join(p.Template, filepath.FromSlash(name)))
		if err != nil {
			return err
		}
		dst := filepath.Join(p.Dir, filepath.FromSlash(name))
		if err := os.WriteFile(dst, []byte(Substitute(string(data), repl)), 0o644); err != nil {
			return err
		}
	}

	jni := filepath.Join(p.Dir, "app", "jni")
	if err := os.RemoveAll(filepath.Join(jni, "src")); err != nil {
		return err
	}
	return linkDir(filepath.Join(jni, "SDL"), p.SDL)
}

func (p *Packager) writeMainActivity() error {
	dir := filepath.Join(p.Dir, "app", "src", "main", "java", strings.ReplaceAll(p.Identity.AppID, ".", string(filepath.Separator)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "MainActivity.java"))
	if err != nil {
		return err
	}
	if err := mainActivity.Execute(f, p.Identity); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// linkDir points link at target unless link already resolves to a directory.
func linkDir(link, target string) error {
	if fi, err := os.Stat(link); err == nil && fi.IsDir() {
		return nil
	}
	if err := os.Remove(link); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	return os.Symlink(target, link)
}

// copyTree copies src into dst, skipping entries that already exist in dst.
func copyTree(dst, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if _, err := os.Lstat(target); err == nil {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			dest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(dest, target)
		}
		return copyFile(target, path)
	})
}

// copyFile copies src to dst, keeping the permission bits of src.
func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
