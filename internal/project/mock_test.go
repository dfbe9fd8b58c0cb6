package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// templateFiles is a reduced SDL android-project.
var templateFiles = map[string]string{
	"gradlew":                          "#!/bin/sh\n",
	"app/build.gradle":                 "android {\n    defaultConfig {\n        applicationId \"org.libsdl.app\"\n    }\n}\n",
	"app/jni/Android.mk":               "include $(call all-subdir-makefiles)\n",
	"app/jni/src/main.c":               "int main() { return 0; }\n",
	"app/src/main/AndroidManifest.xml": "<manifest package=\"org.libsdl.app\">\n<activity android:name=\"SDLActivity\"/>\n</manifest>\n",
	"app/src/main/res/values/strings.xml": "<resources>\n<string name=\"app_name\">Game</string>\n" +
		"<string name=\"controller\">GameController</string>\n</resources>\n",
	"app/src/main/java/org/libsdl/app/SDLActivity.java": "package org.libsdl.app;\n",
}

func writeTemplate(t *testing.T, dir string) {
	t.Helper()
	for name, content := range templateFiles {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

// fakeAssembler writes the bundle the way gradle would.
type fakeAssembler struct {
	dir   string
	err   error
	tasks []bool
}

func (f *fakeAssembler) Assemble(ctx context.Context, release bool) error {
	f.tasks = append(f.tasks, release)
	if f.err != nil {
		return f.err
	}
	p := f.Bundle(release)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte("PK"), 0o644)
}

func (f *fakeAssembler) Bundle(release bool) string {
	name := "app-debug.apk"
	if release {
		name = "app-release-unsigned.apk"
	}
	return filepath.Join(f.dir, name)
}

type fakeNative map[string]string

func (f fakeNative) Staged(target string) string { return f[target] }
