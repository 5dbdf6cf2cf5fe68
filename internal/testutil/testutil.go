// Package testutil provides fixtures shared by package tests: a stand-in
// compiler and shell-script "submissions".
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeCompiler mimics `cc -Wall SRC -o BIN`: it replays SRC.diag on stderr,
// fails if that file reports an error, and otherwise installs SRC (a shell
// script) as the executable BIN.
const fakeCompiler = `#!/bin/sh
src="$2"
bin="$4"
if [ -f "$src.diag" ]; then
  cat "$src.diag" >&2
  if grep -q "error:" "$src.diag"; then
    exit 1
  fi
fi
cp "$src" "$bin" && chmod +x "$bin"
`

// FakeCompiler installs the stand-in compiler in dir and returns a command
// template for it.
func FakeCompiler(t testing.TB, dir string) string {
	t.Helper()
	path := WriteFile(t, dir, "fakecc", fakeCompiler)
	if err := os.Chmod(path, 0755); err != nil {
		t.Fatalf("failed to chmod fake compiler: %v", err)
	}
	return path + " -Wall {src} -o {bin}"
}

// Submission writes a shell-script submission named name (e.g. "prog.c")
// with the given body, plus optional diagnostics the fake compiler replays.
func Submission(t testing.TB, dir, name, body, diagnostics string) string {
	t.Helper()
	src := WriteFile(t, dir, name, "#!/bin/sh\n"+body+"\n")
	if diagnostics != "" {
		WriteFile(t, dir, name+".diag", diagnostics)
	}
	return src
}

// WriteFile creates dir/name with content and returns its path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	return path
}

// ReadFile returns the content of path.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(content)
}
