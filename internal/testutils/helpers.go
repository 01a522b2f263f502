// Package testutils provides helpers shared by the package and integration
// tests: throwaway Go projects, directive-carrying packages and a
// tag-aware type check that reproduces what the compiler reports for
// generated checks.
package testutils

import (
	"go/ast"
	"go/build"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/featureguard/internal/config"
)

// ModulePath is the module path of projects made by CreateTempProject.
const ModulePath = "example.com/app"

// CreateTempProject creates a temporary module for testing
func CreateTempProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, "go.mod"), "module "+ModulePath+"\n\ngo 1.24\n")
	return dir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreateTestPackage writes <dir>/<name>.go declaring package name with one
// line per directive. Package main also gets an empty main function.
func CreateTestPackage(t *testing.T, dir, name string, directives ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("package " + name + "\n\n")
	for _, d := range directives {
		b.WriteString(d + "\n")
	}
	if name == "main" {
		b.WriteString("\nfunc main() {}\n")
	}

	return WriteFile(t, filepath.Join(dir, name+".go"), b.String())
}

// CreateTestConfig creates a configuration scanning the whole project
func CreateTestConfig(projectDir string) *config.Config {
	cfg := config.Default()
	cfg.Scan.Paths = []string{projectDir}
	return cfg
}

// TypeCheck type-checks the package in dir as the go command would build it
// with tags set, and returns the errors in source order. Generated checks
// that join the build show up here with the same text the compiler prints.
func TypeCheck(t *testing.T, dir string, tags ...string) []error {
	t.Helper()

	ctxt := build.Default
	ctxt.BuildTags = tags
	ctxt.Dir = dir

	pkg, err := ctxt.ImportDir(dir, 0)
	require.NoError(t, err)

	fset := token.NewFileSet()
	files := make([]*ast.File, 0, len(pkg.GoFiles))
	for _, name := range pkg.GoFiles {
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		require.NoError(t, err)
		files = append(files, f)
	}

	var errs []error
	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(err error) { errs = append(errs, err) },
	}
	_, _ = conf.Check(pkg.ImportPath, fset, files, nil)

	return errs
}

// AssertFilePermissions checks the permission bits of a file
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0o777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0o777), expectedMode)
}

// WaitForFile waits until cond holds for the file at path (useful for
// testing file watchers).
func WaitForFile(t *testing.T, path string, timeout time.Duration, cond func(info os.FileInfo, err error) bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if cond(os.Stat(path)) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s did not reach the expected state within %v", path, timeout)
}

// Exists is a WaitForFile condition.
func Exists(_ os.FileInfo, err error) bool {
	return err == nil
}

// Missing is a WaitForFile condition.
func Missing(_ os.FileInfo, err error) bool {
	return os.IsNotExist(err)
}
