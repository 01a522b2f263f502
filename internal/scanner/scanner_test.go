package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	guarderrors "github.com/conneroisu/featureguard/internal/errors"
	"github.com/conneroisu/featureguard/pkg/exclusive"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		isDir    bool
		wantErr  bool
		mode     exclusive.Mode
		setName  string
		expected []string
	}{
		{
			name:  "not a directive",
			text:  "// just a comment",
			isDir: false,
		},
		{
			name:     "quoted list",
			text:     `//featureguard:none-or-one-of "f1", "f2", "f3"`,
			isDir:    true,
			mode:     exclusive.AtMostOne,
			expected: []string{"f1", "f2", "f3"},
		},
		{
			name:     "trailing comma",
			text:     `//featureguard:exactly-one-of "a", "b",`,
			isDir:    true,
			mode:     exclusive.ExactlyOne,
			expected: []string{"a", "b"},
		},
		{
			name:     "bare words with name",
			text:     `//featureguard:exactly-one-of name=tls rustls nativetls`,
			isDir:    true,
			mode:     exclusive.ExactlyOne,
			setName:  "tls",
			expected: []string{"rustls", "nativetls"},
		},
		{
			name:     "name followed by comma list",
			text:     `//featureguard:none-or-one-of name=alloc, "jemalloc", "mimalloc"`,
			isDir:    true,
			mode:     exclusive.AtMostOne,
			setName:  "alloc",
			expected: []string{"jemalloc", "mimalloc"},
		},
		{
			name:     "single flag",
			text:     `//featureguard:exactly-one-of "solo"`,
			isDir:    true,
			mode:     exclusive.ExactlyOne,
			expected: []string{"solo"},
		},
		{
			name:     "tab after verb",
			text:     "//featureguard:none-or-one-of\t\"a\", \"b\"",
			isDir:    true,
			mode:     exclusive.AtMostOne,
			expected: []string{"a", "b"},
		},
		{name: "unknown verb", text: `//featureguard:all-of "a"`, isDir: true, wantErr: true},
		{name: "empty list", text: `//featureguard:none-or-one-of`, isDir: true, wantErr: true},
		{name: "empty element", text: `//featureguard:none-or-one-of "a",,"b"`, isDir: true, wantErr: true},
		{name: "duplicate", text: `//featureguard:none-or-one-of a a`, isDir: true, wantErr: true},
		{name: "bad literal", text: `//featureguard:none-or-one-of "a`, isDir: true, wantErr: true},
		{name: "empty name", text: `//featureguard:none-or-one-of name= a b`, isDir: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, ok, err := ParseDirective(tt.text)
			assert.Equal(t, tt.isDir, ok)
			if !tt.isDir {
				return
			}
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, set.Mode)
			assert.Equal(t, tt.setName, set.Name)
			assert.Equal(t, tt.expected, set.Flags)
		})
	}
}

func TestScanPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), `package main

//featureguard:exactly-one-of name=tls "rustls", "nativetls"

func main() {}
`)
	writeFile(t, filepath.Join(dir, "alloc.go"), `package main

//featureguard:none-or-one-of jemalloc mimalloc
var allocator string
`)
	writeFile(t, filepath.Join(dir, "main_test.go"), `package main

//featureguard:none-or-one-of ignored also_ignored
`)
	writeFile(t, filepath.Join(dir, "featureguard_tls_01.go"), `// Code generated by featureguard. DO NOT EDIT.

//go:build rustls && nativetls

package main

//featureguard:none-or-one-of generated files are skipped
`)

	pkg, err := New().ScanPackage(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "main", pkg.Name)
	require.Len(t, pkg.Directives, 2)

	// os.ReadDir sorts entries by name
	assert.Equal(t, []string{"jemalloc", "mimalloc"}, pkg.Directives[0].Set.Flags)
	assert.Equal(t, "tls", pkg.Directives[1].Set.Name)
	assert.Equal(t, 3, pkg.Directives[1].Line)
	assert.Equal(t, filepath.Join(dir, "main.go"), pkg.Directives[1].File)
}

func TestScanPackageReportsBadDirectives(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), `package a

//featureguard:none-or-one-of x x
//featureguard:exactly-one-of ok1 ok2
//featureguard:sometimes "y"
`)

	pkg, err := New().ScanPackage(context.Background(), dir)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, guarderrors.IsDirectiveError(err))
	assert.Contains(t, err.Error(), "a.go:3:1")

	require.NotNil(t, pkg)
	assert.Len(t, pkg.Directives, 1)
}

func TestScanPackageSkipFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\n//featureguard:none-or-one-of x y\n")
	writeFile(t, filepath.Join(dir, "b.go"), "package a\n\n//featureguard:none-or-one-of p q\n")

	s := New(WithSkipFile(func(path string) bool { return filepath.Base(path) == "b.go" }))
	pkg, err := s.ScanPackage(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, pkg.Directives, 1)
	assert.Equal(t, []string{"x", "y"}, pkg.Directives[0].Set.Flags)
}

func TestScanPackageMismatchedPackages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
	writeFile(t, filepath.Join(dir, "b.go"), "package b\n")

	_, err := New().ScanPackage(context.Background(), dir)
	assert.ErrorContains(t, err, "found packages a and b")
}

func TestScanPackageSkipsIgnoredFiles(t *testing.T) {
	dir := t.TempDir()
	// sorts before features.go so its package clause would be seen first
	writeFile(t, filepath.Join(dir, "gen.go"), `//go:build ignore

package main

//featureguard:none-or-one-of never seen

func main() {}
`)
	writeFile(t, filepath.Join(dir, "dead.go"), "//go:build linux && !linux\n\npackage other\n")
	writeFile(t, filepath.Join(dir, "features.go"), `package features

//go:generate go run gen.go
//featureguard:none-or-one-of zap zerolog
`)
	writeFile(t, filepath.Join(dir, "zap.go"), `//go:build zap && !ignore

package features

//featureguard:exactly-one-of name=codec json msgpack
`)

	pkg, err := New().ScanPackage(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "features", pkg.Name)
	require.Len(t, pkg.Directives, 2)
	assert.Equal(t, []string{"zap", "zerolog"}, pkg.Directives[0].Set.Flags)
	assert.Equal(t, "codec", pkg.Directives[1].Set.Name)
}

func TestScanTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\n//featureguard:none-or-one-of a b\n")
	writeFile(t, filepath.Join(root, "internal", "db", "db.go"), "package db\n\n//featureguard:exactly-one-of postgres sqlite\n")
	writeFile(t, filepath.Join(root, "internal", "plain", "plain.go"), "package plain\n")
	writeFile(t, filepath.Join(root, "vendor", "x", "x.go"), "package x\n\n//featureguard:none-or-one-of v w\n")
	writeFile(t, filepath.Join(root, "skipme", "s.go"), "package s\n\n//featureguard:none-or-one-of s t\n")

	packages, err := New(WithExclude("skipme")).ScanTree(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, packages, 2)

	assert.Equal(t, root, packages[0].Dir)
	assert.Equal(t, "main", packages[0].Name)
	assert.Equal(t, filepath.Join(root, "internal", "db"), packages[1].Dir)
	assert.Equal(t, exclusive.ExactlyOne, packages[1].Directives[0].Set.Mode)
}

func TestScanPackageCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ScanPackage(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "a.go"), "package a\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref\n")
	writeFile(t, filepath.Join(root, "testdata", "x.go"), "package x\n")

	dirs, err := New().Dirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{root, filepath.Join(root, "a")}, dirs)

	_, err = New().Dirs(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
