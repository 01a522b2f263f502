// Package scanner discovers featureguard directives in Go source.
//
// A directive is a line comment of the form
//
//	//featureguard:exactly-one-of "rustls", "nativetls"
//
// placed anywhere in a non-test .go file. The scanner parses each file with
// go/parser, collects the directives per package directory and records the
// package name so generated files can join the same package.
package scanner

import (
	"context"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	guarderrors "github.com/conneroisu/featureguard/internal/errors"
	"github.com/conneroisu/featureguard/internal/logging"
)

// Package groups the directives of one package directory.
type Package struct {
	Dir        string
	Name       string
	Directives []Directive
}

// DirectiveScanner walks source trees looking for directives.
type DirectiveScanner struct {
	exclude []string
	skip    func(path string) bool
	logger  logging.Logger
}

// Option configures a DirectiveScanner.
type Option func(*DirectiveScanner)

// WithExclude skips directories whose base name matches any of the glob
// patterns.
func WithExclude(patterns ...string) Option {
	return func(s *DirectiveScanner) {
		s.exclude = append(s.exclude, patterns...)
	}
}

// WithSkipFile skips individual files, typically previously generated ones.
func WithSkipFile(skip func(path string) bool) Option {
	return func(s *DirectiveScanner) {
		s.skip = skip
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *DirectiveScanner) {
		s.logger = logger
	}
}

// New creates a scanner. vendor, testdata and hidden directories are always
// skipped, as the go command does.
func New(opts ...Option) *DirectiveScanner {
	s := &DirectiveScanner{
		exclude: []string{"vendor", "testdata", ".*", "_*"},
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("scanner")
	return s
}

// ScanPackage scans the .go files directly inside dir.
func (s *DirectiveScanner) ScanPackage(ctx context.Context, dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, guarderrors.NewIOError("READ_DIR", "cannot read package directory", err).
			WithLocation(dir, 0, 0)
	}

	pkg := &Package{Dir: dir}
	fset := token.NewFileSet()

	var errs error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if s.skip != nil && s.skip(path) {
			continue
		}

		errs = multierr.Append(errs, s.scanFile(fset, path, pkg))
	}

	s.logger.Debug(ctx, "scanned package", "dir", dir, "package", pkg.Name, "directives", len(pkg.Directives))

	return pkg, errs
}

// ScanTree scans root and every package below it. Packages are parsed in
// parallel, at most one per CPU. Only packages with at least one directive
// are returned, sorted by directory.
func (s *DirectiveScanner) ScanTree(ctx context.Context, root string) ([]*Package, error) {
	dirs, err := s.Dirs(root)
	if err != nil {
		return nil, err
	}

	packages := make([]*Package, len(dirs))
	errs := make([]error, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			pkg, err := s.ScanPackage(gctx, dir)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// directive errors are collected, not fatal
			packages[i], errs[i] = pkg, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := make([]*Package, 0, len(packages))
	for _, pkg := range packages {
		if pkg != nil && len(pkg.Directives) > 0 {
			found = append(found, pkg)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Dir < found[j].Dir })

	return found, multierr.Combine(errs...)
}

// Dirs lists root and every directory below it that is not excluded.
func (s *DirectiveScanner) Dirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && s.excluded(d.Name()) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, guarderrors.NewIOError("WALK", "cannot walk source tree", err).WithLocation(root, 0, 0)
	}
	return dirs, nil
}

func (s *DirectiveScanner) scanFile(fset *token.FileSet, path string, pkg *Package) error {
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return guarderrors.NewIOError("PARSE", "cannot parse Go file", err).WithLocation(path, 0, 0)
	}
	if ast.IsGenerated(file) {
		return nil
	}
	if neverBuilt(file) {
		s.logger.Debug(context.Background(), "skipping file excluded from every build", "file", path)
		return nil
	}

	if pkg.Name == "" {
		pkg.Name = file.Name.Name
	} else if pkg.Name != file.Name.Name {
		return guarderrors.NewValidationError("PACKAGE_MISMATCH",
			fmt.Sprintf("found packages %s and %s in %s", pkg.Name, file.Name.Name, pkg.Dir)).
			WithLocation(path, 0, 0)
	}

	var errs error
	for _, group := range file.Comments {
		for _, comment := range group.List {
			set, ok, err := ParseDirective(comment.Text)
			if !ok {
				continue
			}
			pos := fset.Position(comment.Pos())
			if err != nil {
				errs = multierr.Append(errs,
					guarderrors.NewDirectiveError("BAD_DIRECTIVE", "invalid featureguard directive", err).
						WithLocation(path, pos.Line, pos.Column))
				continue
			}
			pkg.Directives = append(pkg.Directives, Directive{
				Set:    set,
				File:   path,
				Line:   pos.Line,
				Column: pos.Column,
			})
		}
	}

	return errs
}

func (s *DirectiveScanner) excluded(name string) bool {
	for _, pattern := range s.exclude {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// neverBuilt reports whether the //go:build line of file cannot be satisfied
// by any tag selection, such as the "ignore" constraint of go:generate
// programs kept next to the package they generate for. The go command never
// sets the ignore tag.
func neverBuilt(file *ast.File) bool {
	for _, group := range file.Comments {
		if group.Pos() >= file.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return false
			}
			return !satisfiable(expr)
		}
	}
	return false
}

// maxConstraintTags bounds the exhaustive search in satisfiable.
const maxConstraintTags = 12

func satisfiable(expr constraint.Expr) bool {
	var tags []string
	seen := make(map[string]bool)
	collectTags(expr, func(tag string) {
		if tag != "ignore" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	})
	if len(tags) > maxConstraintTags {
		return true
	}

	for bits := 0; bits < 1<<len(tags); bits++ {
		enabled := make(map[string]bool, len(tags))
		for i, tag := range tags {
			enabled[tag] = bits&(1<<i) != 0
		}
		if expr.Eval(func(tag string) bool { return enabled[tag] }) {
			return true
		}
	}
	return false
}

func collectTags(expr constraint.Expr, fn func(string)) {
	switch e := expr.(type) {
	case *constraint.TagExpr:
		fn(e.Tag)
	case *constraint.NotExpr:
		collectTags(e.X, fn)
	case *constraint.AndExpr:
		collectTags(e.X, fn)
		collectTags(e.Y, fn)
	case *constraint.OrExpr:
		collectTags(e.X, fn)
		collectTags(e.Y, fn)
	}
}

func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasPrefix(name, ".") &&
		!strings.HasPrefix(name, "_")
}
