// Package services holds the business logic behind the featureguard
// commands: collecting flag sets from source directives and the manifest,
// generating check files and evaluating tag selections.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/conneroisu/featureguard/internal/config"
	guarderrors "github.com/conneroisu/featureguard/internal/errors"
	"github.com/conneroisu/featureguard/internal/generator"
	"github.com/conneroisu/featureguard/internal/logging"
	"github.com/conneroisu/featureguard/internal/scanner"
	"github.com/conneroisu/featureguard/pkg/exclusive"
)

// ManifestSource is the source recorded for sets declared in the manifest.
const ManifestSource = "manifest"

// Target is one package that receives generated checks.
type Target struct {
	Dir     string           `json:"dir" yaml:"dir"`
	Package string           `json:"package" yaml:"package"`
	Sets    []*exclusive.Set `json:"-" yaml:"-"`
	// Sources holds where each set was declared, parallel to Sets.
	Sources []string `json:"sources" yaml:"sources"`
}

func (t *Target) add(set *exclusive.Set, source string) {
	t.Sets = append(t.Sets, set)
	t.Sources = append(t.Sources, source)
}

// nameSets names every unnamed set after the first free setN of the target.
func (t *Target) nameSets() {
	for i, name := range generator.Names(t.Sets) {
		if t.Sets[i].Name == "" {
			t.Sets[i].Name = name
		}
	}
}

// GuardService collects flag sets and acts on them.
type GuardService struct {
	config  *config.Config
	root    string
	logger  logging.Logger
	scanner *scanner.DirectiveScanner
}

// NewGuardService creates a service working on the tree below root. A nil
// logger discards output.
func NewGuardService(cfg *config.Config, root string, logger logging.Logger) *GuardService {
	if cfg == nil {
		cfg = config.Default()
	}
	if root == "" {
		root = "."
	}
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("services")

	return &GuardService{
		config: cfg,
		root:   root,
		logger: logger,
		scanner: scanner.New(
			scanner.WithExclude(cfg.Scan.Exclude...),
			scanner.WithLogger(logger),
		),
	}
}

func (s *GuardService) path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.root, p)
}

// Targets scans the configured paths for directives and adds the manifest
// sets to the output package. Targets are sorted by directory. Directive
// errors from all files are reported together.
func (s *GuardService) Targets(ctx context.Context) ([]*Target, error) {
	byDir := make(map[string]*Target)
	var errs error

	for _, p := range s.config.Scan.Paths {
		packages, err := s.scanner.ScanTree(ctx, s.path(p))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = multierr.Append(errs, err)

		for _, pkg := range packages {
			target, ok := byDir[pkg.Dir]
			if !ok {
				target = &Target{Dir: pkg.Dir, Package: pkg.Name}
				byDir[pkg.Dir] = target
			}
			for _, d := range pkg.Directives {
				target.add(d.Set, fmt.Sprintf("%s:%d", s.relative(d.File), d.Line))
			}
		}
	}

	if len(s.config.Sets) > 0 {
		sets, err := s.config.FlagSets()
		if err != nil {
			errs = multierr.Append(errs, guarderrors.NewConfigError("INVALID_SET", "invalid manifest set", err))
		} else {
			dir := s.path(s.config.Output)
			target, ok := byDir[dir]
			if !ok {
				name, err := s.packageName(ctx, dir)
				if err != nil {
					errs = multierr.Append(errs, err)
				}
				target = &Target{Dir: dir, Package: name}
				byDir[dir] = target
			}
			for _, set := range sets {
				target.add(set, ManifestSource)
			}
		}
	}

	if errs != nil {
		return nil, errs
	}

	targets := make([]*Target, 0, len(byDir))
	for _, t := range byDir {
		t.nameSets()
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Dir < targets[j].Dir })

	return targets, nil
}

// packageName picks the package clause for manifest checks: the package
// already living in dir, else the configured one.
func (s *GuardService) packageName(ctx context.Context, dir string) (string, error) {
	var detected string
	if pkg, err := s.scanner.ScanPackage(ctx, dir); err == nil {
		detected = pkg.Name
	}

	switch {
	case detected != "" && s.config.Package != "" && detected != s.config.Package:
		s.logger.Warn(ctx, nil, "configured package differs from the package in the output directory",
			"configured", s.config.Package, "detected", detected, "dir", dir)
		return detected, nil
	case detected != "":
		return detected, nil
	case s.config.Package != "":
		return s.config.Package, nil
	default:
		return "", guarderrors.NewConfigError("NO_PACKAGE",
			"cannot detect the package of the output directory; set package in the manifest", nil).
			WithLocation(dir, 0, 0)
	}
}

func (s *GuardService) relative(path string) string {
	if rel, err := filepath.Rel(s.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// GenerateOptions contains options for the generate process
type GenerateOptions struct {
	DryRun bool
}

// GenerateResult contains the result of a generate operation
type GenerateResult struct {
	generator.Result `yaml:",inline"`
	Packages         int           `json:"packages" yaml:"packages"`
	Sets             int           `json:"sets" yaml:"sets"`
	Checks           int           `json:"checks" yaml:"checks"`
	Duration         time.Duration `json:"duration" yaml:"duration"`
}

// Generate writes the checks of every target and removes generated files
// from directories that no longer declare any set.
func (s *GuardService) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	op := logging.StartOperation(s.logger, "generate")

	targets, err := s.Targets(ctx)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	result := &GenerateResult{}
	active := make(map[string]bool, len(targets))

	for _, t := range targets {
		active[t.Dir] = true

		g, err := generator.New(generator.Options{
			Dir:     t.Dir,
			Package: t.Package,
			Prefix:  s.config.Prefix,
			DryRun:  opts.DryRun,
		}, s.logger)
		if err != nil {
			op.EndWithError(ctx, err)
			return nil, fmt.Errorf("%s: %w", s.relative(t.Dir), err)
		}

		r, err := g.Generate(ctx, t.Sets)
		if err != nil {
			op.EndWithError(ctx, err)
			return nil, fmt.Errorf("%s: %w", s.relative(t.Dir), err)
		}

		result.Packages++
		result.Sets += len(t.Sets)
		for _, set := range t.Sets {
			result.Checks += len(set.Checks())
		}
		result.merge(r)
	}

	stale, err := s.staleDirs(active)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}
	for _, dir := range stale {
		removed, err := generator.Clean(dir, s.config.Prefix, opts.DryRun)
		if err != nil {
			op.EndWithError(ctx, err)
			return nil, err
		}
		result.Removed = append(result.Removed, removed...)
	}

	result.Duration = time.Since(op.Start())
	op.End(ctx, "packages", result.Packages, "written", len(result.Written), "removed", len(result.Removed))

	return result, nil
}

func (r *GenerateResult) merge(other *generator.Result) {
	r.Written = append(r.Written, other.Written...)
	r.Removed = append(r.Removed, other.Removed...)
	r.Unchanged = append(r.Unchanged, other.Unchanged...)
}

// staleDirs lists scanned directories holding generated files that are not
// targets anymore.
func (s *GuardService) staleDirs(active map[string]bool) ([]string, error) {
	var stale []string
	seen := make(map[string]bool)

	for _, p := range s.config.Scan.Paths {
		dirs, err := s.scanner.Dirs(s.path(p))
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			if active[dir] || seen[dir] {
				continue
			}
			seen[dir] = true
			owned, err := generator.Owned(dir, s.config.Prefix)
			if err != nil {
				return nil, err
			}
			if len(owned) > 0 {
				stale = append(stale, dir)
			}
		}
	}

	return stale, nil
}

// Violation is one failed check of a tag selection.
type Violation struct {
	Dir     string              `json:"dir" yaml:"dir"`
	Set     string              `json:"set" yaml:"set"`
	Source  string              `json:"source" yaml:"source"`
	Kind    exclusive.CheckKind `json:"kind" yaml:"kind"`
	Flags   []string            `json:"flags" yaml:"flags"`
	Message string              `json:"message" yaml:"message"`
	Err     error               `json:"-" yaml:"-"`
}

// CheckResult contains the result of evaluating a tag selection
type CheckResult struct {
	Tags       []string    `json:"tags" yaml:"tags"`
	Sets       int         `json:"sets" yaml:"sets"`
	Violations []Violation `json:"violations" yaml:"violations"`
}

// Err combines the violation errors, nil when the selection is valid.
func (r *CheckResult) Err() error {
	var err error
	for _, v := range r.Violations {
		err = multierr.Append(err, v.Err)
	}
	return err
}

// Check evaluates every collected set against enabled. A violating
// selection is reported through the result, not the error.
func (s *GuardService) Check(ctx context.Context, enabled exclusive.Enabled, tags []string) (*CheckResult, error) {
	targets, err := s.Targets(ctx)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Tags: tags}
	for _, t := range targets {
		for i, set := range t.Sets {
			result.Sets++
			for _, verr := range set.Violations(enabled) {
				v := Violation{
					Dir:     s.relative(t.Dir),
					Set:     set.Name,
					Source:  t.Sources[i],
					Message: verr.Error(),
					Err:     verr,
				}
				var conflict *exclusive.PairwiseConflict
				var coverage *exclusive.CoverageViolation
				switch {
				case errors.As(verr, &conflict):
					v.Kind = exclusive.KindPairwise
					v.Flags = []string{conflict.A, conflict.B}
				case errors.As(verr, &coverage):
					v.Kind = exclusive.KindCoverage
					v.Flags = coverage.Flags
				}
				result.Violations = append(result.Violations, v)
			}
		}
	}

	s.logger.Debug(ctx, "checked tag selection", "tags", tags, "sets", result.Sets, "violations", len(result.Violations))

	return result, nil
}

// Explanation ties a violation found in compiler output back to the set
// that declared it.
type Explanation struct {
	*guarderrors.ParsedViolation `yaml:",inline"`
	Set                          string `json:"set,omitempty" yaml:"set,omitempty"`
	Source                       string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Explain parses go build output and looks up the declaring set of every
// violation. Sets declared in the directory of the failing file win over
// sets elsewhere with the same flags.
func (s *GuardService) Explain(ctx context.Context, output string) ([]Explanation, error) {
	violations := guarderrors.NewViolationParser().Parse(output)
	if len(violations) == 0 {
		return nil, nil
	}

	targets, err := s.Targets(ctx)
	if err != nil {
		return nil, err
	}

	explanations := make([]Explanation, 0, len(violations))
	for _, v := range violations {
		e := Explanation{ParsedViolation: v}

		var dir string
		if v.File != "" {
			if abs, err := filepath.Abs(s.path(filepath.Dir(v.File))); err == nil {
				dir = abs
			}
		}

	search:
		for _, t := range targets {
			tdir, _ := filepath.Abs(t.Dir)
			for i, set := range t.Sets {
				for _, check := range set.Checks() {
					if check.Message != v.Message {
						continue
					}
					if e.Set == "" || tdir == dir {
						e.Set = set.Name
						e.Source = t.Sources[i]
					}
					if tdir == dir {
						break search
					}
				}
			}
		}

		explanations = append(explanations, e)
	}

	return explanations, nil
}
