// Package buildtags resolves which feature flags are enabled for a build.
//
// Feature flags are Go build tags. The enabled set comes from an explicit
// -tags style list and from the -tags flag embedded in GOFLAGS, the same two
// places the go command reads them from.
package buildtags

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/conneroisu/featureguard/pkg/exclusive"
)

// Parse splits a -tags value. The go command accepts a comma separated list
// and, for compatibility, a space separated one.
func Parse(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// FromGOFLAGS extracts the tags set through -tags=... in a GOFLAGS value.
// The last occurrence wins, as it does for the go command.
func FromGOFLAGS(goflags string) []string {
	var tags []string
	for _, field := range strings.Fields(goflags) {
		name, value, ok := strings.Cut(strings.TrimLeft(field, "-"), "=")
		if !ok || name != "tags" {
			continue
		}
		tags = Parse(value)
	}
	return tags
}

// IsValid reports whether tag can appear in a //go:build line: letters,
// digits, underscores and dots only.
func IsValid(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// Validate returns an error naming the first invalid tag.
func Validate(tags []string) error {
	for _, t := range tags {
		if !IsValid(t) {
			return fmt.Errorf("invalid build tag %q: only letters, digits, '_' and '.' are allowed", t)
		}
	}
	return nil
}

// Environment is a resolved tag selection.
type Environment struct {
	tags map[string]struct{}
}

// NewEnvironment builds an environment from explicit tags plus the tags
// found in goflags.
func NewEnvironment(explicit []string, goflags string) *Environment {
	env := &Environment{tags: make(map[string]struct{})}
	for _, t := range FromGOFLAGS(goflags) {
		env.tags[t] = struct{}{}
	}
	for _, t := range explicit {
		for _, p := range Parse(t) {
			env.tags[p] = struct{}{}
		}
	}
	return env
}

// Enabled reports whether tag is selected.
func (e *Environment) Enabled(tag string) bool {
	_, ok := e.tags[tag]
	return ok
}

// Predicate adapts the environment to exclusive.Enabled.
func (e *Environment) Predicate() exclusive.Enabled {
	return e.Enabled
}

// Tags returns the selected tags in sorted order.
func (e *Environment) Tags() []string {
	out := make([]string, 0, len(e.tags))
	for t := range e.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
