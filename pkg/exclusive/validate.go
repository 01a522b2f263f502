package exclusive

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Enabled reports whether a flag is enabled in the current selection.
type Enabled func(flag string) bool

// Tags returns an Enabled predicate that is true for exactly the given tags.
func Tags(tags ...string) Enabled {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return func(flag string) bool {
		_, ok := set[flag]
		return ok
	}
}

// PairwiseConflict is reported when two flags of a set are enabled together.
type PairwiseConflict struct {
	A, B string
}

func (e *PairwiseConflict) Error() string {
	return ConflictMessage(e.A, e.B)
}

// CoverageViolation is reported when no flag of an exactly-one set is enabled.
type CoverageViolation struct {
	Flags []string
}

func (e *CoverageViolation) Error() string {
	return CoverageMessage(e.Flags)
}

// Check evaluates every check of the set under enabled. It returns nil when
// no check fires; otherwise each firing check contributes one
// *PairwiseConflict or *CoverageViolation, in expansion order, combined with
// multierr.
func (s *Set) Check(enabled Enabled) error {
	return evaluate(s.Checks(), enabled)
}

// Violations is Check flattened into a slice.
func (s *Set) Violations(enabled Enabled) []error {
	return multierr.Errors(s.Check(enabled))
}

func evaluate(checks []Check, enabled Enabled) error {
	var err error
	for _, c := range checks {
		if c.Fires(enabled) {
			err = multierr.Append(err, c.Err())
		}
	}
	return err
}

// NoneOrOneOf fails when two or more of flags are enabled.
func NoneOrOneOf(enabled Enabled, flags ...string) error {
	return validateFlags(AtMostOne, enabled, flags)
}

// ExactlyOneOf fails unless precisely one of flags is enabled.
func ExactlyOneOf(enabled Enabled, flags ...string) error {
	return validateFlags(ExactlyOne, enabled, flags)
}

func validateFlags(mode Mode, enabled Enabled, flags []string) error {
	s, err := NewSet("", mode, flags...)
	if err != nil {
		return err
	}
	return s.Check(enabled)
}

// ValidateAll checks every set and combines the failures.
func ValidateAll(enabled Enabled, sets ...*Set) error {
	var err error
	for _, s := range sets {
		err = multierr.Append(err, s.Check(enabled))
	}
	return err
}

// MustValidate panics with every failure of sets under enabled. It is meant
// for package init functions of binaries that select features at build time.
func MustValidate(enabled Enabled, sets ...*Set) {
	if err := ValidateAll(enabled, sets...); err != nil {
		msgs := make([]string, 0)
		for _, e := range multierr.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		panic(fmt.Sprintf("invalid feature selection:\n  %s", strings.Join(msgs, "\n  ")))
	}
}
