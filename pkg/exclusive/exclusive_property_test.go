//go:build property
// +build property

package exclusive

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/multierr"
)

// distinctFlags turns n into the flag list f0..f(n-1).
func distinctFlags(n int) []string {
	flags := make([]string, n)
	for i := range flags {
		flags[i] = fmt.Sprintf("f%d", i)
	}
	return flags
}

// TestPairEnumerationProperties checks combinatorial completeness.
func TestPairEnumerationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("pair count is n(n-1)/2", prop.ForAll(
		func(n int) bool {
			return len(Pairs(distinctFlags(n))) == n*(n-1)/2
		},
		gen.IntRange(2, 40),
	))

	properties.Property("sets of size <= 1 have no pairs", prop.ForAll(
		func(n int) bool {
			return len(Pairs(distinctFlags(n))) == 0
		},
		gen.IntRange(0, 1),
	))

	properties.Property("every unordered pair appears exactly once", prop.ForAll(
		func(n int) bool {
			flags := distinctFlags(n)
			index := make(map[string]int, n)
			for i, f := range flags {
				index[f] = i
			}

			seen := make(map[[2]string]int)
			for _, p := range Pairs(flags) {
				if p.First == p.Second {
					return false
				}
				// earlier flag is always named first
				if index[p.First] >= index[p.Second] {
					return false
				}
				seen[[2]string{p.First, p.Second}]++
			}

			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					if seen[[2]string{flags[i], flags[j]}] != 1 {
						return false
					}
				}
			}
			return len(seen) == n*(n-1)/2
		},
		gen.IntRange(0, 25),
	))

	properties.TestingRun(t)
}

// TestSelectionProperties checks validation against every selection size.
func TestSelectionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("at most one: k enabled yields k(k-1)/2 conflicts", prop.ForAll(
		func(n, k int) bool {
			if k > n {
				k = n
			}
			flags := distinctFlags(n)
			errs := multierr.Errors(NoneOrOneOf(Tags(flags[:k]...), flags...))
			return len(errs) == PairCount(k)
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 12),
	))

	properties.Property("exactly one: only a single enabled flag passes", prop.ForAll(
		func(n, k int) bool {
			if k > n {
				k = n
			}
			flags := distinctFlags(n)
			err := ExactlyOneOf(Tags(flags[:k]...), flags...)
			if k == 1 {
				return err == nil
			}

			var coverage *CoverageViolation
			hasCoverage := false
			for _, e := range multierr.Errors(err) {
				if c, ok := e.(*CoverageViolation); ok {
					coverage = c
					hasCoverage = true
				}
			}
			if k == 0 {
				return hasCoverage && len(coverage.Flags) == n
			}
			return !hasCoverage && len(multierr.Errors(err)) == PairCount(k)
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 12),
	))

	properties.Property("pair order does not change the pair set", prop.ForAll(
		func(n int) bool {
			flags := distinctFlags(n)
			reversed := make([]string, n)
			for i, f := range flags {
				reversed[n-1-i] = f
			}

			key := func(p Pair) [2]string {
				if p.First < p.Second {
					return [2]string{p.First, p.Second}
				}
				return [2]string{p.Second, p.First}
			}
			forward := make(map[[2]string]bool)
			for _, p := range Pairs(flags) {
				forward[key(p)] = true
			}
			for _, p := range Pairs(reversed) {
				if !forward[key(p)] {
					return false
				}
			}
			return len(forward) == len(Pairs(reversed))
		},
		gen.IntRange(0, 15),
	))

	properties.TestingRun(t)
}
