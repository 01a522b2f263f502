package exclusive

import (
	"strings"
)

// Pair is an unordered pair of flags. First appears earlier in the original
// list than Second.
type Pair struct {
	First  string `json:"first" yaml:"first"`
	Second string `json:"second" yaml:"second"`
}

// Pairs enumerates every unordered pair of flags exactly once: the head is
// paired with each element of the tail, then the tail is processed the same
// way. Fewer than two flags yield no pairs.
func Pairs(flags []string) []Pair {
	if len(flags) < 2 {
		return nil
	}

	pairs := make([]Pair, 0, PairCount(len(flags)))
	for i, head := range flags {
		for _, tail := range flags[i+1:] {
			pairs = append(pairs, Pair{First: head, Second: tail})
		}
	}
	return pairs
}

// PairCount returns n·(n−1)/2, the number of pairs Pairs yields for n flags.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// CheckKind distinguishes the two checks a set expands into.
type CheckKind int

const (
	// KindPairwise fires when both flags of a pair are enabled.
	KindPairwise CheckKind = iota
	// KindCoverage fires when no flag of an exactly-one set is enabled.
	KindCoverage
)

// String returns the lower-case name of the kind.
func (k CheckKind) String() string {
	switch k {
	case KindPairwise:
		return "pairwise"
	case KindCoverage:
		return "coverage"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k CheckKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Check is a single assertion over a flag selection.
type Check struct {
	Kind CheckKind `json:"kind" yaml:"kind"`
	// Flags holds the pair for a pairwise check and the whole set, in
	// original order, for a coverage check.
	Flags   []string `json:"flags" yaml:"flags"`
	Message string   `json:"message" yaml:"message"`
}

// Fires reports whether the check is violated under enabled.
func (c Check) Fires(enabled Enabled) bool {
	switch c.Kind {
	case KindPairwise:
		return enabled(c.Flags[0]) && enabled(c.Flags[1])
	case KindCoverage:
		for _, f := range c.Flags {
			if enabled(f) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Err returns the typed error for a firing check.
func (c Check) Err() error {
	switch c.Kind {
	case KindPairwise:
		return &PairwiseConflict{A: c.Flags[0], B: c.Flags[1]}
	case KindCoverage:
		return &CoverageViolation{Flags: append([]string(nil), c.Flags...)}
	default:
		return nil
	}
}

// PairwiseChecks returns one pairwise check per unordered pair of flags.
func PairwiseChecks(flags []string) []Check {
	pairs := Pairs(flags)
	checks := make([]Check, 0, len(pairs))
	for _, p := range pairs {
		checks = append(checks, Check{
			Kind:    KindPairwise,
			Flags:   []string{p.First, p.Second},
			Message: ConflictMessage(p.First, p.Second),
		})
	}
	return checks
}

// CoverageCheck returns the check requiring at least one of flags.
func CoverageCheck(flags []string) Check {
	return Check{
		Kind:    KindCoverage,
		Flags:   append([]string(nil), flags...),
		Message: CoverageMessage(flags),
	}
}

// Expand returns the pairwise checks for flags followed, in ExactlyOne mode,
// by the coverage check. The coverage check is emitted for every list size,
// including a single flag.
func Expand(mode Mode, flags []string) []Check {
	checks := PairwiseChecks(flags)
	if mode == ExactlyOne && len(flags) > 0 {
		checks = append(checks, CoverageCheck(flags))
	}
	return checks
}

// ConflictMessage is the text reported when a and b are both enabled.
func ConflictMessage(a, b string) string {
	return "The `" + a + "` and `" + b + "` features are mutually exclusive and cannot be enabled at the same time!"
}

// CoverageMessage is the text reported when none of flags is enabled.
func CoverageMessage(flags []string) string {
	return "You must enable exactly one of " + QuoteJoin(flags) + " features!"
}

// QuoteJoin wraps each flag in backticks and joins them with ", ",
// preserving order.
func QuoteJoin(flags []string) string {
	var b strings.Builder
	for i, f := range flags {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('`')
		b.WriteString(f)
		b.WriteByte('`')
	}
	return b.String()
}
