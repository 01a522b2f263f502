package exclusive

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how many flags of a set may be enabled.
type Mode int

const (
	// AtMostOne allows zero or one enabled flag.
	AtMostOne Mode = iota
	// ExactlyOne requires precisely one enabled flag.
	ExactlyOne
)

// String returns the directive name of the mode.
func (m Mode) String() string {
	switch m {
	case AtMostOne:
		return "none-or-one-of"
	case ExactlyOne:
		return "exactly-one-of"
	default:
		return "unknown"
	}
}

// ParseMode accepts the directive names and a few common spellings.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none-or-one-of", "none_or_one_of", "at-most-one", "atmostone", "at_most_one":
		return AtMostOne, nil
	case "exactly-one-of", "exactly_one_of", "exactly-one", "exactlyone", "exactly_one":
		return ExactlyOne, nil
	default:
		return AtMostOne, fmt.Errorf("unknown mode %q (want none-or-one-of or exactly-one-of)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != AtMostOne && m != ExactlyOne {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Declaration errors returned by NewSet.
var (
	ErrEmptySet      = errors.New("flag set must name at least one flag")
	ErrEmptyFlag     = errors.New("flag name must not be empty")
	ErrDuplicateFlag = errors.New("duplicate flag")
)

// Set is an ordered list of distinct flags under one Mode.
type Set struct {
	Name  string   `json:"name,omitempty" yaml:"name,omitempty"`
	Mode  Mode     `json:"mode" yaml:"mode"`
	Flags []string `json:"flags" yaml:"flags"`
}

// NewSet validates a declaration and returns the set. The flags slice is
// copied.
func NewSet(name string, mode Mode, flags ...string) (*Set, error) {
	s := &Set{
		Name:  name,
		Mode:  mode,
		Flags: append([]string(nil), flags...),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the declaration itself, not a flag selection.
func (s *Set) Validate() error {
	if s.Mode != AtMostOne && s.Mode != ExactlyOne {
		return fmt.Errorf("set %q: invalid mode %d", s.Name, int(s.Mode))
	}
	if len(s.Flags) == 0 {
		return fmt.Errorf("set %q: %w", s.Name, ErrEmptySet)
	}

	seen := make(map[string]int, len(s.Flags))
	for i, flag := range s.Flags {
		if flag == "" {
			return fmt.Errorf("set %q: flag %d: %w", s.Name, i+1, ErrEmptyFlag)
		}
		if first, ok := seen[flag]; ok {
			return fmt.Errorf("set %q: %w %q at positions %d and %d", s.Name, ErrDuplicateFlag, flag, first+1, i+1)
		}
		seen[flag] = i
	}

	return nil
}

// Checks expands the set into its checks.
func (s *Set) Checks() []Check {
	return Expand(s.Mode, s.Flags)
}

// Contains reports whether flag is a member of the set.
func (s *Set) Contains(flag string) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// String renders the set the way it is written in a source directive.
func (s *Set) String() string {
	quoted := make([]string, len(s.Flags))
	for i, f := range s.Flags {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return s.Mode.String() + " " + strings.Join(quoted, ", ")
}
