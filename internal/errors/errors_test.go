package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *GuardError
		expected string
	}{
		{
			name:     "message only",
			err:      NewValidationError("", "bad input"),
			expected: "bad input",
		},
		{
			name:     "code and set",
			err:      NewValidationError("DUP_SET", "duplicate set name").WithSet("tls"),
			expected: "[DUP_SET] set:tls duplicate set name",
		},
		{
			name: "location and cause",
			err: NewDirectiveError("BAD_FLAG", "invalid flag list", fmt.Errorf("empty element")).
				WithLocation("main.go", 12, 3),
			expected: "main.go:12:3: [BAD_FLAG] invalid flag list: empty element",
		},
		{
			name:     "line without column",
			err:      NewIOError("READ", "read failed", nil).WithLocation("a.go", 4, 0),
			expected: "a.go:4: [READ] read failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGuardErrorIsAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIOError("WRITE", "write failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, &GuardError{Type: ErrorTypeIO, Code: "WRITE"}))
	assert.False(t, errors.Is(err, &GuardError{Type: ErrorTypeIO, Code: "READ"}))

	wrapped := fmt.Errorf("generate: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeIO))
	assert.False(t, IsConfigError(wrapped))
	assert.True(t, IsDirectiveError(NewDirectiveError("X", "y", nil)))
	assert.True(t, IsConfigError(NewConfigError("X", "y", nil)))
}

func TestViolationParser(t *testing.T) {
	output := `# example.com/app
./featureguard_tls_01.go:7:16: cannot use "The ` + "`rustls` and `nativetls`" + ` features are mutually exclusive and cannot be enabled at the same time!" (untyped string constant) as uint value in constant declaration
./featureguard_alloc_02.go:7:16: cannot use "You must enable exactly one of ` + "`jemalloc`, `mimalloc`, `system`" + ` features!" (untyped string constant) as uint value in constant declaration
./main.go:3:2: undefined: foo
`

	violations := NewViolationParser().Parse(output)
	require.Len(t, violations, 2)

	conflict := violations[0]
	assert.Equal(t, ViolationConflict, conflict.Kind)
	assert.Equal(t, "./featureguard_tls_01.go", conflict.File)
	assert.Equal(t, 7, conflict.Line)
	assert.Equal(t, 16, conflict.Column)
	assert.Equal(t, []string{"rustls", "nativetls"}, conflict.Flags)
	assert.Equal(t, "./featureguard_tls_01.go:7:16", conflict.Location())
	assert.Equal(t,
		"The `rustls` and `nativetls` features are mutually exclusive and cannot be enabled at the same time!",
		conflict.Message)

	coverage := violations[1]
	assert.Equal(t, ViolationCoverage, coverage.Kind)
	assert.Equal(t, []string{"jemalloc", "mimalloc", "system"}, coverage.Flags)
}

func TestViolationParserBareMessages(t *testing.T) {
	output := "You must enable exactly one of `solo` features!\nsomething else\n"

	violations := NewViolationParser().Parse(output)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationCoverage, violations[0].Kind)
	assert.Equal(t, []string{"solo"}, violations[0].Flags)
	assert.Empty(t, violations[0].Location())
}

func TestViolationParserShortenedConstantValue(t *testing.T) {
	line := "x.go:5:16: cannot use \"The `a` and `b` features are mutually exclusive and cannot be enabled at the same time!\" " +
		"(untyped string constant \"The `a` and `b` features are mutually exclusive and cannot be en...) as uint value in constant declaration"

	violations := NewViolationParser().Parse(line)
	require.Len(t, violations, 1)
	assert.Equal(t, []string{"a", "b"}, violations[0].Flags)
}

func TestViolationParserIgnoresOtherErrors(t *testing.T) {
	output := `./a.go:1:1: cannot use "hello" (untyped string constant) as uint value in constant declaration`

	assert.Empty(t, NewViolationParser().Parse(output))
	assert.Empty(t, NewViolationParser().Parse(""))
}

func TestViolationKindString(t *testing.T) {
	assert.Equal(t, "conflict", ViolationConflict.String())
	assert.Equal(t, "coverage", ViolationCoverage.String())
	assert.Equal(t, "unknown", ViolationUnknown.String())
}
