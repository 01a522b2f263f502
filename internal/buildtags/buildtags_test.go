package buildtags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{"a b", []string{"a", "b"}},
		{" a, b ,c,", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromGOFLAGS(t *testing.T) {
	assert.Equal(t, []string{"rustls", "netgo"}, FromGOFLAGS("-mod=mod -tags=rustls,netgo -trimpath"))
	assert.Equal(t, []string{"b"}, FromGOFLAGS("-tags=a --tags=b"))
	assert.Empty(t, FromGOFLAGS("-mod=vendor"))
	assert.Empty(t, FromGOFLAGS(""))
}

func TestIsValid(t *testing.T) {
	for _, tag := range []string{"feature1", "go1.21", "with_tls", "ß"} {
		assert.True(t, IsValid(tag), tag)
	}
	for _, tag := range []string{"", "with-tls", "a b", "!x", "a&&b"} {
		assert.False(t, IsValid(tag), tag)
	}

	require.NoError(t, Validate([]string{"a", "b"}))
	assert.ErrorContains(t, Validate([]string{"a", "b-c"}), `"b-c"`)
}

func TestEnvironment(t *testing.T) {
	env := NewEnvironment([]string{"a,b", "c"}, "-tags=d -trimpath")

	assert.Equal(t, []string{"a", "b", "c", "d"}, env.Tags())
	assert.True(t, env.Enabled("d"))
	assert.False(t, env.Enabled("e"))

	enabled := env.Predicate()
	assert.True(t, enabled("a"))
	assert.False(t, enabled("z"))
}
