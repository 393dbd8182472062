package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "github-mcp", "github-mcp"},
		{"spaces", "my cool server", "my_cool_server"},
		{"unsafe runes", "a@b#c", "a_b_c"},
		{"collapses runs", "a!!!b", "a_b"},
		{"trims edges", "@server@", "server"},
		{"unicode", "café", "caf"},
		{"digits kept", "v2-api", "v2-api"},
		{"empty", "", ""},
		{"only unsafe", "@@@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"github", "my cool server", "@a!!b@", "", "_x_"} {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestAddPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mcpm_github", AddPrefix("github", "cursor"))
	assert.Equal(t, "mcpm_my_server", AddPrefix("my server", "zed"))
}

func TestRemovePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"snake prefixed", "mcpm_github", "github"},
		{"camel prefixed", "mcpmGithub", "github"},
		{"foreign name", "figma", "figma"},
		{"mcpm-ish user name", "mcpmserver", "mcpmserver"},
		{"bare prefix word", "mcpm", "mcpm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RemovePrefix(tt.in))
		})
	}
}

func TestRemovePrefix_InvertsAddPrefix(t *testing.T) {
	t.Parallel()

	// For names already in the safe charset, RemovePrefix(AddPrefix(x))
	// recovers Sanitize(x).
	for _, name := range []string{"github", "api-v2", "a_b", "x9"} {
		assert.Equal(t, Sanitize(name), RemovePrefix(AddPrefix(name, "cursor")))
	}
}

func TestHasPrefix(t *testing.T) {
	t.Parallel()

	assert.True(t, HasPrefix("mcpm_github"))
	assert.True(t, HasPrefix("mcpmGithub"))
	assert.False(t, HasPrefix("github"))
	assert.False(t, HasPrefix("mcpmlocal"))
}
