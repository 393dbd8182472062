package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/server"
)

func tomlProfile() agents.Profile {
	return agents.Profile{
		ID:          "test-toml",
		DisplayName: "Test TOML",
		Format:      agents.FormatTOML,
		NestKey:     "mcp_servers",
		GlobalPath:  "~/.test/config.toml",
	}
}

func TestTOML_ReadMissingFile(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, tomlProfile(), filepath.Join(t.TempDir(), "absent.toml"))
	cfg := p.Read()
	assert.Empty(t, cfg.Servers)
	assert.Equal(t, StateAbsent, cfg.State)
}

func TestTOML_Read(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `model = "o3"

[mcp_servers.gh]
command = "npx"
args = ["-y", "pkg"]

[mcp_servers.gh.env]
TOKEN = "abc"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, tomlProfile(), path)
	cfg := p.Read()

	require.Contains(t, cfg.Servers, "gh")
	gh := cfg.Servers["gh"]
	assert.Equal(t, "npx", gh.Command)
	assert.Equal(t, []string{"-y", "pkg"}, gh.Args)
	assert.Equal(t, "abc", gh.Env["TOKEN"].String())
}

func TestTOML_WritePreservesForeignSections(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `model = "o3"
approval_policy = "never"

[profile]
name = "work"
sandbox = true

[mcp_servers.old]
command = "old-cmd"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, tomlProfile(), path)
	require.NoError(t, p.Write(map[string]*server.Server{
		"mcpm_gh": {Name: "gh", Command: "npx"},
	}, DefaultWriteOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	// Foreign lines are carried over byte for byte, not re-marshaled.
	assert.Contains(t, text, `model = "o3"`)
	assert.Contains(t, text, "[profile]\nname = \"work\"\nsandbox = true")

	var doc map[string]any
	require.NoError(t, toml.Unmarshal(data, &doc))
	servers := doc["mcp_servers"].(map[string]any)
	assert.Contains(t, servers, "old")
	assert.Contains(t, servers, "mcpm_gh")
}

func TestTOML_ForeignSectionsSurviveFullCycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[profile]
name = "work"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, tomlProfile(), path)

	// Add, update, then remove a connector. The user's section must be
	// intact afterward.
	require.NoError(t, p.Write(map[string]*server.Server{
		"mcpm_gh": {Name: "gh", Command: "npx"},
	}, DefaultWriteOptions()))
	require.NoError(t, p.Write(map[string]*server.Server{
		"mcpm_gh": {Name: "gh", Command: "npx", Args: []string{"-y"}},
	}, DefaultWriteOptions()))
	require.NoError(t, p.RemoveServers([]string{"mcpm_gh"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[profile]\nname = \"work\"")
	assert.Empty(t, p.Read().Servers)
}

func TestTOML_WriteDropsNullEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	p := newTestParser(t, tomlProfile(), path)

	require.NoError(t, p.Write(map[string]*server.Server{
		"gh": {Name: "gh", Command: "npx", Env: map[string]server.Value{
			"SET":     server.NewLiteral("x"),
			"PENDING": server.NewNull(),
		}},
	}, DefaultWriteOptions()))

	cfg := p.Read()
	require.Contains(t, cfg.Servers, "gh")
	env := cfg.Servers["gh"].Env
	assert.Contains(t, env, "SET")
	// TOML cannot express null, so the pending value is absent.
	assert.NotContains(t, env, "PENDING")
}

func TestTOML_RemoveServersMissingFile(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, tomlProfile(), filepath.Join(t.TempDir(), "absent.toml"))
	assert.NoError(t, p.RemoveServers([]string{"gh"}))
}

func TestTOML_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	p := newTestParser(t, tomlProfile(), path)

	want := map[string]*server.Server{
		"gh":  {Name: "gh", Command: "npx", Args: []string{"-y", "pkg"}},
		"api": {Name: "api", URL: "https://x/mcp", Transport: server.TransportHTTP},
	}
	require.NoError(t, p.Write(want, DefaultWriteOptions()))

	got := p.Read()
	require.Len(t, got.Servers, 2)
	for name, w := range want {
		assert.True(t, w.Equal(got.Servers[name]), "server %s", name)
	}
}
