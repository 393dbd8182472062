package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailscale/hujson"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/backup"
	"github.com/mcpm-dev/mcpm/internal/server"
)

// newTestParser builds a parser over a temp path with backups kept inside
// the test directory.
func newTestParser(t *testing.T, profile agents.Profile, path string) Parser {
	t.Helper()
	mgr := backup.NewManager(backup.WithDir(filepath.Join(t.TempDir(), "backups")))
	p, err := New(profile, path, WithBackupManager(mgr))
	require.NoError(t, err)
	return p
}

func jsonProfile(nestKey string, quirks agents.Quirks) agents.Profile {
	return agents.Profile{
		ID:          "test-json",
		DisplayName: "Test JSON",
		Format:      agents.FormatJSON,
		NestKey:     nestKey,
		GlobalPath:  "~/.test/mcp.json",
		Quirks:      quirks,
	}
}

func TestJSON_ReadMissingFile(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), filepath.Join(t.TempDir(), "absent.json"))

	assert.False(t, p.Exists())
	cfg := p.Read()
	assert.Empty(t, cfg.Servers)
	assert.Equal(t, StateAbsent, cfg.State)
}

func TestJSON_ReadCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)
	cfg := p.Read()
	assert.Empty(t, cfg.Servers)
	assert.Equal(t, StateInvalid, cfg.State)
}

func TestJSON_ReadArrayCommandQuirk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcp.json")
	content := `{"mcpServers":{"gh":{"command":["npx","-y","pkg"],"environment":{"T":"x"}}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{CommandIsArray: true, EnvKeyEnvironment: true}), path)
	cfg := p.Read()

	require.Contains(t, cfg.Servers, "gh")
	gh := cfg.Servers["gh"]
	assert.Equal(t, "npx", gh.Command)
	assert.Equal(t, []string{"-y", "pkg"}, gh.Args)
	assert.Equal(t, "x", gh.Env["T"].String())
}

func TestJSON_ReadToleratesComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.jsonc")
	content := `{
  // user's own comment
  "mcpServers": {
    "gh": {"command": "npx"},
  },
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)
	cfg := p.Read()
	assert.Contains(t, cfg.Servers, "gh")
	assert.Equal(t, StateLoaded, cfg.State)
}

func TestJSON_WritePreservesForeignKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{"theme":"dark","mcpServers":{"figma":{"command":"figma-mcp"}},"telemetry":{"enabled":false}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)
	err := p.Write(map[string]*server.Server{
		"mcpm_github": {Name: "github", Command: "npx", Args: []string{"-y", "pkg"}},
	}, DefaultWriteOptions())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "dark", doc["theme"])
	assert.Equal(t, map[string]any{"enabled": false}, doc["telemetry"])

	servers := doc["mcpServers"].(map[string]any)
	// Merge keeps the existing entry and adds the new one.
	assert.Contains(t, servers, "figma")
	assert.Contains(t, servers, "mcpm_github")
}

func TestJSON_WriteReplaceMode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"old":{"command":"x"}}}`), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)
	opts := DefaultWriteOptions()
	opts.Merge = false
	require.NoError(t, p.Write(map[string]*server.Server{
		"fresh": {Name: "fresh", Command: "npx"},
	}, opts))

	cfg := p.Read()
	assert.NotContains(t, cfg.Servers, "old")
	assert.Contains(t, cfg.Servers, "fresh")
}

func TestJSON_WriteCreatesFileAndDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "mcp.json")
	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)

	require.NoError(t, p.Write(map[string]*server.Server{
		"gh": {Name: "gh", Command: "npx"},
	}, DefaultWriteOptions()))

	assert.True(t, p.Exists())
	assert.Contains(t, p.Read().Servers, "gh")
}

func TestJSON_WriteCreateIfMissingFalse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcp.json")
	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)

	opts := DefaultWriteOptions()
	opts.CreateIfMissing = false
	err := p.Write(map[string]*server.Server{"gh": {Name: "gh", Command: "npx"}}, opts)
	assert.Error(t, err)
}

func TestJSON_DottedNestKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{"editor":{"fontSize":14},"mcp":{"servers":{"gh":{"command":"npx"}}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcp.servers", agents.Quirks{}), path)
	cfg := p.Read()
	assert.Contains(t, cfg.Servers, "gh")

	require.NoError(t, p.Write(map[string]*server.Server{
		"api": {Name: "api", URL: "https://x/mcp"},
	}, DefaultWriteOptions()))

	var doc map[string]any
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(14), doc["editor"].(map[string]any)["fontSize"])

	servers := doc["mcp"].(map[string]any)["servers"].(map[string]any)
	assert.Contains(t, servers, "gh")
	assert.Contains(t, servers, "api")
}

func TestJSON_RemoveServers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcp.json")
	content := `{"mcpServers":{"a":{"command":"x"},"b":{"command":"y"}},"other":1}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)
	require.NoError(t, p.RemoveServers([]string{"a", "not-there"}))

	cfg := p.Read()
	assert.NotContains(t, cfg.Servers, "a")
	assert.Contains(t, cfg.Servers, "b")

	var doc map[string]any
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(1), doc["other"])
}

func TestJSON_RemoveServersMissingFile(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, p.RemoveServers([]string{"a"}))
}

func TestJSON_WriteBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{}}`), 0o644))

	backupDir := filepath.Join(dir, "backups")
	mgr := backup.NewManager(backup.WithDir(backupDir))
	p, err := New(jsonProfile("mcpServers", agents.Quirks{}), path, WithBackupManager(mgr))
	require.NoError(t, err)

	require.NoError(t, p.Write(map[string]*server.Server{
		"gh": {Name: "gh", Command: "npx"},
	}, DefaultWriteOptions()))

	backups, err := mgr.List("test-json")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestJSON_WritePreservesComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{
	// keep my editor fast
	"editor.minimap.enabled": false,
	"mcp": {
		"servers": {
			"figma": {"command": "figma-mcp"},
		},
	},
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcp.servers", agents.Quirks{}), path)
	require.NoError(t, p.Write(map[string]*server.Server{
		"mcpm_gh": {Name: "gh", Command: "npx", Args: []string{"-y", "pkg"}},
	}, DefaultWriteOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// keep my editor fast")

	std, err := hujson.Standardize(data)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(std, &doc))
	assert.Equal(t, false, doc["editor.minimap.enabled"])

	servers := doc["mcp"].(map[string]any)["servers"].(map[string]any)
	assert.Contains(t, servers, "figma")
	assert.Contains(t, servers, "mcpm_gh")
}

func TestJSON_RemovePreservesComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcp.json")
	content := `{
	// proxy for the office network
	"http.proxy": "http://proxy:8080",
	"mcpServers": {
		"mcpm_gh": {"command": "npx"},
		"figma": {"command": "figma-mcp"},
	},
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)
	require.NoError(t, p.RemoveServers([]string{"mcpm_gh"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// proxy for the office network")

	cfg := p.Read()
	assert.NotContains(t, cfg.Servers, "mcpm_gh")
	assert.Contains(t, cfg.Servers, "figma")
}

func TestJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcp.json")
	p := newTestParser(t, jsonProfile("mcpServers", agents.Quirks{}), path)

	want := map[string]*server.Server{
		"gh":  {Name: "gh", Command: "npx", Args: []string{"-y", "pkg"}, Env: map[string]server.Value{"T": server.NewLiteral("x")}},
		"api": {Name: "api", URL: "https://x/mcp", Transport: server.TransportSSE, Headers: map[string]server.Value{"Authorization": server.NewLiteral("Bearer t")}},
	}
	require.NoError(t, p.Write(want, DefaultWriteOptions()))

	got := p.Read()
	require.Len(t, got.Servers, 2)
	for name, w := range want {
		assert.True(t, w.Equal(got.Servers[name]), "server %s", name)
	}
}
