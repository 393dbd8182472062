package commands

import (
	"path/filepath"
	"testing"

	"github.com/mcpm-dev/mcpm/internal/config"
	"github.com/mcpm-dev/mcpm/internal/registry"
	"github.com/mcpm-dev/mcpm/internal/server"
)

// seedCatalog writes a registry with the given servers to a temp path and
// points the command layer at it. Restores the previous settings on cleanup.
func seedCatalog(t *testing.T, servers ...*server.Server) *registry.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registry.json")
	store := registry.NewStore(path)
	doc := registry.NewDocument()
	for _, s := range servers {
		doc.Add(s, "")
	}
	if err := store.Save(doc); err != nil {
		t.Fatalf("seeding registry: %v", err)
	}

	prev := settings
	settings = &config.Config{RegistryPath: path}
	t.Cleanup(func() { settings = prev })

	return store
}

func TestParseKeyValueSlice(t *testing.T) {
	m, err := parseKeyValueSlice([]string{"FOO=bar", "EMPTY=", "EQ=a=b"}, "--env")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["FOO"] != "bar" {
		t.Errorf("FOO = %q, want %q", m["FOO"], "bar")
	}
	if m["EMPTY"] != "" {
		t.Errorf("EMPTY = %q, want empty", m["EMPTY"])
	}
	if m["EQ"] != "a=b" {
		t.Errorf("EQ = %q, want %q", m["EQ"], "a=b")
	}
}

func TestParseKeyValueSlice_Malformed(t *testing.T) {
	for _, bad := range []string{"novalue", "=bar"} {
		if _, err := parseKeyValueSlice([]string{bad}, "--env"); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  server.Value
		want string
	}{
		{"ref shows grammar", "GITHUB_TOKEN", server.NewRef(server.VaultRef{Server: "github", Key: "GITHUB_TOKEN"}), "keychain:github.GITHUB_TOKEN"},
		{"secret masked to tail", "API_TOKEN", server.NewLiteral("abcdefgh1234"), "****1234"},
		{"short secret fully masked", "API_TOKEN", server.NewLiteral("abc"), "********"},
		{"plain value shown", "PORT", server.NewLiteral("8080"), "8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskValue(tt.key, tt.val); got != tt.want {
				t.Errorf("maskValue(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestMaskValue_Null(t *testing.T) {
	got := maskValue("PENDING", server.NewNull())
	if got != colorGray+"(not set)"+colorReset {
		t.Errorf("null value = %q, want placeholder", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghij", 7); got != "abcd..." {
		t.Errorf("truncate = %q, want %q", got, "abcd...")
	}
}

func TestEndpoint(t *testing.T) {
	local := &server.Server{Name: "gh", Command: "npx", Args: []string{"-y", "server-github"}}
	if got := endpoint(local); got != "npx -y server-github" {
		t.Errorf("local endpoint = %q", got)
	}

	remote := &server.Server{Name: "api", URL: "https://mcp.example.com/sse"}
	if got := endpoint(remote); got != "https://mcp.example.com/sse" {
		t.Errorf("remote endpoint = %q", got)
	}
}
