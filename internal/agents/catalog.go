package agents

import (
	"slices"
	"strings"
)

// catalog is the static profile table. Keep it sorted by ID; detection and
// listing preserve this order so output is deterministic.
var catalog = []Profile{
	{
		ID:          "5ire",
		DisplayName: "5ire",
		Format:      FormatJSON,
		NestKey:     "servers",
		GlobalPath:  "~/.5ire/mcp.json",
	},
	{
		ID:          "amazon-q",
		DisplayName: "Amazon Q Developer",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.aws/amazonq/mcp.json",
		ProjectPath: ".amazonq/mcp.json",
	},
	{
		ID:          "boltai",
		DisplayName: "BoltAI",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.boltai/mcp.json",
	},
	{
		ID:          "cherry-studio",
		DisplayName: "Cherry Studio",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.cherrystudio/mcp.json",
	},
	{
		ID:          "claude-code",
		DisplayName: "Claude Code",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.claude.json",
		ProjectPath: ".mcp.json",
		DetectPaths: []string{"~/.claude", "~/.claude.json"},
	},
	{
		ID:          "claude-desktop",
		DisplayName: "Claude Desktop",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/Library/Application Support/Claude/claude_desktop_config.json",
	},
	{
		ID:          "cline",
		DisplayName: "Cline",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/Library/Application Support/Code/User/globalStorage/saoudrizwan.claude-dev/settings/cline_mcp_settings.json",
	},
	{
		ID:          "codex",
		DisplayName: "Codex CLI",
		Format:      FormatTOML,
		NestKey:     "mcp_servers",
		GlobalPath:  "~/.codex/config.toml",
		DetectPaths: []string{"~/.codex"},
	},
	{
		ID:          "continue",
		DisplayName: "Continue",
		Format:      FormatYAML,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.continue/config.yaml",
		DetectPaths: []string{"~/.continue"},
	},
	{
		ID:          "cursor",
		DisplayName: "Cursor",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.cursor/mcp.json",
		ProjectPath: ".cursor/mcp.json",
		DetectPaths: []string{"~/.cursor"},
	},
	{
		ID:          "enconvo",
		DisplayName: "Enconvo",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.config/enconvo/mcp_config.json",
		Quirks:      Quirks{CommandIsArray: true},
	},
	{
		ID:          "gemini-cli",
		DisplayName: "Gemini CLI",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.gemini/settings.json",
		ProjectPath: ".gemini/settings.json",
		DetectPaths: []string{"~/.gemini"},
	},
	{
		ID:          "jetbrains",
		DisplayName: "JetBrains AI Assistant",
		Format:      FormatXML,
		GlobalPath:  "~/.config/JetBrains/mcp/mcp.xml",
	},
	{
		ID:          "librechat",
		DisplayName: "LibreChat",
		Format:      FormatYAML,
		NestKey:     "mcpServers",
		GlobalPath:  "~/librechat.yaml",
	},
	{
		ID:          "mcphub",
		DisplayName: "mcphub.nvim",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.config/mcphub/servers.json",
	},
	{
		ID:          "opencode",
		DisplayName: "OpenCode",
		Format:      FormatJSON,
		NestKey:     "mcp",
		GlobalPath:  "~/.config/opencode/opencode.json",
		ProjectPath: "opencode.json",
	},
	{
		ID:          "roo-code",
		DisplayName: "Roo Code",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/Library/Application Support/Code/User/globalStorage/rooveterinaryinc.roo-cline/settings/mcp_settings.json",
	},
	{
		ID:          "trae",
		DisplayName: "Trae",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.trae/mcp.json",
	},
	{
		ID:          "vscode",
		DisplayName: "VS Code",
		Format:      FormatJSON,
		NestKey:     "mcp.servers",
		GlobalPath:  "~/Library/Application Support/Code/User/settings.json",
		ProjectPath: ".vscode/mcp.json",
	},
	{
		ID:          "windsurf",
		DisplayName: "Windsurf",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/.codeium/windsurf/mcp_config.json",
		DetectPaths: []string{"~/.codeium/windsurf"},
		Quirks:      Quirks{URLKeyServerURL: true},
	},
	{
		ID:          "witsy",
		DisplayName: "Witsy",
		Format:      FormatJSON,
		NestKey:     "mcpServers",
		GlobalPath:  "~/Library/Application Support/Witsy/settings.json",
		Quirks:      Quirks{CommandIsArray: true, EnvKeyEnvironment: true},
	},
	{
		ID:          "zed",
		DisplayName: "Zed",
		Format:      FormatJSON,
		NestKey:     "context_servers",
		GlobalPath:  "~/.config/zed/settings.json",
		DetectPaths: []string{"~/.config/zed"},
	},
}

// All returns a copy of every profile in the catalog.
func All() []Profile {
	return slices.Clone(catalog)
}

// Get returns the profile with the given ID.
func Get(id string) (Profile, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Valid reports whether id names a cataloged agent.
func Valid(id string) bool {
	_, ok := Get(id)
	return ok
}

// IDs returns every agent identifier in catalog order.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, p := range catalog {
		ids[i] = p.ID
	}
	return ids
}

// DetectInstalled returns the profiles whose install probes succeed on
// this machine, in catalog order.
func DetectInstalled() []Profile {
	var found []Profile
	for _, p := range catalog {
		if p.Installed() {
			found = append(found, p)
		}
	}
	return found
}

// NestKeys returns the distinct nesting keys used across the catalog, in
// catalog order. The config normalizer keeps its own priority-ordered
// wrapper-key alias list; a test asserts the two sets stay in lockstep.
func NestKeys() []string {
	var keys []string
	for _, p := range catalog {
		if p.NestKey == "" {
			continue
		}
		if !slices.Contains(keys, p.NestKey) {
			keys = append(keys, p.NestKey)
		}
	}
	return keys
}

// Summary formats the catalog IDs for help text.
func Summary() string {
	return strings.Join(IDs(), ", ")
}
