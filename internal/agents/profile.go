// Package agents holds the static catalog of supported client applications:
// where each one keeps its connector configuration, in which format, under
// which nesting key, and with which record-shape quirks.
//
// The catalog is the single source of truth consumed by the format parsers
// and the sync engine; nothing else in the tree special-cases an agent by
// identifier.
package agents

import (
	"os"
	"path/filepath"

	"github.com/mcpm-dev/mcpm/internal/paths"
)

// Format tags the on-disk file format of an agent's config.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatXML  Format = "xml"
)

// Quirks describes per-agent deviations from the common record shape.
// They are consumed by one shared normalization routine; adding an agent
// with an odd shape means setting flags here, not branching elsewhere.
type Quirks struct {
	// CommandIsArray means the command field is an array whose head is the
	// executable and whose tail is the argument list.
	CommandIsArray bool

	// EnvKeyEnvironment means the env map is stored under "environment".
	EnvKeyEnvironment bool

	// URLKeyServerURL means the url field is stored under "serverUrl".
	URLKeyServerURL bool
}

// Profile describes one supported agent. Profiles are immutable; the
// catalog hands out copies.
type Profile struct {
	// ID is the unique identifier used in flags, results, and the
	// registry's importedFrom field.
	ID string

	// DisplayName is the human-readable agent name.
	DisplayName string

	// Format is the config file format.
	Format Format

	// NestKey is the field under which the agent nests its connector map.
	// Dotted keys ("mcp.servers") descend through nested objects. Empty
	// means the whole document is the connector list (XML fixed shape).
	NestKey string

	// GlobalPath is the agent's user-level config file, "~"-relative.
	GlobalPath string

	// ProjectPath is the optional project-scoped config file, relative to
	// a project root. Empty when the agent has no project-level config.
	ProjectPath string

	// DetectPaths are probed (after "~" expansion) to decide whether the
	// agent is installed. Empty falls back to the config file's directory.
	DetectPaths []string

	// Quirks are the agent's record-shape deviations.
	Quirks Quirks
}

// ConfigFile returns the expanded user-level config path.
func (p Profile) ConfigFile() string {
	return paths.Expand(p.GlobalPath)
}

// ProjectConfigFile returns the project-scoped config path under root.
// The second return value is false when the agent has no project config.
func (p Profile) ProjectConfigFile(root string) (string, bool) {
	if p.ProjectPath == "" {
		return "", false
	}
	return filepath.Join(root, p.ProjectPath), true
}

// Installed reports whether the agent appears to be present on this
// machine, probing DetectPaths or the config file's directory.
func (p Profile) Installed() bool {
	probes := p.DetectPaths
	if len(probes) == 0 {
		probes = []string{filepath.Dir(p.GlobalPath)}
	}
	for _, probe := range probes {
		if _, err := os.Stat(paths.Expand(probe)); err == nil {
			return true
		}
	}
	return false
}
