// Package naming implements the managed-name prefix scheme that marks
// connector entries inside agent config files as owned by mcpm.
//
// A registry server named "github" installs into a snake_case agent as
// "mcpm_github" and into a camelCase agent as "mcpmGithub". The prefix is
// the single mechanism separating tool-managed entries from user-authored
// ones: entries without it are never imported back as managed and never
// overwritten implicitly.
package naming

import (
	"strings"
	"unicode"
)

// SnakePrefix marks managed entries in snake_case agents.
const SnakePrefix = "mcpm_"

// CamelPrefix marks managed entries in camelCase agents.
const CamelPrefix = "mcpm"

// camelCaseAgents lists agent IDs whose configs use camelCase entry names.
// Currently empty; the set exists so a future agent only needs a line here.
var camelCaseAgents = map[string]bool{}

// IsCamelCaseAgent reports whether the agent's installed names use the
// camelCase prefix form.
func IsCamelCaseAgent(agentID string) bool {
	return camelCaseAgents[agentID]
}

// Sanitize maps name onto the safe charset [A-Za-z0-9_-]: every other rune
// becomes "_", runs of "_" collapse, and leading/trailing "_" are trimmed.
// Sanitize is idempotent.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevUnderscore := false
	for _, r := range name {
		safe := r == '-' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if safe {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}

// AddPrefix converts a clean registry name into the installed name for the
// given agent.
func AddPrefix(cleanName, agentID string) string {
	clean := Sanitize(cleanName)
	if IsCamelCaseAgent(agentID) {
		return CamelPrefix + capitalize(clean)
	}
	return SnakePrefix + clean
}

// RemovePrefix recovers the clean name from an installed name. Names
// without a managed prefix pass through unchanged; they belong to the user.
func RemovePrefix(installedName string) string {
	if rest, ok := strings.CutPrefix(installedName, SnakePrefix); ok {
		return rest
	}
	// Camel form: "mcpmGithub" -> "github". Require an upper-case rune
	// after the prefix so arbitrary "mcpm..." user names survive.
	if rest, ok := strings.CutPrefix(installedName, CamelPrefix); ok {
		if rest != "" && unicode.IsUpper(rune(rest[0])) {
			return decapitalize(rest)
		}
	}
	return installedName
}

// HasPrefix reports whether the installed name is managed by mcpm.
func HasPrefix(installedName string) bool {
	return RemovePrefix(installedName) != installedName
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func decapitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
