package engine

import (
	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/naming"
	"github.com/mcpm-dev/mcpm/internal/registry"
)

// DriftResult flags one managed entry whose on-disk form no longer
// matches what sync would write.
type DriftResult struct {
	AgentID string

	// Server is the clean registry name.
	Server string

	// Installed is the prefixed name found in the agent file.
	Installed string
}

// Drift compares each registry server against each agent's installed
// copy. An entry drifts when it exists under the prefixed name and its
// content differs from the vault-resolved registry definition. Read-only:
// unreadable agents contribute nothing, and foreign entries are never
// inspected.
func (e *Engine) Drift(doc *registry.Document, agentIDs []string) []DriftResult {
	var drifted []DriftResult

	for _, agentID := range agentIDs {
		profile, ok := agents.Get(agentID)
		if !ok {
			continue
		}
		p, err := e.newParser(profile)
		if err != nil {
			continue
		}
		cfg := p.Read()

		for _, name := range doc.Names() {
			prefixed := naming.AddPrefix(name, agentID)
			installed, ok := cfg.Servers[prefixed]
			if !ok {
				continue
			}

			want := e.vault.ResolveServer(&doc.Get(name).Server)
			if !want.Equal(installed) {
				drifted = append(drifted, DriftResult{
					AgentID:   agentID,
					Server:    name,
					Installed: prefixed,
				})
			}
		}
	}
	return drifted
}
