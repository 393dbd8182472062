package engine

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/agents"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/naming"
	"github.com/mcpm-dev/mcpm/internal/registry"
	"github.com/mcpm-dev/mcpm/internal/server"
)

// ImportStrategy resolves clean-name collisions between an import
// candidate and an existing registry entry.
type ImportStrategy string

const (
	// ImportSkip keeps the registry entry and drops the candidate.
	ImportSkip ImportStrategy = "skip"
	// ImportReplace overwrites the registry entry.
	ImportReplace ImportStrategy = "replace"
	// ImportRename stores the candidate under its RenameTo name.
	ImportRename ImportStrategy = "rename"
)

// Candidate is one importable connector discovered in agent config files.
type Candidate struct {
	// Name is the clean registry name the entry would be stored under.
	Name string

	// Agents lists every agent the name was found in, discovery order.
	Agents []string

	// Server is the record shape from the first agent that had it.
	Server *server.Server

	// RenameTo is the caller-chosen replacement name, used only with
	// ImportRename when Name collides with the registry.
	RenameTo string
}

// DiscoverImports scans the given agents for foreign connector entries.
// Entries carrying the managed prefix are already canonical and are
// dropped. The same name across several agents becomes one candidate
// keeping the first agent's record shape. Unreadable agents read as
// empty; discovery is advisory.
func (e *Engine) DiscoverImports(agentIDs []string) []Candidate {
	byName := make(map[string]*Candidate)
	var order []string

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
		names := make([]string, 0, len(cfg.Servers))
		for name := range cfg.Servers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if naming.HasPrefix(name) {
				continue
			}
			if existing, ok := byName[name]; ok {
				existing.Agents = append(existing.Agents, agentID)
				continue
			}
			byName[name] = &Candidate{
				Name:   name,
				Agents: []string{agentID},
				Server: cfg.Servers[name].Clone(),
			}
			order = append(order, name)
		}
	}

	candidates := make([]Candidate, 0, len(order))
	for _, name := range order {
		candidates = append(candidates, *byName[name])
	}
	return candidates
}

// ImportResult reports how one candidate landed.
type ImportResult struct {
	// Name is the registry name the candidate was stored under, which
	// differs from the candidate name after a rename.
	Name string

	// Candidate is the original clean name.
	Candidate string

	// Skipped is true when a collision plus ImportSkip dropped the
	// candidate.
	Skipped bool
}

// Import adds the chosen candidates to the registry document, applying
// strategy to collisions with existing entries. Renames are validated
// against both the registry and the other names landing in this batch.
// The caller saves the registry.
func (e *Engine) Import(doc *registry.Document, candidates []Candidate, strategy ImportStrategy) ([]ImportResult, error) {
	if strategy == "" {
		strategy = ImportSkip
	}

	// Validate the whole batch before mutating anything.
	taken := make(map[string]bool)
	for _, c := range candidates {
		target := c.Name
		if doc.Get(c.Name) != nil {
			if strategy == ImportSkip {
				continue
			}
			if strategy == ImportRename {
				if c.RenameTo == "" {
					return nil, errors.Newf("candidate %q needs a rename target", c.Name)
				}
				target = naming.Sanitize(c.RenameTo)
				if doc.Get(target) != nil {
					return nil, errors.Wrapf(mcperrors.ErrNameConflict, "%s", target)
				}
			}
		}
		if taken[target] {
			return nil, errors.Wrapf(mcperrors.ErrNameConflict, "%s chosen twice in this import", target)
		}
		taken[target] = true
	}

	var results []ImportResult
	for _, c := range candidates {
		target := c.Name
		if doc.Get(c.Name) != nil {
			switch strategy {
			case ImportSkip:
				results = append(results, ImportResult{Name: c.Name, Candidate: c.Name, Skipped: true})
				continue
			case ImportRename:
				target = naming.Sanitize(c.RenameTo)
			}
		}

		s := c.Server.Clone()
		s.Name = target
		doc.Add(s, c.Agents[0])
		results = append(results, ImportResult{Name: target, Candidate: c.Name})
		e.log.Info("imported server", "name", target, "from", c.Agents[0])
	}
	return results, nil
}
