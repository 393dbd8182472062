// Package engine orchestrates parsers, naming, the registry, and the
// vault: pushing canonical servers into agent configs, pulling agent
// entries back into the registry, and diffing the two directions.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/agents"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/naming"
	"github.com/mcpm-dev/mcpm/internal/parser"
	"github.com/mcpm-dev/mcpm/internal/registry"
	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/internal/vault"
)

// ConflictStrategy says what sync does when a target agent already has an
// entry under a server's clean or prefixed name.
type ConflictStrategy string

const (
	// StrategySkip leaves the existing entry and reports the server as
	// skipped.
	StrategySkip ConflictStrategy = "skip"
	// StrategyReplace overwrites the managed entry.
	StrategyReplace ConflictStrategy = "replace"
	// StrategySuffix appends _2, _3, ... to the name until it is free.
	StrategySuffix ConflictStrategy = "suffix"
)

// ParserFactory builds the parser for a profile. Tests substitute one
// that points at temp files.
type ParserFactory func(p agents.Profile) (parser.Parser, error)

// Engine wires the sync, import, and drift flows together.
type Engine struct {
	vault     *vault.Vault
	log       *slog.Logger
	newParser ParserFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithVault overrides the credential vault.
func WithVault(v *vault.Vault) Option {
	return func(e *Engine) { e.vault = v }
}

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithParserFactory overrides how agent parsers are constructed.
func WithParserFactory(f ParserFactory) Option {
	return func(e *Engine) { e.newParser = f }
}

// New returns an Engine with default collaborators.
func New(opts ...Option) *Engine {
	e := &Engine{
		vault: vault.New(),
		log:   slog.Default(),
		newParser: func(p agents.Profile) (parser.Parser, error) {
			return parser.New(p, p.ConfigFile())
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncOptions controls one sync call.
type SyncOptions struct {
	// Strategy resolves name conflicts in the target agent.
	Strategy ConflictStrategy

	// DryRun computes the report without touching any file.
	DryRun bool
}

// AgentSyncResult is one agent's share of a sync report.
type AgentSyncResult struct {
	AgentID string
	Path    string

	// Synced maps clean registry names to the installed names written.
	Synced map[string]string

	// Skipped lists clean names left alone because of a conflict.
	Skipped []string

	// Err is the agent-level failure, if the write failed. Sibling
	// agents proceed regardless.
	Err error
}

// SyncReport collects per-agent results. Failures never abort the batch.
type SyncReport struct {
	Agents []AgentSyncResult
}

// Failed returns the agent results that errored.
func (r *SyncReport) Failed() []AgentSyncResult {
	var failed []AgentSyncResult
	for _, a := range r.Agents {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}

// SyncedCount returns the total entries written across agents.
func (r *SyncReport) SyncedCount() int {
	n := 0
	for _, a := range r.Agents {
		n += len(a.Synced)
	}
	return n
}

// Sync pushes the named registry servers into each agent's config file.
// Vault references are resolved at this moment and only for the written
// copy; the registry keeps references. Successfully synced servers get
// their LastSyncedAt stamped on doc; the caller saves the registry.
func (e *Engine) Sync(doc *registry.Document, serverNames, agentIDs []string, opts SyncOptions) *SyncReport {
	if opts.Strategy == "" {
		opts.Strategy = StrategySkip
	}

	report := &SyncReport{}
	for _, agentID := range agentIDs {
		result := e.syncAgent(doc, serverNames, agentID, opts)
		report.Agents = append(report.Agents, result)
	}
	return report
}

func (e *Engine) syncAgent(doc *registry.Document, serverNames []string, agentID string, opts SyncOptions) AgentSyncResult {
	result := AgentSyncResult{AgentID: agentID, Synced: make(map[string]string)}

	profile, ok := agents.Get(agentID)
	if !ok {
		result.Err = errors.Wrapf(mcperrors.ErrAgentNotFound, "%s", agentID)
		return result
	}

	p, err := e.newParser(profile)
	if err != nil {
		result.Err = err
		return result
	}
	result.Path = p.Path()

	installed := make(map[string]bool)
	for _, name := range p.InstalledServerNames() {
		installed[name] = true
	}

	records := make(map[string]*server.Server)
	for _, name := range serverNames {
		entry := doc.Get(name)
		if entry == nil {
			result.Err = errors.Wrapf(mcperrors.ErrServerNotFound, "%s", name)
			return result
		}

		target, skip := resolveTarget(name, agentID, installed, opts.Strategy)
		if skip {
			result.Skipped = append(result.Skipped, name)
			e.log.Debug("sync skipped on conflict", "agent", agentID, "server", name)
			continue
		}

		resolved := e.vault.ResolveServer(&entry.Server)
		records[target] = resolved
		installed[target] = true
		result.Synced[name] = target
	}

	if opts.DryRun || len(records) == 0 {
		return result
	}

	if err := p.Write(records, parser.DefaultWriteOptions()); err != nil {
		result.Err = errors.Wrapf(err, "writing %s config", agentID)
		result.Synced = make(map[string]string)
		return result
	}

	now := time.Now()
	for name := range result.Synced {
		doc.MarkSynced(name, now)
	}
	e.log.Info("synced servers", "agent", agentID, "count", len(result.Synced))
	return result
}

// resolveTarget picks the installed name for a server, applying the
// conflict strategy. A conflict exists when the agent file already has an
// entry under the clean name or the prefixed name.
func resolveTarget(name, agentID string, installed map[string]bool, strategy ConflictStrategy) (target string, skip bool) {
	prefixed := naming.AddPrefix(name, agentID)
	if !installed[name] && !installed[prefixed] {
		return prefixed, false
	}

	switch strategy {
	case StrategyReplace:
		return prefixed, false
	case StrategySuffix:
		for i := 2; ; i++ {
			candidate := fmt.Sprintf("%s_%d", name, i)
			prefixedCandidate := naming.AddPrefix(candidate, agentID)
			if !installed[candidate] && !installed[prefixedCandidate] {
				return prefixedCandidate, false
			}
		}
	default:
		return "", true
	}
}

// CheckDuplicates reports which of the named servers already have an
// entry, clean or prefixed, in the agent's config file. It is a read-only
// pre-sync warning; I/O problems read as "no duplicates".
func (e *Engine) CheckDuplicates(doc *registry.Document, serverNames []string, agentID string) []string {
	profile, ok := agents.Get(agentID)
	if !ok {
		return nil
	}
	p, err := e.newParser(profile)
	if err != nil {
		return nil
	}

	installed := make(map[string]bool)
	for _, name := range p.InstalledServerNames() {
		installed[name] = true
	}

	var dupes []string
	for _, name := range serverNames {
		if installed[name] || installed[naming.AddPrefix(name, agentID)] {
			dupes = append(dupes, name)
		}
	}
	return dupes
}

// RemoveServer deletes a server everywhere: each agent's config file, the
// stored credentials, and the registry document. Agent-file cleanup is
// best-effort. The caller saves the registry.
func (e *Engine) RemoveServer(doc *registry.Document, name string, agentIDs []string) error {
	entry := doc.Get(name)
	if entry == nil {
		return errors.Wrapf(mcperrors.ErrServerNotFound, "%s", name)
	}

	for _, agentID := range agentIDs {
		profile, ok := agents.Get(agentID)
		if !ok {
			continue
		}
		p, err := e.newParser(profile)
		if err != nil {
			continue
		}
		names := []string{naming.AddPrefix(name, agentID), name}
		if err := p.RemoveServers(names); err != nil {
			e.log.Warn("could not clean agent config", "agent", agentID, "error", err)
		}
	}

	e.vault.DeleteServer(&entry.Server)
	doc.Remove(name)
	return nil
}
