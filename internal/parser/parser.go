// Package parser reads and writes connector entries inside agent config
// files, one implementation per file format. All implementations share the
// same contract: reads are best-effort (a missing or corrupt file is "no
// connectors", never an error), writes touch only the configured nesting
// key and preserve the rest of the document.
package parser

import (
	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/backup"
	"github.com/mcpm-dev/mcpm/internal/server"
)

// LoadState records how a read resolved, so callers that care can tell an
// empty file apart from a missing or unparseable one. Most callers only
// observe the empty server map.
type LoadState int

const (
	// StateLoaded means the file existed and parsed.
	StateLoaded LoadState = iota
	// StateAbsent means the file does not exist.
	StateAbsent
	// StateInvalid means the file exists but could not be parsed or read.
	StateInvalid
)

// AgentConfig is a transient snapshot of one agent's on-disk state.
type AgentConfig struct {
	// AgentID identifies the profile the snapshot was read with.
	AgentID string

	// Path is the resolved config file path.
	Path string

	// Servers maps installed (possibly prefixed) names to normalized
	// records. Never nil.
	Servers map[string]*server.Server

	// State records how the read resolved.
	State LoadState
}

// WriteOptions controls a Write call.
type WriteOptions struct {
	// CreateIfMissing creates the file and its parent directories when
	// they do not exist.
	CreateIfMissing bool

	// Backup copies the existing file into the timestamped backup
	// location before mutating it. Backup failures never block the write.
	Backup bool

	// Merge unions the given records with the existing ones at the
	// nesting key, new entries overriding same-named old ones. False
	// replaces the whole nesting key.
	Merge bool
}

// DefaultWriteOptions returns the documented defaults: create, backup, merge.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{CreateIfMissing: true, Backup: true, Merge: true}
}

// Parser is the uniform read/write contract against one agent config file.
type Parser interface {
	// Path returns the file the parser operates on.
	Path() string

	// Exists reports whether the target file is present.
	Exists() bool

	// Read snapshots the file. It never fails: missing or corrupt files
	// yield an empty server map with State set accordingly.
	Read() *AgentConfig

	// Write installs records at the nesting key, preserving every part of
	// the document outside it.
	Write(records map[string]*server.Server, opts WriteOptions) error

	// InstalledServerNames lists the names present at the nesting key.
	InstalledServerNames() []string

	// RemoveServers deletes the named entries and rewrites the file.
	// An absent file is a silent no-op. Errors are advisory; removal is
	// cleanup, and callers continue their batch on failure.
	RemoveServers(names []string) error
}

// Option configures a parser.
type Option func(*base)

// WithBackupManager overrides the backup manager used before rewrites.
func WithBackupManager(m *backup.Manager) Option {
	return func(b *base) {
		b.backups = m
	}
}

// New returns the parser for the profile's format, operating on path.
// Pass profile.ConfigFile() for the user-level file or a project-scoped
// path from profile.ProjectConfigFile.
func New(profile agents.Profile, path string, opts ...Option) (Parser, error) {
	b := base{profile: profile, path: path}
	for _, opt := range opts {
		opt(&b)
	}

	switch profile.Format {
	case agents.FormatJSON:
		return &jsonParser{base: b}, nil
	case agents.FormatYAML:
		return &yamlParser{base: b}, nil
	case agents.FormatTOML:
		return &tomlParser{base: b}, nil
	case agents.FormatXML:
		return &xmlParser{base: b}, nil
	default:
		return nil, errors.Newf("no parser for format %q", profile.Format)
	}
}

// base carries the fields every format implementation shares.
type base struct {
	profile agents.Profile
	path    string
	backups *backup.Manager
}

func (b *base) Path() string { return b.path }

func (b *base) backupManager() *backup.Manager {
	if b.backups == nil {
		b.backups = backup.NewManager()
	}
	return b.backups
}

func (b *base) emptyConfig(state LoadState) *AgentConfig {
	return &AgentConfig{
		AgentID: b.profile.ID,
		Path:    b.path,
		Servers: make(map[string]*server.Server),
		State:   state,
	}
}
