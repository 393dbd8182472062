// Package registry persists the canonical server definitions. The
// registry file is the single source of truth; agent config files are
// projections of it.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/paths"
	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

// Version is the registry document format version.
const Version = "1.0"

// Entry is one canonical server definition plus registry bookkeeping.
type Entry struct {
	server.Server

	// CreatedAt is when the entry first appeared in the registry.
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	// LastSyncedAt is when a sync last pushed this entry to any agent.
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`

	// ImportedFrom names the agent the entry was imported from, if any.
	ImportedFrom string `json:"importedFrom,omitempty"`

	// Schema describes the entry's credential slots, for prompting.
	Schema server.CredentialSchema `json:"schema,omitempty"`
}

// Meta carries document-level bookkeeping.
type Meta struct {
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// LoadState records how a registry load resolved.
type LoadState int

const (
	// StateLoaded means the file existed and parsed.
	StateLoaded LoadState = iota
	// StateNew means the file did not exist yet.
	StateNew
	// StateCorrupt means the file existed but could not be parsed. The
	// in-memory document is empty and is not written back unless the
	// caller saves it.
	StateCorrupt
)

// Document is the registry file contents.
type Document struct {
	Version string            `json:"version"`
	Servers map[string]*Entry `json:"servers"`
	Meta    Meta              `json:"meta,omitempty"`

	// State records how the document was loaded.
	State LoadState `json:"-"`
}

// NewDocument returns an empty registry document.
func NewDocument() *Document {
	return &Document{
		Version: Version,
		Servers: make(map[string]*Entry),
	}
}

// Get returns the entry for name, or nil.
func (d *Document) Get(name string) *Entry {
	return d.Servers[name]
}

// Names returns the registered names, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Servers))
	for name := range d.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add upserts a server definition. The creation timestamp of an existing
// entry is preserved; everything else is replaced.
func (d *Document) Add(s *server.Server, importedFrom string) *Entry {
	now := time.Now().UTC()
	entry := &Entry{
		Server:       *s.Clone(),
		CreatedAt:    &now,
		ImportedFrom: importedFrom,
		Schema:       s.Schema(),
	}
	if prev, ok := d.Servers[s.Name]; ok {
		entry.CreatedAt = prev.CreatedAt
		entry.LastSyncedAt = prev.LastSyncedAt
		if importedFrom == "" {
			entry.ImportedFrom = prev.ImportedFrom
		}
	}
	if d.Servers == nil {
		d.Servers = make(map[string]*Entry)
	}
	d.Servers[s.Name] = entry
	return entry
}

// Remove deletes an entry, reporting whether it existed.
func (d *Document) Remove(name string) bool {
	if _, ok := d.Servers[name]; !ok {
		return false
	}
	delete(d.Servers, name)
	return true
}

// MarkSynced stamps the entry's last sync time.
func (d *Document) MarkSynced(name string, at time.Time) {
	if entry, ok := d.Servers[name]; ok {
		at = at.UTC()
		entry.LastSyncedAt = &at
	}
}

// Store reads and writes the registry file.
type Store struct {
	path string
}

// NewStore returns a store over path. An empty path uses the default
// location under the user config directory.
func NewStore(path string) *Store {
	if path == "" {
		path = paths.RegistryFile()
	}
	return &Store{path: path}
}

// Path returns the registry file location.
func (s *Store) Path() string { return s.path }

// Exists reports whether the registry file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the registry. A missing file yields an empty document and
// creates the backing directory; an unparseable file also yields an empty
// document, flagged StateCorrupt, so one bad file never blocks the user.
// The corrupt file itself is left on disk until something saves over it.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := paths.EnsureDir(filepath.Dir(s.path)); err != nil {
				return nil, errors.Wrap(err, "creating registry directory")
			}
			doc := NewDocument()
			doc.State = StateNew
			return doc, nil
		}
		return nil, errors.Wrapf(err, "reading registry %s", s.path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		corrupt := NewDocument()
		corrupt.State = StateCorrupt
		return corrupt, nil
	}
	if doc.Servers == nil {
		doc.Servers = make(map[string]*Entry)
	}
	if doc.Version == "" {
		doc.Version = Version
	}
	doc.State = StateLoaded

	// Entry map keys are authoritative; keep the embedded name in step.
	for name, entry := range doc.Servers {
		if entry.Name == "" {
			entry.Name = name
		}
	}
	return &doc, nil
}

// Save writes the registry atomically, stamping the modification time.
func (s *Store) Save(doc *Document) error {
	now := time.Now().UTC()
	doc.Meta.LastModified = &now
	if doc.Version == "" {
		doc.Version = Version
	}

	if err := paths.EnsureDir(filepath.Dir(s.path)); err != nil {
		return errors.Wrap(err, "creating registry directory")
	}
	return fileutil.AtomicWriteJSON(s.path, doc)
}
