package parser

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/server"
)

// decodeFunc turns file bytes into a generic document map.
type decodeFunc func([]byte) (map[string]any, error)

// encodeFunc writes a generic document map to path atomically.
type encodeFunc func(path string, doc map[string]any) error

func (b *base) exists() bool {
	info, err := os.Stat(b.path)
	return err == nil && !info.IsDir()
}

// loadDoc reads and decodes the whole document. Absence and parse
// failures are reported through LoadState, never as errors.
func (b *base) loadDoc(decode decodeFunc) (map[string]any, LoadState) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StateAbsent
		}
		return nil, StateInvalid
	}
	doc, err := decode(data)
	if err != nil || doc == nil {
		return nil, StateInvalid
	}
	return doc, StateLoaded
}

// configFromDoc extracts and normalizes the entries under the nesting key.
// Entries that fail normalization are skipped; a partially readable file
// still yields its readable connectors.
func (b *base) configFromDoc(doc map[string]any, state LoadState) *AgentConfig {
	cfg := b.emptyConfig(state)
	if state != StateLoaded {
		return cfg
	}

	section, ok := descend(doc, b.profile.NestKey, false)
	if !ok {
		return cfg
	}

	for name, raw := range section {
		rec, err := RecordFromAny(name, raw, b.profile.Quirks)
		if err != nil {
			continue
		}
		cfg.Servers[name] = rec
	}
	return cfg
}

// readGeneric implements Read for the map-document formats.
func (b *base) readGeneric(decode decodeFunc) *AgentConfig {
	doc, state := b.loadDoc(decode)
	return b.configFromDoc(doc, state)
}

// writeGeneric implements Write for the map-document formats: load the
// existing document (or start fresh), back it up, mutate only the nesting
// key, and rewrite atomically. Everything outside the nesting key is
// carried over untouched.
func (b *base) writeGeneric(records map[string]*server.Server, opts WriteOptions, decode decodeFunc, encode encodeFunc) error {
	doc, state := b.loadDoc(decode)
	if state == StateAbsent && !opts.CreateIfMissing {
		return errors.Newf("%s does not exist", b.path)
	}
	if doc == nil {
		// Absent or unreadable; the backup taken below preserves
		// whatever was on disk before we start over.
		doc = make(map[string]any)
	}

	if opts.Backup && state != StateAbsent {
		_, _ = b.backupManager().Backup(b.profile.ID, b.path)
	}

	section, _ := descend(doc, b.profile.NestKey, true)
	if !opts.Merge {
		clear(section)
	}
	for name, s := range records {
		section[name] = RecordToAny(s, b.profile.Quirks)
	}

	if opts.CreateIfMissing {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}

	return encode(b.path, doc)
}

// removeGeneric implements RemoveServers for the map-document formats.
func (b *base) removeGeneric(names []string, decode decodeFunc, encode encodeFunc) error {
	doc, state := b.loadDoc(decode)
	if state != StateLoaded {
		// Nothing to remove from; cleanup is best-effort.
		return nil
	}

	section, ok := descend(doc, b.profile.NestKey, false)
	if !ok {
		return nil
	}

	changed := false
	for _, name := range names {
		if _, present := section[name]; present {
			delete(section, name)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	_, _ = b.backupManager().Backup(b.profile.ID, b.path)
	return encode(b.path, doc)
}

// namesFrom lists installed names from a snapshot.
func namesFrom(cfg *AgentConfig) []string {
	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	return names
}
