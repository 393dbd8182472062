package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

// tomlParser handles TOML agent configs (Codex CLI). Reading decodes the
// whole document structurally. Writing only re-marshals the connector
// tables: every line outside them is carried over verbatim, split from the
// connector tables by section headers. This keeps unrelated sections
// byte-identical at the cost of not supporting connector entries written
// as inline tables, which the known agents do not produce.
type tomlParser struct {
	base
}

func decodeTOML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *tomlParser) Exists() bool {
	return p.exists()
}

func (p *tomlParser) Read() *AgentConfig {
	return p.readGeneric(decodeTOML)
}

func (p *tomlParser) Write(records map[string]*server.Server, opts WriteOptions) error {
	doc, state := p.loadDoc(decodeTOML)
	if state == StateAbsent && !opts.CreateIfMissing {
		return errors.Newf("%s does not exist", p.path)
	}

	entries := make(map[string]any)
	if opts.Merge && doc != nil {
		if section, ok := descend(doc, p.profile.NestKey, false); ok {
			for name, raw := range section {
				entries[name] = raw
			}
		}
	}
	for name, s := range records {
		entries[name] = tomlRecord(s, p)
	}

	return p.rewrite(entries, opts, state)
}

func (p *tomlParser) InstalledServerNames() []string {
	return namesFrom(p.Read())
}

func (p *tomlParser) RemoveServers(names []string) error {
	doc, state := p.loadDoc(decodeTOML)
	if state != StateLoaded {
		return nil
	}

	section, ok := descend(doc, p.profile.NestKey, false)
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

	return p.rewrite(section, WriteOptions{CreateIfMissing: true, Backup: true}, state)
}

// rewrite reassembles the file: foreign lines verbatim, then the connector
// tables re-marshaled from entries.
func (p *tomlParser) rewrite(entries map[string]any, opts WriteOptions, state LoadState) error {
	var foreign string
	if state == StateLoaded {
		data, err := os.ReadFile(p.path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", p.path)
		}
		foreign = foreignTOML(string(data), p.profile.NestKey)
	}

	var owned []byte
	if len(entries) > 0 {
		doc := make(map[string]any)
		section, _ := descend(doc, p.profile.NestKey, true)
		for name, entry := range entries {
			section[name] = entry
		}
		var err error
		owned, err = toml.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "marshaling connector tables")
		}
	}

	var b strings.Builder
	b.WriteString(foreign)
	if foreign != "" && len(owned) > 0 && !strings.HasSuffix(foreign, "\n\n") {
		b.WriteString("\n")
	}
	b.Write(owned)

	if opts.Backup && state != StateAbsent {
		_, _ = p.backupManager().Backup(p.profile.ID, p.path)
	}
	if opts.CreateIfMissing {
		if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}

	return fileutil.AtomicWriteFile(p.path, []byte(b.String()), 0o644)
}

// foreignTOML returns the lines of doc that are outside the connector
// tables: everything before the first owned section header and every
// section whose header does not sit under nestKey.
func foreignTOML(doc, nestKey string) string {
	var out strings.Builder
	inOwned := false

	for line := range strings.Lines(doc) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			name := strings.Trim(strings.TrimSuffix(trimmed, "]"), "[]")
			inOwned = name == nestKey || strings.HasPrefix(name, nestKey+".")
		}
		if !inOwned {
			out.WriteString(line)
		}
	}

	s := out.String()
	// Drop trailing blank lines left behind by removed sections.
	s = strings.TrimRight(s, "\n")
	if s != "" {
		s += "\n"
	}
	return s
}

// tomlRecord builds the TOML form of a record. TOML has no null, so
// pending env values are dropped rather than serialized.
func tomlRecord(s *server.Server, p *tomlParser) map[string]any {
	entry := RecordToAny(s, p.profile.Quirks)
	for _, key := range []string{"env", "environment", "headers"} {
		m, ok := entry[key].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range m {
			if v == nil {
				delete(m, k)
			}
		}
		if len(m) == 0 {
			delete(entry, key)
		}
	}
	return entry
}
