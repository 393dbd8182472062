package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tailscale/hujson"

	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

// jsonParser handles the JSON-family agent configs. Several agents permit
// comments and trailing commas in their JSON (VS Code, Cursor, OpenCode),
// so reads go through hujson before decoding, and writes patch the parsed
// document in place so comments and unrelated members survive the rewrite.
type jsonParser struct {
	base
}

func decodeJSON(data []byte) (map[string]any, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *jsonParser) Exists() bool {
	return p.exists()
}

func (p *jsonParser) Read() *AgentConfig {
	return p.readGeneric(decodeJSON)
}

func (p *jsonParser) Write(records map[string]*server.Server, opts WriteOptions) error {
	data, err := os.ReadFile(p.path)
	absent := os.IsNotExist(err)
	if absent && !opts.CreateIfMissing {
		return errors.Newf("%s does not exist", p.path)
	}

	if opts.Backup && !absent {
		_, _ = p.backupManager().Backup(p.profile.ID, p.path)
	}

	root, parseErr := hujson.Parse(data)
	if absent || err != nil || parseErr != nil || !isObjectValue(&root) {
		// Absent or unparseable; the backup above keeps whatever was on
		// disk and the document starts over.
		root, _ = hujson.Parse([]byte("{}"))
	}

	segments := strings.Split(p.profile.NestKey, ".")
	if opts.Merge {
		if err := ensureObjects(&root, segments); err != nil {
			return err
		}
		nestPtr := jsonPointer(segments)
		for name, s := range records {
			val, err := json.Marshal(RecordToAny(s, p.profile.Quirks))
			if err != nil {
				return errors.Wrapf(err, "encoding entry %q", name)
			}
			if err := patchSet(&root, nestPtr+"/"+jsonPointerEscape(name), val); err != nil {
				return errors.Wrapf(err, "writing entry %q", name)
			}
		}
	} else {
		if err := ensureObjects(&root, segments[:len(segments)-1]); err != nil {
			return err
		}
		section := make(map[string]any, len(records))
		for name, s := range records {
			section[name] = RecordToAny(s, p.profile.Quirks)
		}
		val, err := json.Marshal(section)
		if err != nil {
			return errors.Wrap(err, "encoding entries")
		}
		if err := patchSet(&root, jsonPointer(segments), val); err != nil {
			return errors.Wrap(err, "replacing entries")
		}
	}

	if opts.CreateIfMissing {
		if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}

	return fileutil.AtomicWriteFile(p.path, packJSON(&root), 0o644)
}

func (p *jsonParser) InstalledServerNames() []string {
	return namesFrom(p.Read())
}

func (p *jsonParser) RemoveServers(names []string) error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		// Nothing to remove from; cleanup is best-effort.
		return nil
	}
	root, err := hujson.Parse(data)
	if err != nil {
		return nil
	}

	nestPtr := jsonPointer(strings.Split(p.profile.NestKey, "."))
	changed := false
	for _, name := range names {
		ptr := nestPtr + "/" + jsonPointerEscape(name)
		if root.Find(ptr) == nil {
			continue
		}
		op := fmt.Sprintf(`[{"op":"remove","path":%q}]`, ptr)
		if err := root.Patch([]byte(op)); err != nil {
			continue
		}
		changed = true
	}
	if !changed {
		return nil
	}

	_, _ = p.backupManager().Backup(p.profile.ID, p.path)
	return fileutil.AtomicWriteFile(p.path, packJSON(&root), 0o644)
}

// ensureObjects creates an empty object at each cumulative pointer prefix
// that is missing or holds a non-object, leaving existing objects alone.
// The document-map formats do the same through descend with create set.
func ensureObjects(root *hujson.Value, segments []string) error {
	for i := 1; i <= len(segments); i++ {
		ptr := jsonPointer(segments[:i])
		if v := root.Find(ptr); v != nil && isObjectValue(v) {
			continue
		}
		if err := patchSet(root, ptr, []byte("{}")); err != nil {
			return errors.Wrapf(err, "creating section %q", ptr)
		}
	}
	return nil
}

// patchSet upserts value at ptr. JSON Patch "add" replaces an existing
// object member, so one operation covers both cases.
func patchSet(root *hujson.Value, ptr string, value []byte) error {
	op := fmt.Sprintf(`[{"op":"add","path":%q,"value":%s}]`, ptr, value)
	return root.Patch([]byte(op))
}

// packJSON renders the patched document. Formatting normalizes the new
// members; trailing commas are dropped for agents with strict decoders.
func packJSON(root *hujson.Value) []byte {
	root.Format()
	stripTrailingCommas(root)
	return root.Pack()
}

func isObjectValue(v *hujson.Value) bool {
	_, ok := v.Value.(*hujson.Object)
	return ok
}

// jsonPointer renders segments as an RFC 6901 pointer.
func jsonPointer(segments []string) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteByte('/')
		sb.WriteString(jsonPointerEscape(seg))
	}
	return sb.String()
}

func jsonPointerEscape(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// stripTrailingCommas walks the tree removing the trailing commas Format
// leaves in, since several agents parse their config with a strict decoder.
func stripTrailingCommas(v *hujson.Value) {
	switch vv := v.Value.(type) {
	case *hujson.Object:
		for i := range vv.Members {
			stripTrailingCommas(&vv.Members[i].Name)
			stripTrailingCommas(&vv.Members[i].Value)
		}
		if len(vv.Members) > 0 {
			vv.Members[len(vv.Members)-1].Value.AfterExtra = nil
		}
	case *hujson.Array:
		for i := range vv.Elements {
			stripTrailingCommas(&vv.Elements[i])
		}
		if len(vv.Elements) > 0 {
			vv.Elements[len(vv.Elements)-1].AfterExtra = nil
		}
	}
}
