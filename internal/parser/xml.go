package parser

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

// xmlParser handles the one fixed XML shape used by the JetBrains-style
// agent config: a flat list of <server> blocks holding <option> name/value
// pairs and an optional <envs> list. encoding/xml escapes the five
// standard entities on write; a missing <envs> block reads as no env.
//
// Argument lists are stored space-joined in a single option value, so
// arguments containing spaces cannot be represented in this format.
type xmlParser struct {
	base
}

type xmlDocument struct {
	XMLName xml.Name    `xml:"mcpServers"`
	Servers []xmlServer `xml:"server"`
}

type xmlServer struct {
	Name    string      `xml:"name,attr"`
	Options []xmlOption `xml:"option"`
	Envs    *xmlEnvList `xml:"envs"`
}

type xmlOption struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlEnvList struct {
	Envs []xmlOption `xml:"env"`
}

func (p *xmlParser) Exists() bool {
	return p.exists()
}

func (p *xmlParser) Read() *AgentConfig {
	doc, state := p.loadXML()
	cfg := p.emptyConfig(state)
	if state != StateLoaded {
		return cfg
	}

	for _, xs := range doc.Servers {
		if xs.Name == "" {
			continue
		}
		cfg.Servers[xs.Name] = xs.record()
	}
	return cfg
}

func (p *xmlParser) Write(records map[string]*server.Server, opts WriteOptions) error {
	doc, state := p.loadXML()
	if state == StateAbsent && !opts.CreateIfMissing {
		return errors.Newf("%s does not exist", p.path)
	}
	if doc == nil || !opts.Merge {
		doc = &xmlDocument{}
	}

	for name, s := range records {
		doc.upsert(name, s)
	}

	if opts.Backup && state != StateAbsent {
		_, _ = p.backupManager().Backup(p.profile.ID, p.path)
	}

	return p.writeXML(doc, opts)
}

func (p *xmlParser) InstalledServerNames() []string {
	return namesFrom(p.Read())
}

func (p *xmlParser) RemoveServers(names []string) error {
	doc, state := p.loadXML()
	if state != StateLoaded || doc == nil {
		return nil
	}

	keep := doc.Servers[:0]
	removed := false
	for _, xs := range doc.Servers {
		if slices.Contains(names, xs.Name) {
			removed = true
			continue
		}
		keep = append(keep, xs)
	}
	if !removed {
		return nil
	}
	doc.Servers = keep

	_, _ = p.backupManager().Backup(p.profile.ID, p.path)
	return p.writeXML(doc, WriteOptions{CreateIfMissing: true})
}

func (p *xmlParser) loadXML() (*xmlDocument, LoadState) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StateAbsent
		}
		return nil, StateInvalid
	}

	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, StateInvalid
	}
	return &doc, StateLoaded
}

func (p *xmlParser) writeXML(doc *xmlDocument, opts WriteOptions) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling XML config")
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')

	if opts.CreateIfMissing {
		if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}

	return fileutil.AtomicWriteFile(p.path, data, 0o644)
}

// record converts an XML server block into the canonical form.
func (xs xmlServer) record() *server.Server {
	s := &server.Server{Name: xs.Name}

	for _, opt := range xs.Options {
		switch opt.Name {
		case "command":
			s.Command = opt.Value
		case "args":
			if opt.Value != "" {
				s.Args = strings.Fields(opt.Value)
			}
		case "url":
			s.URL = opt.Value
		case "type":
			s.Transport = server.NormalizeTransport(opt.Value)
		}
	}

	if xs.Envs != nil && len(xs.Envs.Envs) > 0 {
		s.Env = make(map[string]server.Value, len(xs.Envs.Envs))
		for _, e := range xs.Envs.Envs {
			s.Env[e.Name] = server.NewLiteral(e.Value)
		}
	}
	return s
}

// upsert replaces or appends the block for name.
func (d *xmlDocument) upsert(name string, s *server.Server) {
	block := xmlBlock(name, s)
	for i, xs := range d.Servers {
		if xs.Name == name {
			d.Servers[i] = block
			return
		}
	}
	d.Servers = append(d.Servers, block)
}

// xmlBlock converts a canonical record into an XML server block.
func xmlBlock(name string, s *server.Server) xmlServer {
	xs := xmlServer{Name: name}

	if s.Command != "" {
		xs.Options = append(xs.Options, xmlOption{Name: "command", Value: s.Command})
		if len(s.Args) > 0 {
			xs.Options = append(xs.Options, xmlOption{Name: "args", Value: strings.Join(s.Args, " ")})
		}
	} else {
		xs.Options = append(xs.Options, xmlOption{Name: "url", Value: s.URL})
		xs.Options = append(xs.Options, xmlOption{Name: "type", Value: s.EffectiveTransport()})
	}

	if len(s.Env) > 0 {
		envs := &xmlEnvList{}
		for _, key := range sortedKeys(s.Env) {
			if v := s.Env[key]; !v.IsNull() {
				envs.Envs = append(envs.Envs, xmlOption{Name: key, Value: v.String()})
			}
		}
		if len(envs.Envs) > 0 {
			xs.Envs = envs
		}
	}
	return xs
}

// sortedKeys keeps env output stable so diffs and drift checks stay quiet.
func sortedKeys(m map[string]server.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
