package parser

import (
	"gopkg.in/yaml.v3"

	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

// yamlParser handles the YAML agent configs. Normalization is shared with
// the JSON parser; only the serialization step differs.
type yamlParser struct {
	base
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func encodeYAML(path string, doc map[string]any) error {
	return fileutil.AtomicWriteYAML(path, doc)
}

func (p *yamlParser) Exists() bool {
	return p.exists()
}

func (p *yamlParser) Read() *AgentConfig {
	return p.readGeneric(decodeYAML)
}

func (p *yamlParser) Write(records map[string]*server.Server, opts WriteOptions) error {
	return p.writeGeneric(records, opts, decodeYAML, encodeYAML)
}

func (p *yamlParser) InstalledServerNames() []string {
	return namesFrom(p.Read())
}

func (p *yamlParser) RemoveServers(names []string) error {
	return p.removeGeneric(names, decodeYAML, encodeYAML)
}
