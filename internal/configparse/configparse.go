// Package configparse turns free-form pasted configuration, JSON or YAML,
// wrapped or bare, into canonical connector records. It is the entry point
// for anything a user copies out of a vendor's README.
package configparse

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/parser"
	"github.com/mcpm-dev/mcpm/internal/server"
)

// Source says how the server entries were located in the input.
type Source int

const (
	// WrapperKey means the entries sat under a recognized wrapper key.
	WrapperKey Source = iota
	// DirectMap means the top-level object itself was the server map.
	DirectMap
)

// Parsed is the result of normalizing a raw snippet.
type Parsed struct {
	// Servers maps declared names to canonical records.
	Servers map[string]*server.Server

	// Key is the wrapper key the entries were found under, or "" for a
	// direct map.
	Key string

	// Source says which detection path matched.
	Source Source
}

// wrapperKeys are tried in order. Specific vendor spellings come first;
// the bare "servers" key is so generic it must stay last. The set matches
// the nesting keys of the agent catalog, which agents_test pins.
var wrapperKeys = []string{
	"mcpServers",
	"mcp_servers",
	"mcp.servers",
	"mcp",
	"context_servers",
	"servers",
}

// WrapperKeys returns the recognized wrapper key spellings in detection
// order.
func WrapperKeys() []string {
	return append([]string(nil), wrapperKeys...)
}

// Parse normalizes a pasted snippet. Input starting with "{" is parsed as
// JSON (comments and trailing commas tolerated), anything else as YAML.
func Parse(raw string) (*Parsed, error) {
	doc, err := decode(raw)
	if err != nil {
		return nil, err
	}

	for _, key := range wrapperKeys {
		section, ok := lookup(doc, key)
		if !ok {
			continue
		}
		servers, err := entries(section)
		if err != nil {
			return nil, err
		}
		return &Parsed{Servers: servers, Key: key, Source: WrapperKey}, nil
	}

	// No wrapper key. The document itself may be the server map, but only
	// if its entries look like connector records.
	if looksLikeServerMap(doc) {
		servers, err := entries(doc)
		if err != nil {
			return nil, err
		}
		return &Parsed{Servers: servers, Source: DirectMap}, nil
	}

	return nil, errors.Newf("could not detect configuration format: no %s key and the top-level object is not a server map", strings.Join(wrapperKeys[:2], " or "))
}

func decode(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("empty configuration input")
	}

	if strings.HasPrefix(trimmed, "{") {
		std, err := hujson.Standardize([]byte(trimmed))
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON")
		}
		var doc map[string]any
		if err := json.Unmarshal(std, &doc); err != nil {
			return nil, errors.Wrap(err, "invalid JSON")
		}
		return doc, nil
	}

	// Decode into any first so a scalar or list, which is valid YAML,
	// reads as a shape problem rather than a syntax error.
	var node any
	if err := yaml.Unmarshal([]byte(trimmed), &node); err != nil {
		return nil, errors.Wrap(err, "invalid YAML")
	}
	doc, ok := node.(map[string]any)
	if !ok || doc == nil {
		return nil, errors.New("configuration must be an object")
	}
	return doc, nil
}

// lookup resolves key in doc, treating a dot as one level of nesting.
func lookup(doc map[string]any, key string) (map[string]any, bool) {
	parent, leaf, nested := strings.Cut(key, ".")
	if nested {
		inner, ok := doc[parent].(map[string]any)
		if !ok {
			return nil, false
		}
		doc = inner
		key = leaf
	}
	section, ok := doc[key].(map[string]any)
	return section, ok
}

// looksLikeServerMap reports whether every value is an object carrying a
// command or url, the two fields any connector record must have one of.
func looksLikeServerMap(doc map[string]any) bool {
	if len(doc) == 0 {
		return false
	}
	for _, raw := range doc {
		entry, ok := raw.(map[string]any)
		if !ok {
			return false
		}
		if _, hasCmd := entry["command"]; hasCmd {
			continue
		}
		if _, hasURL := entry["url"]; hasURL {
			continue
		}
		if _, hasURL := entry["serverUrl"]; hasURL {
			continue
		}
		return false
	}
	return true
}

func entries(section map[string]any) (map[string]*server.Server, error) {
	servers := make(map[string]*server.Server, len(section))
	for name, raw := range section {
		rec, err := parser.RecordFromAny(name, raw, agents.Quirks{})
		if err != nil {
			return nil, errors.Wrapf(err, "invalid server config for %q", name)
		}
		servers[name] = rec
	}
	return servers, nil
}
