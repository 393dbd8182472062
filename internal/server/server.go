package server

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// Transport kinds for MCP connector communication.
const (
	// TransportStdio indicates a local process spoken to over stdin/stdout.
	TransportStdio = "stdio"

	// TransportHTTP indicates a remote endpoint using streamable HTTP.
	TransportHTTP = "http"

	// TransportSSE indicates a remote endpoint using Server-Sent Events.
	TransportSSE = "sse"
)

// Transports lists the recognized transport kinds.
var Transports = []string{TransportStdio, TransportHTTP, TransportSSE}

// Server is the canonical, agent-independent form of one connector.
// Exactly one of Command or URL is populated, matching the transport.
type Server struct {
	// Name is the clean (unprefixed) connector name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Transport is "stdio", "http", or "sse". Empty means inferred:
	// stdio when Command is set, http when URL is set.
	Transport string `json:"type,omitempty" yaml:"type,omitempty"`

	// Command is the executable for local servers.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	// Args are the ordered command-line arguments for local servers.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// Env holds environment entries for local servers.
	Env map[string]Value `json:"env,omitempty" yaml:"env,omitempty"`

	// URL is the endpoint for remote servers.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Headers holds HTTP headers for remote servers.
	Headers map[string]Value `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// IsLocal reports whether the server runs as a local stdio process.
func (s *Server) IsLocal() bool {
	if s.Transport == TransportStdio {
		return true
	}
	return s.Transport == "" && s.Command != ""
}

// IsRemote reports whether the server is a remote endpoint.
func (s *Server) IsRemote() bool {
	switch s.Transport {
	case TransportHTTP, TransportSSE:
		return true
	}
	return s.Transport == "" && s.URL != "" && s.Command == ""
}

// EffectiveTransport returns the explicit transport, or the kind inferred
// from which locator field is populated.
func (s *Server) EffectiveTransport() string {
	if s.Transport != "" {
		return s.Transport
	}
	if s.URL != "" && s.Command == "" {
		return TransportHTTP
	}
	return TransportStdio
}

// Validate checks the exactly-one-locator invariant.
func (s *Server) Validate() error {
	if s.Command == "" && s.URL == "" {
		return errors.New("server needs a command or a url")
	}
	if s.Command != "" && s.URL != "" {
		return errors.New("server cannot have both a command and a url")
	}
	switch s.Transport {
	case "":
	case TransportStdio:
		if s.Command == "" {
			return errors.New("stdio server needs a command")
		}
	case TransportHTTP, TransportSSE:
		if s.URL == "" {
			return errors.Newf("%s server needs a url", s.Transport)
		}
	default:
		return errors.Newf("unknown transport %q", s.Transport)
	}
	return nil
}

// Clone returns a deep copy.
func (s *Server) Clone() *Server {
	if s == nil {
		return nil
	}
	out := *s
	out.Args = slices.Clone(s.Args)
	if s.Env != nil {
		out.Env = make(map[string]Value, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}
	if s.Headers != nil {
		out.Headers = make(map[string]Value, len(s.Headers))
		for k, v := range s.Headers {
			out.Headers[k] = v
		}
	}
	return &out
}

// Equal reports whether two servers would produce the same agent entry:
// same transport, locator, args, and effective env/header values.
// Names are not compared; callers match by name before comparing.
func (s *Server) Equal(o *Server) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.EffectiveTransport() != o.EffectiveTransport() {
		return false
	}
	if s.Command != o.Command || s.URL != o.URL {
		return false
	}
	if !slices.Equal(s.Args, o.Args) {
		return false
	}
	return valueMapsEqual(s.Env, o.Env) && valueMapsEqual(s.Headers, o.Headers)
}

func valueMapsEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

// NormalizeTransport maps a transport string of any case onto one of the
// recognized kinds. Unrecognized values map to "", meaning inferred.
func NormalizeTransport(t string) string {
	for _, known := range Transports {
		if strings.EqualFold(t, known) {
			return known
		}
	}
	return ""
}

// CredentialSchema is the value-stripped snapshot of a server's credential
// metadata, keyed by env/header name. It lets a re-entry form be rebuilt
// later without ever persisting the secrets themselves.
type CredentialSchema map[string]Meta

// Schema extracts the credential schema from a server's env and header
// maps: every entry that carries metadata, is null, or is a vault
// reference contributes a key. Plain literals are not credentials.
func (s *Server) Schema() CredentialSchema {
	schema := make(CredentialSchema)
	collect := func(m map[string]Value) {
		for k, v := range m {
			switch {
			case v.Meta() != nil:
				schema[k] = *v.Meta()
			case v.IsNull():
				schema[k] = Meta{Required: true}
			default:
				if _, ok := v.Ref(); ok {
					schema[k] = Meta{Hidden: true}
				}
			}
		}
	}
	collect(s.Env)
	collect(s.Headers)
	if len(schema) == 0 {
		return nil
	}
	return schema
}
