// Package client validates server definitions by actually connecting to
// them over the MCP protocol and listing their tools. The sync engine
// only consumes the success/failure outcome.
package client

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/internal/vault"
)

// DefaultTimeout bounds one validation attempt end to end.
const DefaultTimeout = 30 * time.Second

// CheckResult is the outcome of a successful live validation.
type CheckResult struct {
	// Tools lists the tool names the server advertised.
	Tools []string

	// Duration is how long connect plus list took.
	Duration time.Duration
}

// Checker runs live validations.
type Checker struct {
	vault   *vault.Vault
	timeout time.Duration
	impl    *mcp.Implementation
}

// NewChecker returns a Checker resolving credentials through v.
func NewChecker(v *vault.Vault, version string) *Checker {
	return &Checker{
		vault:   v,
		timeout: DefaultTimeout,
		impl:    &mcp.Implementation{Name: "mcpm", Version: version},
	}
}

// WithTimeout sets the per-check deadline.
func (c *Checker) WithTimeout(d time.Duration) *Checker {
	c.timeout = d
	return c
}

// Check connects to the server, lists its tools, and disconnects.
// Credentials are resolved just for the lifetime of the session.
func (c *Checker) Check(ctx context.Context, s *server.Server) (*CheckResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	resolved := c.vault.ResolveServer(s)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	transport, err := c.transport(ctx, resolved)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	session, err := mcp.NewClient(c.impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", s.Name)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "listing tools on %s", s.Name)
	}

	tools := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		tools = append(tools, tool.Name)
	}
	return &CheckResult{Tools: tools, Duration: time.Since(start)}, nil
}

func (c *Checker) transport(ctx context.Context, s *server.Server) (mcp.Transport, error) {
	switch s.EffectiveTransport() {
	case server.TransportStdio:
		cmd := exec.CommandContext(ctx, s.Command, s.Args...)
		cmd.Env = os.Environ()
		for key, val := range s.Env {
			if !val.IsNull() {
				cmd.Env = append(cmd.Env, key+"="+val.String())
			}
		}
		return &mcp.CommandTransport{Command: cmd}, nil
	case server.TransportHTTP:
		return &mcp.StreamableClientTransport{
			Endpoint:   s.URL,
			HTTPClient: httpClient(s.Headers),
		}, nil
	case server.TransportSSE:
		return &mcp.SSEClientTransport{
			Endpoint:   s.URL,
			HTTPClient: httpClient(s.Headers),
		}, nil
	default:
		return nil, errors.Newf("server %s has no usable transport", s.Name)
	}
}

// httpClient returns a client injecting the configured headers into every
// request.
func httpClient(headers map[string]server.Value) *http.Client {
	if len(headers) == 0 {
		return http.DefaultClient
	}
	return &http.Client{Transport: &headerTransport{headers: headers}}
}

type headerTransport struct {
	headers map[string]server.Value
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, val := range t.headers {
		if !val.IsNull() {
			clone.Header.Set(key, val.String())
		}
	}
	return http.DefaultTransport.RoundTrip(clone)
}
