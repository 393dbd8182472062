// Package vault stores credential values in the operating system keychain
// and resolves the keychain references embedded in server definitions.
// Registry and agent files only ever carry references; the secret bytes
// live in the keychain alone.
package vault

import (
	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"

	"github.com/mcpm-dev/mcpm/internal/server"
)

// Service is the keychain service namespace for all mcpm credentials.
const Service = "mcpm"

// Vault reads and writes credentials in the OS keychain. The zero value
// is ready to use.
type Vault struct {
	service string
}

// New returns a Vault using the default service namespace.
func New() *Vault {
	return &Vault{service: Service}
}

func (v *Vault) serviceName() string {
	if v.service == "" {
		return Service
	}
	return v.service
}

// account renders the keychain account name for a reference.
func account(ref server.VaultRef) string {
	return ref.Server + "." + ref.Key
}

// Available probes whether an OS keychain backend is usable. A missing
// entry still means the backend works; only backend-level failures count.
func (v *Vault) Available() bool {
	_, err := keyring.Get(v.serviceName(), "mcpm.availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Store saves a credential and returns the reference to embed in its
// place.
func (v *Vault) Store(serverName, key, value string) (server.VaultRef, error) {
	ref := server.VaultRef{Server: serverName, Key: key}
	if serverName == "" || key == "" {
		return ref, errors.New("vault entries need a server name and a key")
	}
	if err := keyring.Set(v.serviceName(), account(ref), value); err != nil {
		return ref, errors.Wrapf(err, "storing credential %s", ref)
	}
	return ref, nil
}

// Resolve returns the secret for a reference.
func (v *Vault) Resolve(ref server.VaultRef) (string, error) {
	secret, err := keyring.Get(v.serviceName(), account(ref))
	if err != nil {
		return "", errors.Wrapf(err, "resolving credential %s", ref)
	}
	return secret, nil
}

// Delete removes a credential. A missing entry is not an error.
func (v *Vault) Delete(ref server.VaultRef) error {
	err := keyring.Delete(v.serviceName(), account(ref))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrapf(err, "deleting credential %s", ref)
	}
	return nil
}

// DeleteServer removes every stored credential referenced by a server
// definition, best-effort.
func (v *Vault) DeleteServer(s *server.Server) {
	for _, m := range []map[string]server.Value{s.Env, s.Headers} {
		for _, val := range m {
			if ref, ok := val.Ref(); ok {
				_ = v.Delete(ref)
			}
		}
	}
}

// ResolveValue materializes a single value for writing into an agent
// file. Literals and nulls pass through. An unresolvable reference
// degrades to its textual form so a sync never loses the pointer to the
// missing secret.
func (v *Vault) ResolveValue(val server.Value) server.Value {
	ref, ok := val.Ref()
	if !ok {
		return val
	}
	secret, err := v.Resolve(ref)
	if err != nil {
		// Keep the reference; it serializes as its textual form, which
		// still points the user at the missing keychain entry.
		return val
	}
	return server.NewLiteral(secret)
}

// ResolveServer returns a copy of s with every vault reference in env and
// headers replaced by its secret. The input is never mutated; resolved
// copies exist only on the write path to agent files.
func (v *Vault) ResolveServer(s *server.Server) *server.Server {
	out := s.Clone()
	for _, m := range []map[string]server.Value{out.Env, out.Headers} {
		for key, val := range m {
			m[key] = v.ResolveValue(val)
		}
	}
	return out
}
