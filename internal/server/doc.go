// Package server defines the canonical MCP connector model shared by the
// registry, the format parsers, and the sync engine.
//
// A [Server] is the agent-independent form of one connector: a local stdio
// process (command, args, env) or a remote endpoint (url, headers). Env and
// header entries are [Value] sums rather than plain strings so that three
// wire shapes survive a round trip without collapsing: a literal string, an
// explicit null ("not yet provided"), and an extended object carrying prompt
// metadata. A literal whose text matches the keychain reference grammar is
// tagged as a [VaultRef] at parse time, which keeps resolution logic from
// ever mistaking an unresolved reference for a real secret.
package server
