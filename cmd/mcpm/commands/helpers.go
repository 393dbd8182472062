package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/backup"
	"github.com/mcpm-dev/mcpm/internal/engine"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/parser"
	"github.com/mcpm-dev/mcpm/internal/registry"
	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/internal/vault"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorCyan  = "\033[36m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// openStore returns the registry store at the configured location.
func openStore() *registry.Store {
	if settings != nil && settings.RegistryPath != "" {
		return registry.NewStore(settings.Registry())
	}
	return registry.NewStore("")
}

// newEngine builds the engine with the process-wide vault and a backup
// manager honoring the configured retention count.
func newEngine() *engine.Engine {
	retention := 0
	if settings != nil {
		retention = settings.BackupRetention
	}
	mgr := backup.NewManager(backup.WithRetentionCount(retention))
	factory := func(p agents.Profile) (parser.Parser, error) {
		return parser.New(p, p.ConfigFile(), parser.WithBackupManager(mgr))
	}
	return engine.New(engine.WithVault(vault.New()), engine.WithParserFactory(factory))
}

// resolveAgents turns the --agent flag into a list of agent ids. With no
// flag, configured defaults win; failing that, every detected agent.
func resolveAgents() ([]string, error) {
	if len(agentFlag) > 0 {
		return agentFlag, nil
	}
	if settings != nil && len(settings.DefaultAgents) > 0 {
		return settings.DefaultAgents, nil
	}

	detected := agents.DetectInstalled()
	if len(detected) == 0 {
		return nil, mcperrors.NewUserError(
			errors.New("no supported agents detected on this machine"),
			"Pass --agent to target one explicitly, e.g. --agent cursor")
	}
	ids := make([]string, len(detected))
	for i, p := range detected {
		ids[i] = p.ID
	}
	return ids, nil
}

// parseKeyValueSlice parses a slice of KEY=VALUE strings into a map.
// Returns an error if any entry is malformed.
func parseKeyValueSlice(entries []string, flagName string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	result := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, errors.Newf("invalid %s format %q: expected KEY=VALUE", flagName, entry)
		}
		result[key] = value
	}
	return result, nil
}

// valueMapFromStrings converts flag key=value pairs into canonical
// values, routing detected secrets into the vault when it is usable.
func valueMapFromStrings(serverName string, raw map[string]string, v *vault.Vault) map[string]server.Value {
	if len(raw) == 0 {
		return nil
	}

	vaultUsable := v != nil && !(settings != nil && settings.DisableVault) && v.Available()
	out := make(map[string]server.Value, len(raw))
	for key, val := range raw {
		if vaultUsable && vault.Classify(key, val) {
			if ref, err := v.Store(serverName, key, val); err == nil {
				out[key] = server.NewRef(ref)
				continue
			}
		}
		out[key] = server.NewLiteral(val)
	}
	return out
}

// maskValue renders an env or header value for display without leaking
// secrets. References show as their grammar, nulls as a placeholder.
func maskValue(key string, val server.Value) string {
	switch {
	case val.IsNull():
		return colorGray + "(not set)" + colorReset
	case val.Kind() == server.KindRef:
		return val.String()
	case vault.Classify(key, val.String()):
		s := val.String()
		if len(s) > 4 {
			return "****" + s[len(s)-4:]
		}
		return "********"
	default:
		return val.String()
	}
}

// promptHidden reads a secret from the terminal without echoing it. A
// non-terminal stdin falls back to a plain line read so pipes still work.
func promptHidden(w io.Writer, label string) (string, error) {
	fmt.Fprintf(w, "%s: ", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", errors.Wrap(err, "reading secret")
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "reading secret")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question on the terminal, defaulting to no.
func confirm(w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// endpoint renders the command line or URL of a server for tables.
func endpoint(s *server.Server) string {
	if s.IsRemote() {
		return s.URL
	}
	parts := append([]string{s.Command}, s.Args...)
	return strings.Join(parts, " ")
}
