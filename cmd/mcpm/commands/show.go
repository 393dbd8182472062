package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/server"
)

var showSecrets bool

func init() {
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Reveal masked secret values")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one catalog server in full",
	Long: `Show every field of a catalog server: transport, command or URL,
environment variables, and headers. Secrets are masked unless
--show-secrets is given; keychain-backed values always display as their
keychain reference.

Examples:
  mcpm show github
  mcpm show github --show-secrets`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	return runShowWithWriter(cmd.OutOrStdout(), args[0])
}

func runShowWithWriter(w io.Writer, name string) error {
	doc, err := openStore().Load()
	if err != nil {
		return err
	}
	entry := doc.Get(name)
	if entry == nil {
		return mcperrors.NewUserError(
			errors.Wrapf(mcperrors.ErrServerNotFound, "%s", name),
			"Run 'mcpm ls' to see the catalog")
	}

	fmt.Fprintf(w, "%s%s%s\n", colorBold+colorCyan, name, colorReset)
	fmt.Fprintf(w, "  transport: %s\n", entry.EffectiveTransport())
	if entry.IsLocal() {
		fmt.Fprintf(w, "  command:   %s\n", entry.Command)
		if len(entry.Args) > 0 {
			fmt.Fprintf(w, "  args:      %s\n", strings.Join(entry.Args, " "))
		}
	} else {
		fmt.Fprintf(w, "  url:       %s\n", entry.URL)
	}

	printValueMap(w, "env", entry.Env)
	printValueMap(w, "headers", entry.Headers)

	if entry.ImportedFrom != "" {
		fmt.Fprintf(w, "  imported from: %s\n", entry.ImportedFrom)
	}
	if entry.CreatedAt != nil {
		fmt.Fprintf(w, "  created:   %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if entry.LastSyncedAt != nil {
		fmt.Fprintf(w, "  last sync: %s\n", entry.LastSyncedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func printValueMap(w io.Writer, label string, m map[string]server.Value) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "  %s:\n", label)
	for _, key := range keys {
		val := m[key]
		display := maskValue(key, val)
		if showSecrets && val.Kind() == server.KindLiteral {
			display = val.String()
		}
		fmt.Fprintf(w, "    %s=%s\n", key, display)
		if meta := val.Meta(); meta != nil && meta.Description != "" {
			fmt.Fprintf(w, "      %s%s%s\n", colorGray, meta.Description, colorReset)
		}
	}
}
