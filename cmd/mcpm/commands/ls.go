package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lsJSON bool

func init() {
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(lsCmd)
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List servers in the catalog",
	Long: `List every server in the mcpm catalog with its transport and the
command or URL it runs.

Examples:
  mcpm ls
  mcpm ls --json`,
	RunE: runLs,
}

// lsServerJSON represents one catalog entry in JSON output.
type lsServerJSON struct {
	Name         string `json:"name"`
	Transport    string `json:"transport"`
	Command      string `json:"command,omitempty"`
	URL          string `json:"url,omitempty"`
	ImportedFrom string `json:"importedFrom,omitempty"`
	LastSyncedAt string `json:"lastSyncedAt,omitempty"`
}

func runLs(cmd *cobra.Command, _ []string) error {
	return runLsWithWriter(cmd.OutOrStdout())
}

// runLsWithWriter allows injecting a writer for testing.
func runLsWithWriter(w io.Writer) error {
	doc, err := openStore().Load()
	if err != nil {
		return err
	}

	if lsJSON {
		out := make([]lsServerJSON, 0, len(doc.Servers))
		for _, name := range doc.Names() {
			entry := doc.Get(name)
			row := lsServerJSON{
				Name:         name,
				Transport:    entry.EffectiveTransport(),
				Command:      entry.Command,
				URL:          entry.URL,
				ImportedFrom: entry.ImportedFrom,
			}
			if entry.LastSyncedAt != nil {
				row.LastSyncedAt = entry.LastSyncedAt.Format("2006-01-02 15:04:05")
			}
			out = append(out, row)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(doc.Servers) == 0 {
		fmt.Fprintln(w, "No servers in the catalog. Add one with 'mcpm add'.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sNAME%s\t%sTRANSPORT%s\t%sCOMMAND/URL%s\t%sLAST SYNC%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, name := range doc.Names() {
		entry := doc.Get(name)
		lastSync := "never"
		if entry.LastSyncedAt != nil {
			lastSync = entry.LastSyncedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%s\n",
			colorGreen, name, colorReset,
			entry.EffectiveTransport(),
			truncate(endpoint(&entry.Server), 50),
			lastSync)
	}
	return tw.Flush()
}
