package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(driftCmd)
}

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Find agent entries edited behind mcpm's back",
	Long: `Compare every mcpm-managed entry in the targeted agents against what
a fresh sync would write. An entry that differs was hand-edited inside
the agent after the last sync. Read-only; rerun 'mcpm sync' with
--on-conflict replace to reconcile.

Examples:
  mcpm drift
  mcpm drift --agent cursor`,
	RunE: runDrift,
}

func runDrift(cmd *cobra.Command, _ []string) error {
	return runDriftWithWriter(cmd.OutOrStdout())
}

func runDriftWithWriter(w io.Writer) error {
	doc, err := openStore().Load()
	if err != nil {
		return err
	}
	agentIDs, err := resolveAgents()
	if err != nil {
		return err
	}

	drifted := newEngine().Drift(doc, agentIDs)
	if len(drifted) == 0 {
		fmt.Fprintln(w, "No drift: every managed entry matches the catalog.")
		return nil
	}

	for _, d := range drifted {
		fmt.Fprintf(w, "%s: %s%s%s (installed as %s) differs from the catalog\n",
			d.AgentID, colorBold, d.Server, colorReset, d.Installed)
	}
	fmt.Fprintf(w, "\n%d drifted entr%s. Reconcile with 'mcpm sync --on-conflict replace'.\n",
		len(drifted), plural(len(drifted), "y", "ies"))
	return nil
}
