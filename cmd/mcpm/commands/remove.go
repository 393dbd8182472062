package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
)

var removeYes bool

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false,
		"skip the confirmation prompt")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a server from the catalog and all agents",
	Long: `Remove a server from the catalog. Its mcpm-managed entry is deleted
from every targeted agent config, and any credentials it stored in the
OS keychain are deleted with it. Entries you wrote by hand are left
alone.

Examples:
  mcpm remove github
  mcpm remove github --agent cursor -y`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	w := cmd.OutOrStdout()

	store := openStore()
	doc, err := store.Load()
	if err != nil {
		return err
	}
	if doc.Get(name) == nil {
		return mcperrors.NewUserError(
			errors.Wrapf(mcperrors.ErrServerNotFound, "%s", name),
			"Run 'mcpm ls' to see the catalog")
	}

	agentIDs, err := resolveAgents()
	if err != nil {
		// No agents detected still allows removing the catalog entry.
		agentIDs = nil
	}

	if !removeYes && isTerminal(os.Stdin) {
		if !confirm(w, fmt.Sprintf("Remove '%s' everywhere?", name)) {
			fmt.Fprintln(w, "Aborted")
			return nil
		}
	}

	if err := newEngine().RemoveServer(doc, name, agentIDs); err != nil {
		return err
	}
	if err := store.Save(doc); err != nil {
		return err
	}

	fmt.Fprintf(w, "Removed '%s' from the catalog and %d agent(s)\n", name, len(agentIDs))
	return nil
}
