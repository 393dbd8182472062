package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/engine"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
)

// Package-level flag variables for the sync command.
var (
	syncStrategy string
	syncDryRun   bool
)

func init() {
	syncCmd.Flags().StringVar(&syncStrategy, "on-conflict", "",
		"conflict resolution: skip, replace, suffix (default from config)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false,
		"report what would be written without touching any file")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [name...]",
	Short: "Push catalog servers into agent configs",
	Long: `Push catalog servers into each targeted agent's native config file.
With no names, the whole catalog is synced. Entries are written under
the mcpm_ prefix; keychain references are resolved into the written
copy only, never back into the catalog.

When an agent already has an entry under a server's name, the conflict
strategy decides: skip it, replace it, or retry with a _2/_3 suffix.

Examples:
  mcpm sync
  mcpm sync github figma --agent cursor
  mcpm sync github --on-conflict replace
  mcpm sync --dry-run`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	return runSyncWithWriter(cmd.OutOrStdout(), args)
}

func runSyncWithWriter(w io.Writer, names []string) error {
	store := openStore()
	doc, err := store.Load()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		names = doc.Names()
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "Nothing to sync; the catalog is empty.")
		return nil
	}
	for _, name := range names {
		if doc.Get(name) == nil {
			return mcperrors.NewUserError(
				errors.Wrapf(mcperrors.ErrServerNotFound, "%s", name),
				"Run 'mcpm ls' to see the catalog")
		}
	}

	agentIDs, err := resolveAgents()
	if err != nil {
		return err
	}

	strategy := engine.ConflictStrategy(syncStrategy)
	if strategy == "" && settings != nil {
		strategy = engine.ConflictStrategy(settings.ConflictStrategy)
	}
	switch strategy {
	case "", engine.StrategySkip, engine.StrategyReplace, engine.StrategySuffix:
	default:
		return errors.Newf("invalid --on-conflict %q: must be skip, replace, or suffix", strategy)
	}

	report := newEngine().Sync(doc, names, agentIDs, engine.SyncOptions{
		Strategy: strategy,
		DryRun:   syncDryRun,
	})

	for _, result := range report.Agents {
		if result.Err != nil {
			fmt.Fprintf(w, "%s: failed: %v\n", result.AgentID, result.Err)
			continue
		}
		for name, installed := range result.Synced {
			fmt.Fprintf(w, "%s: %s%s%s -> %s\n", result.AgentID, colorGreen, name, colorReset, installed)
		}
		for _, name := range result.Skipped {
			fmt.Fprintf(w, "%s: %s skipped (existing entry; use --on-conflict)\n", result.AgentID, name)
		}
	}

	if syncDryRun {
		fmt.Fprintf(w, "Dry run: %d entr%s would be written\n", report.SyncedCount(), plural(report.SyncedCount(), "y", "ies"))
		return nil
	}

	if err := store.Save(doc); err != nil {
		return err
	}
	fmt.Fprintf(w, "Synced %d entr%s across %d agent(s)\n",
		report.SyncedCount(), plural(report.SyncedCount(), "y", "ies"), len(agentIDs))

	if failed := report.Failed(); len(failed) > 0 {
		ids := make([]string, len(failed))
		for i, f := range failed {
			ids[i] = f.AgentID
		}
		return mcperrors.NewSystemError(
			errors.Newf("sync failed for: %s", strings.Join(ids, ", ")),
			"The other agents were synced; fix the failures and rerun")
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
