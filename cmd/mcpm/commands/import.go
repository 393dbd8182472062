package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/engine"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
)

// Package-level flag variables for the import command.
var (
	importAll      bool
	importStrategy string
	importRenames  []string
)

func init() {
	importCmd.Flags().BoolVar(&importAll, "all", false,
		"import every candidate without the interactive picker")
	importCmd.Flags().StringVar(&importStrategy, "on-conflict", "",
		"collision handling against the catalog: skip, replace, rename (default skip)")
	importCmd.Flags().StringSliceVar(&importRenames, "rename", nil,
		"store a colliding candidate under a new name, OLD=NEW (repeatable, implies --on-conflict rename)")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [name...]",
	Short: "Pull hand-configured servers into the catalog",
	Long: `Scan the targeted agents for connector entries you configured by hand
and pull them into the mcpm catalog. Entries already carrying the mcpm_
prefix are managed copies and are never offered.

With names, only those candidates import. With --all, everything found
imports. Otherwise an interactive picker opens.

When the same name appears in several agents, the first agent's shape
wins and the others are recorded as additional sources.

A candidate whose name is already taken in the catalog can be skipped,
replace the existing entry, or land under a different name via --rename.

Examples:
  mcpm import --agent cursor
  mcpm import figma linear
  mcpm import --all --on-conflict replace
  mcpm import figma --rename figma=figma-work`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	return runImportWithWriter(cmd.OutOrStdout(), args)
}

func runImportWithWriter(w io.Writer, names []string) error {
	agentIDs, err := resolveAgents()
	if err != nil {
		return err
	}

	eng := newEngine()
	candidates := eng.DiscoverImports(agentIDs)
	if len(candidates) == 0 {
		fmt.Fprintln(w, "Nothing to import: no foreign entries found.")
		return nil
	}

	chosen, err := chooseCandidates(candidates, names)
	if err != nil {
		return err
	}
	if len(chosen) == 0 {
		fmt.Fprintln(w, "Nothing selected.")
		return nil
	}

	renames, err := parseKeyValueSlice(importRenames, "--rename")
	if err != nil {
		return err
	}
	strategy, err := resolveImportStrategy(importStrategy, renames)
	if err != nil {
		return err
	}
	if err := applyRenames(chosen, renames); err != nil {
		return err
	}

	store := openStore()
	doc, err := store.Load()
	if err != nil {
		return err
	}

	results, err := eng.Import(doc, chosen, strategy)
	if err != nil {
		return err
	}
	if err := store.Save(doc); err != nil {
		return err
	}

	imported := 0
	for _, r := range results {
		if r.Skipped {
			fmt.Fprintf(w, "%s: skipped, already in the catalog\n", r.Candidate)
			continue
		}
		if r.Name != r.Candidate {
			fmt.Fprintf(w, "Imported %s%s%s (was %s)\n", colorGreen, r.Name, colorReset, r.Candidate)
		} else {
			fmt.Fprintf(w, "Imported %s%s%s\n", colorGreen, r.Name, colorReset)
		}
		imported++
	}
	fmt.Fprintf(w, "%d server(s) imported\n", imported)
	return nil
}

// resolveImportStrategy picks the collision policy. Rename pairs imply
// the rename strategy; naming one while forcing another is an error.
func resolveImportStrategy(flag string, renames map[string]string) (engine.ImportStrategy, error) {
	strategy := engine.ImportStrategy(flag)
	if strategy == "" {
		if len(renames) > 0 {
			return engine.ImportRename, nil
		}
		return engine.ImportSkip, nil
	}

	switch strategy {
	case engine.ImportSkip, engine.ImportReplace, engine.ImportRename:
	default:
		return "", errors.Newf("invalid --on-conflict %q: must be skip, replace, or rename", flag)
	}
	if len(renames) > 0 && strategy != engine.ImportRename {
		return "", errors.Newf("--rename conflicts with --on-conflict %s", flag)
	}
	return strategy, nil
}

// applyRenames attaches the rename targets to their candidates. Every
// pair must name a chosen candidate; a typo here should not silently
// turn a rename into a skip.
func applyRenames(chosen []engine.Candidate, renames map[string]string) error {
	for old := range renames {
		found := false
		for _, c := range chosen {
			if c.Name == old {
				found = true
				break
			}
		}
		if !found {
			return errors.Newf("no selected candidate named %q to rename", old)
		}
	}
	for i := range chosen {
		if to, ok := renames[chosen[i].Name]; ok {
			chosen[i].RenameTo = to
		}
	}
	return nil
}

// chooseCandidates narrows discovery output to the user's selection:
// explicit names, everything with --all, or the interactive picker.
func chooseCandidates(candidates []engine.Candidate, names []string) ([]engine.Candidate, error) {
	if importAll {
		return candidates, nil
	}

	if len(names) > 0 {
		byName := make(map[string]engine.Candidate, len(candidates))
		for _, c := range candidates {
			byName[c.Name] = c
		}
		chosen := make([]engine.Candidate, 0, len(names))
		for _, name := range names {
			c, ok := byName[name]
			if !ok {
				return nil, mcperrors.NewUserError(
					errors.Newf("no import candidate named %q", name),
					"Run 'mcpm import' without names to see what was found")
			}
			chosen = append(chosen, c)
		}
		return chosen, nil
	}

	idxs, err := fuzzyfinder.FindMulti(
		candidates,
		func(i int) string {
			return fmt.Sprintf("%s (%s)", candidates[i].Name, strings.Join(candidates[i].Agents, ", "))
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			c := candidates[i]
			return fmt.Sprintf("Name: %s\nFound in: %s\nTransport: %s\nRuns: %s",
				c.Name,
				strings.Join(c.Agents, ", "),
				c.Server.EffectiveTransport(),
				endpoint(c.Server),
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}

	chosen := make([]engine.Candidate, 0, len(idxs))
	for _, i := range idxs {
		chosen = append(chosen, candidates[i])
	}
	return chosen, nil
}
