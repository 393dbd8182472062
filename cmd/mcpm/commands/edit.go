package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/configparse"
	"github.com/mcpm-dev/mcpm/internal/editor"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
)

func init() {
	rootCmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a catalog server in $EDITOR",
	Long: `Open a catalog server's definition as a JSON block in your editor,
then validate and save it back when the editor exits. Keychain
references stay references; edit the plain fields only.

Uses the $EDITOR environment variable, falling back to $VISUAL, nano,
then vi.

Examples:
  mcpm edit github`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	name := args[0]
	w := cmd.OutOrStdout()

	store := openStore()
	doc, err := store.Load()
	if err != nil {
		return err
	}
	entry := doc.Get(name)
	if entry == nil {
		return mcperrors.NewUserError(
			errors.Wrapf(mcperrors.ErrServerNotFound, "%s", name),
			"Run 'mcpm ls' to see the catalog")
	}

	// Round the entry through the same wrapped shape users paste in, so
	// the edited text re-enters through the normal validation path.
	block := map[string]any{"mcpServers": map[string]any{name: entry.Server}}
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return errors.Wrap(err, "rendering server definition")
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("mcpm-edit-%s.json", name))
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return errors.Wrap(err, "writing temp file")
	}
	defer os.Remove(tmp)

	if err := editor.Open(tmp); err != nil {
		return err
	}

	edited, err := os.ReadFile(tmp)
	if err != nil {
		return errors.Wrap(err, "reading edited file")
	}
	parsed, err := configparse.Parse(string(edited))
	if err != nil {
		return mcperrors.NewUserError(err, "The edited definition did not validate; nothing was saved")
	}

	for _, s := range parsed.Servers {
		s.Name = name
		if err := s.Validate(); err != nil {
			return mcperrors.NewUserError(err, "The edited definition did not validate; nothing was saved")
		}
		doc.Add(s, "")
	}
	if err := store.Save(doc); err != nil {
		return err
	}

	fmt.Fprintf(w, "Saved '%s'\n", name)
	return nil
}
