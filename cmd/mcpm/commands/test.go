package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/client"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/vault"
)

var testTimeout time.Duration

func init() {
	testCmd.Flags().DurationVar(&testTimeout, "timeout", client.DefaultTimeout,
		"how long to wait for the server to respond")
	rootCmd.AddCommand(testCmd)
}

var testCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Validate a catalog server by connecting to it",
	Long: `Start or connect to a catalog server over the MCP protocol and list
its tools. Keychain references are resolved only for the lifetime of
the check.

Examples:
  mcpm test github
  mcpm test api --timeout 10s`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	name := args[0]
	w := cmd.OutOrStdout()

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

	fmt.Fprintf(w, "Connecting to '%s'...\n", name)
	checker := client.NewChecker(vault.New(), version).WithTimeout(testTimeout)
	res, err := checker.Check(cmd.Context(), &entry.Server)
	if err != nil {
		return mcperrors.NewSystemError(err,
			"Check the command/URL and any credentials with 'mcpm show "+name+"'")
	}

	fmt.Fprintf(w, "%sOK%s in %s: %d tool(s)\n", colorGreen+colorBold, colorReset,
		res.Duration.Round(time.Millisecond), len(res.Tools))
	if len(res.Tools) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(res.Tools, ", "))
	}
	return nil
}
