package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/configparse"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/naming"
	"github.com/mcpm-dev/mcpm/internal/server"
	"github.com/mcpm-dev/mcpm/internal/vault"
)

// Package-level flag variables for the add command.
var (
	addURL       string
	addEnv       []string
	addHeaders   []string
	addTransport string
	addForce     bool
	addStdin     bool
)

func init() {
	addCmd.Flags().StringVar(&addURL, "url", "",
		"remote server endpoint for http/sse transport")
	addCmd.Flags().StringSliceVar(&addEnv, "env", nil,
		"environment variables in KEY=VALUE format (repeatable)")
	addCmd.Flags().StringSliceVar(&addHeaders, "header", nil,
		"HTTP headers in KEY=VALUE format (repeatable)")
	addCmd.Flags().StringVar(&addTransport, "transport", "",
		"explicit transport type: stdio, http, sse")
	addCmd.Flags().BoolVarP(&addForce, "force", "f", false,
		"overwrite if the server already exists")
	addCmd.Flags().BoolVar(&addStdin, "stdin", false,
		"read a pasted JSON/YAML config block from stdin instead of flags")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <name> [command] [args...]",
	Short: "Add a server to the catalog",
	Long: `Add a server definition to the mcpm catalog.

For local stdio servers, provide a command and optional arguments:
  mcpm add github npx -- -y @modelcontextprotocol/server-github

For remote servers, use the --url flag:
  mcpm add api --url=https://api.example.com/mcp

Environment variables and headers take KEY=VALUE pairs (repeatable).
Values that look like credentials (API keys, tokens, passwords) are
moved into the OS keychain automatically; the catalog and agent files
only ever see a keychain reference.

A whole config block copied from a README can be piped in instead:
  pbpaste | mcpm add github --stdin

Examples:
  mcpm add github npx -- -y @modelcontextprotocol/server-github
  mcpm add github npx --env GITHUB_TOKEN=ghp_xxx -- -y @modelcontextprotocol/server-github
  mcpm add api --url=https://api.example.com/mcp --header "Authorization=Bearer tok"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addStdin {
		return runAddStdin(cmd.OutOrStdout(), cmd.InOrStdin(), args[0])
	}

	name := naming.Sanitize(args[0])
	if name == "" {
		return mcperrors.NewUserError(mcperrors.ErrMissingName,
			"Server names need at least one letter, digit, _ or -")
	}

	var command string
	var cmdArgs []string
	if len(args) > 1 {
		command = args[1]
		cmdArgs = args[2:]
	}

	if command == "" && addURL == "" {
		return errors.New("either a command or --url is required")
	}
	if command != "" && addURL != "" {
		return errors.New("cannot specify both a command and --url")
	}

	transport := server.NormalizeTransport(addTransport)
	if addTransport != "" && transport == "" {
		return errors.Newf("invalid --transport %q: must be stdio, http, or sse", addTransport)
	}

	envMap, err := parseKeyValueSlice(addEnv, "--env")
	if err != nil {
		return err
	}
	headerMap, err := parseKeyValueSlice(addHeaders, "--header")
	if err != nil {
		return err
	}

	v := vault.New()
	s := &server.Server{
		Name:      name,
		Transport: transport,
		Command:   command,
		Args:      cmdArgs,
		URL:       addURL,
		Env:       valueMapFromStrings(name, envMap, v),
		Headers:   valueMapFromStrings(name, headerMap, v),
	}
	if err := s.Validate(); err != nil {
		return err
	}

	return saveNewServer(cmd.OutOrStdout(), s)
}

// runAddStdin parses a pasted config block and adds the chosen server.
// When the block declares exactly one server, the requested name wins;
// blocks with several servers add them all and ignore the name argument.
func runAddStdin(w io.Writer, r io.Reader, name string) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading stdin")
	}

	parsed, err := configparse.Parse(string(raw))
	if err != nil {
		return mcperrors.NewUserError(err,
			"Paste the JSON or YAML block exactly as the vendor documents it")
	}

	if len(parsed.Servers) == 1 {
		for _, s := range parsed.Servers {
			s.Name = naming.Sanitize(name)
			if err := saveNewServer(w, s); err != nil {
				return err
			}
		}
		return nil
	}

	for _, s := range parsed.Servers {
		s.Name = naming.Sanitize(s.Name)
		if err := saveNewServer(w, s); err != nil {
			return err
		}
	}
	return nil
}

func saveNewServer(w io.Writer, s *server.Server) error {
	store := openStore()
	doc, err := store.Load()
	if err != nil {
		return err
	}

	if doc.Get(s.Name) != nil && !addForce {
		return mcperrors.NewUserError(
			errors.Wrapf(mcperrors.ErrNameConflict, "%s", s.Name),
			"Use --force to overwrite the existing entry")
	}

	doc.Add(s, "")
	if err := store.Save(doc); err != nil {
		return err
	}

	fmt.Fprintf(w, "Added %s'%s'%s to the catalog\n", colorGreen, s.Name, colorReset)
	for key, val := range s.Env {
		if val.Kind() == server.KindRef {
			fmt.Fprintf(w, "  %s stored in the OS keychain\n", key)
		}
	}
	if isTerminal(os.Stdout) {
		fmt.Fprintf(w, "Run 'mcpm sync %s' to push it into your agents\n", s.Name)
	}
	return nil
}
