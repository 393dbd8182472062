// Package commands implements the CLI commands for mcpm.
package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/config"
	mcperrors "github.com/mcpm-dev/mcpm/internal/errors"
	"github.com/mcpm-dev/mcpm/internal/logging"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
const version = "0.1.0"

// agentFlag holds the value of the --agent flag.
var agentFlag []string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// settings holds the loaded user configuration.
var settings *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringSliceVarP(&agentFlag, "agent", "a", nil,
		"target agent(s) by id, e.g. cursor, zed (default: all detected)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("mcpm version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	settings, configLoadErr = config.Load("")
	if settings == nil {
		settings = &config.Config{}
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcpm",
	Short: "Sync MCP server configs across AI client apps",
	Long: `mcpm keeps one canonical catalog of MCP server definitions and syncs
it into the native config files of every supported AI client: Claude
Desktop, Cursor, VS Code, Zed, Codex CLI, JetBrains IDEs, and more.

Define a server once, then push it everywhere in each client's own
format (JSON, YAML, TOML, or XML). Entries written by mcpm carry the
mcpm_ prefix, so your hand-written entries are never touched. Secrets
are kept in the OS keychain, never in plain config files.

Use the --agent flag to target specific clients, or omit it to target
every client detected on this machine.`,
	Example: `  # Add a server to the catalog
  mcpm add github npx -- -y @modelcontextprotocol/server-github

  # Push it into every detected client
  mcpm sync github

  # Pull hand-configured servers into the catalog
  mcpm import --agent cursor

  # Find entries edited behind mcpm's back
  mcpm drift`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return validateAgentFlag(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return mcperrors.NewUserError(errors.New("cannot use --quiet and --verbose together"), "Drop either -q or -v")
	}

	level := logging.LevelFromVerbosity(verbosity)
	if quiet {
		level = slog.LevelError
	}

	logger := logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
	})
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))
	return nil
}

// validateAgentFlag checks that all specified agents are in the catalog.
func validateAgentFlag(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}

	if configLoadErr != nil {
		return mcperrors.NewUserError(configLoadErr, "Fix or remove the mcpm config.yaml file")
	}

	if len(agentFlag) == 0 {
		return nil
	}

	var invalid []string
	for _, id := range agentFlag {
		if !agents.Valid(id) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		err := errors.Newf("invalid agent(s): %s", strings.Join(invalid, ", "))
		return mcperrors.NewUserError(err, "Run 'mcpm agents' to see supported agents")
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
