package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mcpm-dev/mcpm/internal/agents"
	"github.com/mcpm-dev/mcpm/internal/editor"
	"github.com/mcpm-dev/mcpm/internal/paths"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcpm configuration",
	Long: `Manage mcpm configuration stored in ~/.config/mcpm/config.yaml.

Without a subcommand, lists all configuration values.`,
	Example: `  # List all configuration
  mcpm config

  # Get a specific value
  mcpm config get default_agents

  # Set a value
  mcpm config set conflict_strategy suffix`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Array values are printed one per line.`,
	Example: `  # Get the default conflict strategy
  mcpm config get conflict_strategy

  # Get default agents
  mcpm config get default_agents`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

For array values like default_agents, use comma-separated values.
Agent ids are validated against the supported agent catalog.`,
	Example: `  # Limit sync to two agents by default
  mcpm config set default_agents cursor,claude-desktop

  # Keep more backups around
  mcpm config set backup_retention 20`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML format.`,
	Example: `  # List all configuration
  mcpm config list`,
	RunE: runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR or $VISUAL, falling back to vi. If no configuration file
exists yet, one is created with the current effective values.`,
	Example: `  # Open config in default editor
  mcpm config edit

  # Open with a specific editor
  EDITOR=nano mcpm config edit`,
	RunE: runConfigEdit,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if !viper.IsSet(key) {
		fmt.Fprintln(cmd.OutOrStdout(), "not set")
		return nil
	}

	switch v := viper.Get(key).(type) {
	case []any:
		for _, item := range v {
			fmt.Fprintln(cmd.OutOrStdout(), item)
		}
	case []string:
		for _, item := range v {
			fmt.Fprintln(cmd.OutOrStdout(), item)
		}
	default:
		fmt.Fprintln(cmd.OutOrStdout(), viper.GetString(key))
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	switch key {
	case "default_agents":
		ids := splitCommaList(value)
		if len(ids) == 0 {
			return errors.New("no agents specified")
		}
		var invalid []string
		for _, id := range ids {
			if !agents.Valid(id) {
				invalid = append(invalid, id)
			}
		}
		if len(invalid) > 0 {
			return errors.Newf("unknown agent(s): %s\nRun 'mcpm agents --all' to see supported agents",
				strings.Join(invalid, ", "))
		}
		viper.Set(key, ids)

	case "conflict_strategy":
		switch value {
		case "skip", "replace", "suffix":
		default:
			return errors.Newf("invalid conflict strategy %q (valid: skip, replace, suffix)", value)
		}
		viper.Set(key, value)

	case "backup_retention":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return errors.Newf("backup_retention must be a non-negative integer, got %q", value)
		}
		viper.Set(key, n)

	case "registry_path":
		if value != "" && !filepath.IsAbs(value) && !strings.HasPrefix(value, "~") {
			return errors.Newf("registry_path must be absolute or start with ~, got %q", value)
		}
		viper.Set(key, value)

	case "disable_vault":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Newf("disable_vault must be true or false, got %q", value)
		}
		viper.Set(key, b)

	case "version":
		viper.Set(key, value)

	default:
		return errors.Newf("unknown configuration key %q", key)
	}

	if err := writeConfigFile(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, viper.Get(key))
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	data, err := yaml.Marshal(effectiveConfig())
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath := filepath.Join(paths.ConfigDir(), "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeConfigFile(); err != nil {
			return err
		}
	}

	return editor.Open(configPath)
}

// effectiveConfig snapshots the current viper state into the shape the
// config file uses on disk.
func effectiveConfig() map[string]any {
	return map[string]any{
		"version":           viper.GetInt("version"),
		"default_agents":    viper.GetStringSlice("default_agents"),
		"conflict_strategy": viper.GetString("conflict_strategy"),
		"backup_retention":  viper.GetInt("backup_retention"),
		"registry_path":     viper.GetString("registry_path"),
		"disable_vault":     viper.GetBool("disable_vault"),
	}
}

func splitCommaList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeConfigFile() error {
	configPath := filepath.Join(paths.ConfigDir(), "config.yaml")

	if err := paths.EnsureDir(filepath.Dir(configPath)); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	if err := fileutil.AtomicWriteYAML(configPath, effectiveConfig()); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	return nil
}
