// Package config provides user-level settings for mcpm using Viper.
package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/mcpm-dev/mcpm/internal/paths"
)

// Config represents the top-level settings structure. Everything here has
// a working default; the settings file is optional.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// DefaultAgents limits sync and import to these agents when the user
	// does not name any. Empty means "every installed agent".
	DefaultAgents []string `mapstructure:"default_agents" yaml:"default_agents"`

	// ConflictStrategy is the default sync conflict resolution:
	// skip, replace, or suffix.
	ConflictStrategy string `mapstructure:"conflict_strategy" yaml:"conflict_strategy"`

	// BackupRetention is how many backups to keep per agent.
	BackupRetention int `mapstructure:"backup_retention" yaml:"backup_retention"`

	// RegistryPath overrides the default registry file location.
	RegistryPath string `mapstructure:"registry_path" yaml:"registry_path"`

	// DisableVault writes credentials in cleartext instead of the OS
	// keychain, for environments without one.
	DisableVault bool `mapstructure:"disable_vault" yaml:"disable_vault"`
}

// Init initializes Viper with defaults and the config search paths.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix("MCPM")
	viper.AutomaticEnv()

	viper.SetDefault("version", 1)
	viper.SetDefault("conflict_strategy", "skip")
	viper.SetDefault("backup_retention", 10)
}

// Load reads the settings file. An explicit path must exist; with no path
// the default locations are searched and a missing file means defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded settings for values mcpm cannot act on.
func (c *Config) Validate() error {
	switch c.ConflictStrategy {
	case "", "skip", "replace", "suffix":
	default:
		return errors.Newf("unknown conflict_strategy %q (want skip, replace, or suffix)", c.ConflictStrategy)
	}
	if c.BackupRetention < 0 {
		return errors.Newf("backup_retention must not be negative")
	}
	if c.RegistryPath != "" && !filepath.IsAbs(paths.Expand(c.RegistryPath)) {
		return errors.Newf("registry_path must be absolute or start with ~")
	}
	return nil
}

// Registry returns the effective registry file path.
func (c *Config) Registry() string {
	if c.RegistryPath != "" {
		return paths.Expand(c.RegistryPath)
	}
	return paths.RegistryFile()
}
