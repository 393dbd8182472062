package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit(t *testing.T) {
	viper.Reset()

	Init()

	if viper.GetInt("version") != 1 {
		t.Errorf("expected version default 1, got %d", viper.GetInt("version"))
	}
	if got := viper.GetString("conflict_strategy"); got != "skip" {
		t.Errorf("expected conflict_strategy default skip, got %q", got)
	}
	if got := viper.GetInt("backup_retention"); got != 10 {
		t.Errorf("expected backup_retention default 10, got %d", got)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	Init()

	cfg, err := Load("")
	if err != nil {
		t.Errorf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config to be returned")
	}
	if cfg.ConflictStrategy != "skip" {
		t.Errorf("expected default conflict strategy, got %q", cfg.ConflictStrategy)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte("conflict_strategy: suffix\ndefault_agents:\n  - cursor\n  - zed\nbackup_retention: 5\n")
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		t.Fatal(err)
	}

	Init()

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConflictStrategy != "suffix" {
		t.Errorf("expected suffix, got %q", cfg.ConflictStrategy)
	}
	if len(cfg.DefaultAgents) != 2 {
		t.Errorf("expected 2 agents, got %d", len(cfg.DefaultAgents))
	}
	if cfg.BackupRetention != 5 {
		t.Errorf("expected retention 5, got %d", cfg.BackupRetention)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	viper.Reset()
	Init()

	if _, err := Load("/non/existent/path/config.yaml"); err == nil {
		t.Error("Load() with non-existent explicit path should error")
	}
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("conflict_strategy: merge\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	Init()

	if _, err := Load(configPath); err == nil {
		t.Error("expected unknown strategy to be rejected")
	}
}

func TestConfig_Registry(t *testing.T) {
	cfg := &Config{}
	if cfg.Registry() == "" {
		t.Error("expected a default registry path")
	}

	cfg.RegistryPath = "/custom/servers.json"
	if got := cfg.Registry(); got != "/custom/servers.json" {
		t.Errorf("expected override, got %q", got)
	}
}
