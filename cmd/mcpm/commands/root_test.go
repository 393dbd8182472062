package commands

import (
	"log/slog"
	"testing"
)

func TestSetupLogging_VerbosityFlags(t *testing.T) {
	origVerbosity := verbosity
	defer func() { verbosity = origVerbosity }()

	tests := []struct {
		name      string
		verbosity int
		wantLevel slog.Level
	}{
		{"default (0)", 0, slog.LevelInfo},
		{"verbose (1)", 1, slog.LevelDebug},
		{"trace (2)", 2, slog.LevelDebug - 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbosity = tt.verbosity
			if err := setupLogging(rootCmd); err != nil {
				t.Fatalf("setupLogging failed: %v", err)
			}

			logger := slog.Default()
			if !logger.Enabled(t.Context(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
		})
	}
}

func TestSetupLogging_Quiet(t *testing.T) {
	origQuiet := quiet
	origVerbosity := verbosity
	defer func() {
		quiet = origQuiet
		verbosity = origVerbosity
	}()

	quiet = true
	verbosity = 0

	if err := setupLogging(rootCmd); err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}

	logger := slog.Default()
	if logger.Enabled(t.Context(), slog.LevelWarn) {
		t.Error("expected Warn level to be disabled in quiet mode")
	}
	if !logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("expected Error level to be enabled in quiet mode")
	}
}

func TestSetupLogging_QuietAndVerboseConflict(t *testing.T) {
	origQuiet := quiet
	origVerbosity := verbosity
	defer func() {
		quiet = origQuiet
		verbosity = origVerbosity
	}()

	quiet = true
	verbosity = 1

	if err := setupLogging(rootCmd); err == nil {
		t.Error("expected error when combining --quiet and --verbose")
	}
}

func TestValidateAgentFlag(t *testing.T) {
	origAgents := agentFlag
	defer func() { agentFlag = origAgents }()

	agentFlag = []string{"cursor", "zed"}
	if err := validateAgentFlag(lsCmd, nil); err != nil {
		t.Errorf("valid agents rejected: %v", err)
	}

	agentFlag = []string{"cursor", "nonexistent-agent"}
	if err := validateAgentFlag(lsCmd, nil); err == nil {
		t.Error("expected error for unknown agent id")
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	if rootCmd.Use != "mcpm" {
		t.Errorf("Use = %q, want %q", rootCmd.Use, "mcpm")
	}
	if rootCmd.Version != version {
		t.Errorf("Version = %q, want %q", rootCmd.Version, version)
	}

	for _, name := range []string{"add", "remove", "ls", "show", "sync", "import", "drift", "test", "edit", "agents", "config"} {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
