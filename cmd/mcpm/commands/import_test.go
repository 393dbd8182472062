package commands

import (
	"testing"

	"github.com/mcpm-dev/mcpm/internal/engine"
)

func TestImportCommand_Metadata(t *testing.T) {
	if importCmd.Use != "import [name...]" {
		t.Errorf("Use = %q, want %q", importCmd.Use, "import [name...]")
	}
	for _, flag := range []string{"all", "on-conflict", "rename"} {
		if importCmd.Flags().Lookup(flag) == nil {
			t.Errorf("--%s flag should be defined", flag)
		}
	}
}

func TestResolveImportStrategy(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		renames map[string]string
		want    engine.ImportStrategy
		wantErr bool
	}{
		{"default is skip", "", nil, engine.ImportSkip, false},
		{"renames imply rename", "", map[string]string{"figma": "figma-work"}, engine.ImportRename, false},
		{"explicit rename", "rename", map[string]string{"figma": "figma-work"}, engine.ImportRename, false},
		{"explicit replace", "replace", nil, engine.ImportReplace, false},
		{"renames with skip rejected", "skip", map[string]string{"figma": "x"}, "", true},
		{"renames with replace rejected", "replace", map[string]string{"figma": "x"}, "", true},
		{"unknown strategy rejected", "merge", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveImportStrategy(tt.flag, tt.renames)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got strategy %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("strategy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyRenames(t *testing.T) {
	chosen := []engine.Candidate{
		{Name: "figma", Agents: []string{"cursor"}},
		{Name: "linear", Agents: []string{"zed"}},
	}

	err := applyRenames(chosen, map[string]string{"figma": "figma-work"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen[0].RenameTo != "figma-work" {
		t.Errorf("RenameTo = %q, want %q", chosen[0].RenameTo, "figma-work")
	}
	if chosen[1].RenameTo != "" {
		t.Errorf("unrelated candidate got RenameTo = %q", chosen[1].RenameTo)
	}
}

func TestApplyRenames_UnknownCandidate(t *testing.T) {
	chosen := []engine.Candidate{{Name: "figma", Agents: []string{"cursor"}}}
	if err := applyRenames(chosen, map[string]string{"fgima": "oops"}); err == nil {
		t.Error("expected error for rename of unselected candidate")
	}
}
