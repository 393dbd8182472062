package editor

import "testing"

func TestDetect_PrefersEditorEnv(t *testing.T) {
	t.Setenv("EDITOR", "my-editor")
	t.Setenv("VISUAL", "other-editor")

	if got := Detect(); got != "my-editor" {
		t.Errorf("expected $EDITOR to win, got %q", got)
	}
}

func TestDetect_FallsBackToVisual(t *testing.T) {
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "visual-editor")

	if got := Detect(); got != "visual-editor" {
		t.Errorf("expected $VISUAL fallback, got %q", got)
	}
}

func TestDetect_AlwaysReturnsSomething(t *testing.T) {
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")

	if Detect() == "" {
		t.Error("expected a fallback editor")
	}
}
