// Package editor launches the user's preferred text editor, used by the
// edit flow to let the user rework a server definition in place.
package editor

import (
	"os"
	"os/exec"

	"github.com/cockroachdb/errors"
)

// Open launches the user's editor on path and waits for it to exit.
// Resolution order: $EDITOR, $VISUAL, nano, vi.
func Open(path string) error {
	cmd := exec.Command(Detect(), path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "running editor")
	}
	return nil
}

// Detect returns the editor command to use.
func Detect() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
