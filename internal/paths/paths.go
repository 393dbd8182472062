// Package paths centralizes filesystem locations for mcpm: the registry
// file, the backup directory, and expansion of the home-relative paths
// used by agent profiles.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is the directory name used under XDG base directories.
const AppName = "mcpm"

// DefaultDirPerm is the permission for newly created config directories.
const DefaultDirPerm = 0o700

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// ConfigDir returns the mcpm configuration directory (e.g. ~/.config/mcpm).
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// RegistryFile returns the path of the canonical registry document.
func RegistryFile() string {
	return filepath.Join(ConfigDir(), "servers.json")
}

// BackupDir returns the directory where timestamped config backups are kept.
func BackupDir() string {
	return filepath.Join(xdg.DataHome, AppName, "backups")
}

// EnsureDir creates the directory and any necessary parents.
// It is idempotent; existing directories are left untouched.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DefaultDirPerm)
}

// Home returns the user's home directory, or an empty string when it
// cannot be determined.
func Home() string {
	h, _ := os.UserHomeDir()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// Expand resolves a leading "~" or "~/" in path against the user's home
// directory. Paths without a tilde prefix are returned unchanged.
func Expand(path string) string {
	if path == "~" {
		return Home()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(Home(), path[2:])
	}
	return path
}
