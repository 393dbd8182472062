// Package backup creates timestamped side copies of agent config files and
// the registry before destructive rewrites. Backups are best-effort: a
// failed backup is reported but never blocks the primary write.
package backup

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mcpm-dev/mcpm/internal/paths"
	"github.com/mcpm-dev/mcpm/pkg/fileutil"
)

// DefaultRetentionCount is how many backups are kept per owner by default.
const DefaultRetentionCount = 10

// stampLayout renders timestamps with dashes so names stay filename-safe.
const stampLayout = "2006-01-02T15-04-05"

// Manager handles backup creation, listing, and retention pruning.
type Manager struct {
	rootDir        string
	retentionCount int
	now            func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the root backup directory.
func WithDir(dir string) Option {
	return func(m *Manager) {
		m.rootDir = dir
	}
}

// WithRetentionCount sets the number of backups retained per owner.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retentionCount = n
		}
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a backup Manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:        paths.BackupDir(),
		retentionCount: DefaultRetentionCount,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backup copies src into the backup directory under the name
// "<owner>-<timestamp><ext>", then prunes old backups for that owner.
// A missing source is not an error; there is nothing to protect.
// Returns the backup path, or "" when nothing was copied.
func (m *Manager) Backup(owner, src string) (string, error) {
	if owner == "" {
		return "", errors.New("backup owner is required")
	}

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "stat %s", src)
	}

	stamp := m.now().UTC().Format(stampLayout)
	dst := filepath.Join(m.rootDir, owner+"-"+stamp+filepath.Ext(src))

	if err := fileutil.CopyFile(src, dst); err != nil {
		return "", errors.Wrapf(err, "backing up %s", src)
	}

	// Retention pruning is itself best-effort.
	_ = m.Prune(owner)

	return dst, nil
}

// List returns the backup files for an owner, newest first.
func (m *Manager) List(owner string) ([]string, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// Owner names may share prefixes ("zed" vs "zed-lite"); require a
		// parseable timestamp right after the owner.
		rest, ok := strings.CutPrefix(name, owner+"-")
		if !ok || len(rest) < len(stampLayout) {
			continue
		}
		if _, err := time.Parse(stampLayout, rest[:len(stampLayout)]); err != nil {
			continue
		}
		files = append(files, filepath.Join(m.rootDir, name))
	}

	slices.Sort(files)
	slices.Reverse(files)
	return files, nil
}

// Prune removes backups for an owner beyond the retention count.
func (m *Manager) Prune(owner string) error {
	files, err := m.List(owner)
	if err != nil {
		return err
	}
	if len(files) <= m.retentionCount {
		return nil
	}
	for _, f := range files[m.retentionCount:] {
		if err := os.Remove(f); err != nil {
			return errors.Wrapf(err, "pruning %s", f)
		}
	}
	return nil
}
