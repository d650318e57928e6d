package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/config"
	"github.com/triade/core/internal/infrastructure/logger"
)

const backupPrefix = "triade_"

// Manager copies the SQLite database file to and from a backups directory.
// It keeps the most recent N copies and writes a safety copy before any
// restore.
type Manager struct {
	dbPath string
	dir    string
	keep   int
	logger *logger.Logger
}

// Info describes one backup file on disk.
type Info struct {
	Filename  string    `json:"filename"`
	SizeMB    float64   `json:"size_mb"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult reports the outcome of a restore.
type RestoreResult struct {
	RestoredBackup string `json:"restored_backup"`
	SafetyBackup   string `json:"safety_backup,omitempty"`
	Message        string `json:"message"`
	Warning        string `json:"warning"`
}

// NewManager creates a backup manager for the given database file.
func NewManager(dbPath string, cfg config.BackupConfig, log *logger.Logger) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    cfg.Dir,
		keep:   cfg.Keep,
		logger: log.WithComponent("backup"),
	}
}

// Create copies the live database to a timestamped file and prunes old
// copies. Returns the path of the new backup.
func (m *Manager) Create() (string, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return "", fmt.Errorf("database file not found: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s.db", backupPrefix, time.Now().Format("20060102_150405"))
	dest := filepath.Join(m.dir, name)

	if err := copyFile(m.dbPath, dest); err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	if err := m.prune(); err != nil {
		m.logger.WithError(err).Warn("Failed to prune old backups")
	}

	m.logger.Infow("Backup created", "file", dest)
	return dest, nil
}

// List returns available backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isBackupName(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Filename:  entry.Name(),
			SizeMB:    round2(float64(fi.Size()) / (1024 * 1024)),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore overwrites the live database with the named backup. A safety copy
// of the current database is written first so the restore can be undone.
func (m *Manager) Restore(filename string) (*RestoreResult, error) {
	// Reject path traversal in the client-supplied name.
	if filename != filepath.Base(filename) || !isBackupName(filename) {
		return nil, &entities.ValidationError{Field: "filename", Message: "invalid backup filename"}
	}

	source := filepath.Join(m.dir, filename)
	if _, err := os.Stat(source); err != nil {
		return nil, entities.ErrBackupNotFound
	}

	result := &RestoreResult{
		RestoredBackup: filename,
		Message:        fmt.Sprintf("database restored from %s", filename),
		Warning:        "restart the server to release stale connections",
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		safety := fmt.Sprintf("pre_restore_%s.db", time.Now().Format("20060102_150405"))
		if err := copyFile(m.dbPath, filepath.Join(m.dir, safety)); err != nil {
			return nil, fmt.Errorf("failed to write safety copy: %w", err)
		}
		result.SafetyBackup = safety
	}

	if err := copyFile(source, m.dbPath); err != nil {
		return nil, fmt.Errorf("failed to overwrite database: %w", err)
	}

	m.logger.Infow("Backup restored", "file", filename, "safety_backup", result.SafetyBackup)
	return result, nil
}

func (m *Manager) prune() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for _, old := range backups[minInt(m.keep, len(backups)):] {
		if err := os.Remove(filepath.Join(m.dir, old.Filename)); err != nil {
			return err
		}
	}
	return nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, ".db")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
