package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"fortidash/internal/config"
)

// EnsureDataDirs creates the directories the durable JSON state and
// sheet snapshots live in.
func EnsureDataDirs(cfg *config.Config) error {
	dirs := []string{
		cfg.Data.Dir,
		cfg.Data.SnapshotDir(),
		filepath.Dir(cfg.Data.SchedulesFile),
		filepath.Dir(cfg.Data.SettingsFile),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}
