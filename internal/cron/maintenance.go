package cron

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fortidash/internal/sheets"
)

// Maintenance runs the background housekeeping jobs: periodic sheet
// cache refreshes and nightly backups of the durable JSON files.
type Maintenance struct {
	cron        *cron.Cron
	source      *sheets.Source
	logger      *zap.Logger
	backupFiles []string
}

// New creates the maintenance scheduler. backupFiles are the durable
// state files copied aside every night.
func New(source *sheets.Source, backupFiles []string, logger *zap.Logger) *Maintenance {
	return &Maintenance{
		cron:        cron.New(cron.WithSeconds()),
		source:      source,
		logger:      logger,
		backupFiles: backupFiles,
	}
}

// Start registers and starts all maintenance jobs.
func (m *Maintenance) Start() {
	m.logger.Info("Starting maintenance scheduler...")

	// Sheet cache refresh - every hour
	m.cron.AddFunc("0 0 * * * *", func() {
		m.logger.Debug("Running: sheet cache refresh")
		m.refreshSheets()
	})

	// Backup - daily at 3 AM
	m.cron.AddFunc("0 0 3 * * *", func() {
		m.logger.Debug("Running: backup")
		m.backup()
	})

	m.cron.Start()
}

// Stop stops the cron scheduler and returns a context that is done
// once running jobs finish.
func (m *Maintenance) Stop() context.Context {
	m.logger.Info("Stopping maintenance scheduler...")
	return m.cron.Stop()
}

func (m *Maintenance) refreshSheets() {
	for _, sheet := range []string{
		sheets.SheetAgencyStats,
		sheets.SheetAgentTotals,
		sheets.SheetVendorTotals,
	} {
		if err := m.source.Refresh(sheet); err != nil {
			m.logger.Warn("Sheet refresh failed",
				zap.String("sheet", sheet), zap.Error(err))
		}
	}
}

func (m *Maintenance) backup() {
	for _, path := range m.backupFiles {
		if path == "" {
			continue
		}
		if err := copyFile(path, path+".bak"); err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warn("Backup failed",
					zap.String("file", path), zap.Error(err))
			}
			continue
		}
		m.logger.Info("Backup written", zap.String("file", path+".bak"))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy backup: %w", err)
	}
	return out.Close()
}
