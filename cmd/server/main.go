package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fortidash/internal/bootstrap"
	"fortidash/internal/config"
	cronpkg "fortidash/internal/cron"
	"fortidash/internal/handler/api"
	"fortidash/internal/mailer"
	"fortidash/internal/report"
	"fortidash/internal/router"
	"fortidash/internal/scheduler"
	"fortidash/internal/settings"
	"fortidash/internal/sheets"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := bootstrap.EnsureDataDirs(cfg); err != nil {
		logger.Fatal("Failed to prepare data directories", zap.Error(err))
	}

	// --- Durable state ---
	settingsMgr := settings.NewManager(cfg.Data.SettingsFile, logger)
	registry := scheduler.NewRegistry(cfg.Data.SchedulesFile, logger)

	// --- Sheet data source (Redis cache with in-memory fallback) ---
	cache, cacheErr := sheets.NewCache(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB, cfg.Data.CacheTTL)
	if cacheErr != nil {
		logger.Warn("Redis unavailable for sheet cache, using in-memory fallback", zap.Error(cacheErr))
	}
	client := sheets.NewClient(cfg.Sheets.SpreadsheetID, cfg.Sheets.APIKey, logger)
	source := sheets.NewSource(client, cache, cfg.Data.SnapshotDir(), cfg.Data.SampleWorkbook, logger)

	// --- Reports and delivery ---
	builder := report.NewBuilder(source, logger, settingsMgr.ReportSettings())
	mail := mailer.New(mailer.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		UseTLS:      cfg.SMTP.UseTLS,
		SenderEmail: cfg.SMTP.SenderEmail,
		SenderName:  cfg.SMTP.SenderName,
		Password:    cfg.SMTP.Password,
		AuthType:    cfg.SMTP.AuthType,
	}, logger)

	// --- Report scheduler ---
	sched := scheduler.New(registry, mail, logger, scheduler.Options{
		PollInterval: cfg.Scheduler.PollInterval,
		RetryBackoff: cfg.Scheduler.RetryBackoff,
	})
	for kind, gen := range builder.Generators() {
		sched.Register(kind, gen)
	}
	sched.Start()

	// --- Maintenance cron ---
	maintenance := cronpkg.New(source, []string{cfg.Data.SchedulesFile, cfg.Data.SettingsFile}, logger)
	maintenance.Start()

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	deps := &api.Deps{
		Registry:  registry,
		Scheduler: sched,
		Builder:   builder,
		Mailer:    mail,
		Settings:  settingsMgr,
		Logger:    logger,
	}
	router.Setup(e, deps, cfg.API.Key)

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting report server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop the report scheduler first so no send is cut off mid-pass.
	sched.Stop()

	ctx := maintenance.Stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
