package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fortidash/internal/bootstrap"
	"fortidash/internal/config"
	"fortidash/internal/mailer"
	"fortidash/internal/report"
	"fortidash/internal/scheduler"
	"fortidash/internal/settings"
	"fortidash/internal/sheets"
)

// app bundles the wired components the subcommands share.
type app struct {
	logger    *zap.Logger
	scheduler *scheduler.Scheduler
	mailer    *mailer.Mailer
}

// setup wires the shared components. pollInterval overrides the
// configured loop interval when positive.
func setup(pollInterval time.Duration) (*app, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := bootstrap.EnsureDataDirs(cfg); err != nil {
		return nil, err
	}

	settingsMgr := settings.NewManager(cfg.Data.SettingsFile, logger)
	registry := scheduler.NewRegistry(cfg.Data.SchedulesFile, logger)

	cache, cacheErr := sheets.NewCache(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB, cfg.Data.CacheTTL)
	if cacheErr != nil {
		logger.Warn("Redis unavailable for sheet cache, using in-memory fallback", zap.Error(cacheErr))
	}
	client := sheets.NewClient(cfg.Sheets.SpreadsheetID, cfg.Sheets.APIKey, logger)
	source := sheets.NewSource(client, cache, cfg.Data.SnapshotDir(), cfg.Data.SampleWorkbook, logger)

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

	if pollInterval > 0 {
		cfg.Scheduler.PollInterval = pollInterval
	}
	sched := scheduler.New(registry, mail, logger, scheduler.Options{
		PollInterval: cfg.Scheduler.PollInterval,
		RetryBackoff: cfg.Scheduler.RetryBackoff,
	})
	for kind, gen := range builder.Generators() {
		sched.Register(kind, gen)
	}

	return &app{logger: logger, scheduler: sched, mailer: mail}, nil
}

func main() {
	root := &cobra.Command{
		Use:          "scheduler",
		Short:        "Run scheduled report delivery",
		Long:         "Executes due report jobs: a single pass by default, or continuously with the daemon subcommand.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce()
		},
	}

	var interval time.Duration
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(interval)
		},
	}
	daemonCmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "time between due-job checks")

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test email to verify SMTP settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest()
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print schedule and email status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	root.AddCommand(daemonCmd, testCmd, statusCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runOnce() error {
	a, err := setup(0)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ran, failed := a.scheduler.RunPass()
	a.logger.Info("Pass completed", zap.Int("ran", ran), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}

func runDaemon(interval time.Duration) error {
	a, err := setup(interval)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	a.scheduler.Start()
	a.logger.Info("Scheduler daemon running", zap.Duration("interval", interval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.scheduler.Stop()
	return nil
}

func runTest() error {
	a, err := setup(0)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	if err := a.mailer.Test(); err != nil {
		return fmt.Errorf("email test failed: %w", err)
	}
	fmt.Println("Test email sent.")
	return nil
}

func runStatus() error {
	a, err := setup(0)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	s := a.scheduler.Summarize()
	fmt.Printf("Jobs:       %d total, %d enabled, %d due\n", s.TotalJobs, s.EnabledJobs, s.DueJobs)
	fmt.Printf("Email:      configured=%v\n", s.EmailConfigured)
	return nil
}
