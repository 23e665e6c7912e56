package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"adjanitor/activedirectory"
	"adjanitor/auditlog"
	"adjanitor/config"
	"adjanitor/history"
	"adjanitor/lifecycle"
)

func main() {
	var (
		configFile string
		schedule   string
		dryRun     bool
	)

	rootCmd := &cobra.Command{
		Use:   "adjanitor",
		Short: "Machine-account lifecycle sweeper for Active Directory",
		Long: `adjanitor sweeps an Active Directory domain for inactive machine
accounts: it quarantines and disables them (honouring an exception list),
re-disables accounts that drifted back to enabled inside the quarantine OU,
and permanently deletes quarantined accounts once the retention period has
elapsed.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, schedule, dryRun)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "settings.env", "env file with LDAP and sweep settings")
	rootCmd.Flags().StringVar(&schedule, "schedule", "", "cron expression for recurring sweeps; empty runs one sweep and exits")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what the sweep would do without touching the directory")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, schedule string, dryRun bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadEnvConfig(configFile)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	adInstance := activedirectory.NewActiveDirectoryInstance(cfg.BaseDn, cfg.DcFQDN, cfg.PageSize)
	if err := adInstance.Connect(cfg.Username, cfg.Password); err != nil {
		logger.Error("directory connection failed", "error", err)
		return err
	}
	defer adInstance.Close()

	var store *history.Store
	if cfg.HistoryDsn != "" {
		store = history.NewStore(cfg.HistoryDsn)
		if err := store.Connect(ctx); err != nil {
			// History is best effort; the sweep proceeds without it.
			logger.Warn("history store unavailable", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	sweep := newSweep(cfg, adInstance, auditlog.NewFileSink(cfg.AuditLogPath), logger, dryRun)

	runOnce := func() error {
		sum, err := sweep.Run(ctx)
		if store != nil && sum != nil {
			if herr := store.RecordSweep(ctx, sum); herr != nil {
				logger.Warn("failed to record sweep history", "error", herr)
			}
		}
		return err
	}

	if schedule == "" {
		return runOnce()
	}
	return runScheduled(ctx, schedule, logger, runOnce)
}

// runScheduled executes the sweep on a cron schedule until the context is
// cancelled. A sweep still in flight when the next tick fires makes that tick
// a no-op; sweeps never overlap within one process.
func runScheduled(ctx context.Context, schedule string, logger *slog.Logger, runOnce func() error) error {
	var running sync.Mutex

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if !running.TryLock() {
			logger.Warn("previous sweep still running, skipping this tick")
			return
		}
		defer running.Unlock()
		if err := runOnce(); err != nil {
			logger.Error("scheduled sweep aborted", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid cron schedule", "schedule", schedule, "error", err)
		return err
	}

	c.Start()
	logger.Info("sweep scheduler started", "schedule", schedule)
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("sweep scheduler stopped")
	return nil
}

func newSweep(cfg config.Configuration, dir lifecycle.Directory, audit auditlog.Sink, logger *slog.Logger, dryRun bool) *lifecycle.Sweep {
	exceptions := lifecycle.NewExceptionList(cfg.ExceptionNames...)
	return &lifecycle.Sweep{
		Scanner: &lifecycle.Scanner{
			Directory:      dir,
			Roots:          cfg.SearchRoots,
			Scope:          cfg.SearchScope,
			InactivityDays: cfg.InactivityDays,
			Exceptions:     exceptions,
			Audit:          audit,
		},
		Transitioner: &lifecycle.Transitioner{
			Directory:      dir,
			QuarantinePath: cfg.QuarantinePath,
			Exceptions:     exceptions,
			RetentionDays:  cfg.RetentionDays,
			Audit:          audit,
			DryRun:         dryRun,
		},
		Reconciler: &lifecycle.Reconciler{
			Directory:      dir,
			QuarantinePath: cfg.QuarantinePath,
			Audit:          audit,
			DryRun:         dryRun,
		},
		Reaper: &lifecycle.Reaper{
			Directory:      dir,
			QuarantinePath: cfg.QuarantinePath,
			RetentionDays:  cfg.RetentionDays,
			Audit:          audit,
			DryRun:         dryRun,
		},
		Audit:  audit,
		Logger: logger,
	}
}
