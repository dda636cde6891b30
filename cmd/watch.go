package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/clock/system"
	"github.com/jfeld/newsvault/internal/metrics"
	"github.com/jfeld/newsvault/internal/newsapi"
	"github.com/jfeld/newsvault/internal/runner"
	"github.com/jfeld/newsvault/internal/scheduler"
)

// newWatchCmd creates the 'watch' subcommand: a daemon that fires update
// runs on the configured cron schedule and serves Prometheus metrics.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Runs update cycles on a cron schedule until interrupted",
		RunE:  runWatchCommand,
	}
}

func runWatchCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	metrics.Init()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	clock := system.New()
	searcher := newsapi.New(newsapi.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
		Timeout: cfg.Timeout(),
	}, logger)
	topics := cfg.TopicList()
	runCfg := runnerConfig(cfg)

	doRun := func(runCtx context.Context) error {
		runLogger := logger.With(zap.String("run_id", uuid.NewString()))
		tracker := metrics.NewTracker(clock.Now())
		run := runner.New(searcher, store, clock, runCfg, topics, tracker, runLogger)
		report, err := run.Run(runCtx)
		summary := tracker.Summary(clock.Now(), report.CallsUsed, report.RateLimited)
		exportRunSummary(cfg.Metrics.ExportPath, summary, logger)

		result := "success"
		if err != nil || report.TopicsFailed > 0 {
			result = "degraded"
		}
		metrics.ObserveRun(result)
		return err
	}

	sched, err := scheduler.New(cfg.Schedule.Cron, doRun, logger)
	if err != nil {
		return err
	}

	var srv *metrics.Server
	serverErr := make(chan error, 1)
	if cfg.Metrics.ListenAddr != "" {
		srv = metrics.NewServer(cfg.Metrics.ListenAddr, logger)
		go func() { serverErr <- srv.Start() }()
	}

	sched.Start()
	logger.Info("watch mode started", zap.String("cron", cfg.Schedule.Cron))

	// First run happens immediately rather than waiting for the schedule.
	go sched.RunOnce()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}

	sched.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	logger.Info("watch mode stopped")
	return nil
}
