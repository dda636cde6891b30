package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/clock/system"
	"github.com/jfeld/newsvault/internal/config"
	"github.com/jfeld/newsvault/internal/fetch"
	"github.com/jfeld/newsvault/internal/metrics"
	"github.com/jfeld/newsvault/internal/newsapi"
	"github.com/jfeld/newsvault/internal/runner"
)

// newUpdateCmd creates the 'update' subcommand, which performs one full
// fetch-merge-save cycle and exits.
func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Runs one update cycle across all configured topics",
		Long: `Fetches fresh articles for every configured topic, merges them into
the cached snapshots, applies retention, and writes a run summary. Topics
whose fetch fails keep their previous snapshot.`,
		RunE: runUpdateCommand,
	}
}

func runUpdateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	metrics.Init()

	store, closeStore, err := buildStore(cmd.Context(), cfg, logger)
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
	tracker := metrics.NewTracker(clock.Now())

	run := runner.New(searcher, store, clock, runnerConfig(cfg), cfg.TopicList(), tracker, logger)

	report, err := run.Run(cmd.Context())
	summary := tracker.Summary(clock.Now(), report.CallsUsed, report.RateLimited)
	exportRunSummary(cfg.Metrics.ExportPath, summary, logger)

	result := "success"
	if err != nil || report.TopicsFailed > 0 {
		result = "degraded"
	}
	metrics.ObserveRun(result)

	if err != nil {
		return err
	}
	logger.Info("update complete",
		zap.Int("processed", report.TopicsProcessed),
		zap.Int("failed", report.TopicsFailed),
		zap.Int("calls_used", report.CallsUsed),
		zap.Bool("rate_limited", report.RateLimited),
	)
	return nil
}

func runnerConfig(cfg config.Config) runner.Config {
	return runner.Config{
		MaxCallsPerRun: cfg.API.MaxCallsPerRun,
		RetentionDays:  cfg.DateRange.RetentionDays,
		TopicDelay:     cfg.TopicDelay(),
		Combine:        cfg.API.CombineTopics,
		DateRange: fetch.DateRangeConfig{
			LookbackDays:           cfg.DateRange.LookbackDays,
			ExcludeToday:           cfg.DateRange.ExcludeToday,
			ExcludeTodayOffsetDays: cfg.DateRange.ExcludeTodayOffsetDays,
		},
		Fetch: fetch.Config{
			PageSize:             cfg.API.PageSize,
			MaxPages:             cfg.API.MaxPages,
			MinArticles:          cfg.API.MinArticlesPerTopic,
			DuplicateStopRatio:   cfg.API.EarlyStopDuplicateThreshold,
			PageDelay:            cfg.PageDelay(),
			Language:             cfg.API.Language,
			SortBy:               cfg.API.SortBy,
			MaxDescriptionLength: cfg.Article.MaxDescriptionLength,
		},
	}
}
