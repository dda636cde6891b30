// Package cmd defines and implements the CLI commands for the newsvault
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/config"
	"github.com/jfeld/newsvault/internal/logging"
	"github.com/jfeld/newsvault/internal/metrics"
	"github.com/jfeld/newsvault/internal/news"
	pgstore "github.com/jfeld/newsvault/internal/store/postgres"
	"github.com/jfeld/newsvault/internal/store/yamlfile"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsvault",
		Short: "Periodic news fetcher with per-topic durable snapshots.",
		Long: `newsvault searches a news provider for configured topic phrases,
filters and deduplicates the results, merges them into per-topic cached
snapshots, and trims articles past the retention window. Provider calls
are capped per run and a rate-limited provider degrades gracefully to the
cached data.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./newsvault.yaml)")

	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("newsvault.yaml"); err == nil {
			path = "newsvault.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// buildStore selects the snapshot backend. The returned closer is a no-op
// for the file backend.
func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (news.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		store, err := pgstore.New(ctx, pgstore.SnapshotStoreConfig{
			DSN:   cfg.Storage.DSN,
			Table: cfg.Storage.Table,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, store.Close, nil
	default:
		return yamlfile.New(cfg.Storage.DataDir, logger), func() {}, nil
	}
}

func exportRunSummary(path string, summary metrics.RunSummary, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := metrics.ExportJSON(path, summary); err != nil {
		logger.Warn("export run summary failed", zap.Error(err))
	}
}
