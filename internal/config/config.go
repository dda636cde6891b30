// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jfeld/newsvault/internal/news"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	DateRange DateRangeConfig        `mapstructure:"date_range"`
	API       APIConfig              `mapstructure:"api"`
	Article   ArticleConfig          `mapstructure:"article"`
	Storage   StorageConfig          `mapstructure:"storage"`
	Metrics   MetricsConfig          `mapstructure:"metrics"`
	Schedule  ScheduleConfig         `mapstructure:"schedule"`
	Logging   LoggingConfig          `mapstructure:"logging"`
	Topics    map[string]TopicConfig `mapstructure:"topics"`
}

// DateRangeConfig controls the search window and the retention horizon.
type DateRangeConfig struct {
	LookbackDays           int  `mapstructure:"lookback_days"`
	ExcludeToday           bool `mapstructure:"exclude_today"`
	ExcludeTodayOffsetDays int  `mapstructure:"exclude_today_offset_days"`
	RetentionDays          int  `mapstructure:"retention_days"`
}

// APIConfig governs provider calls and pagination behavior.
type APIConfig struct {
	BaseURL                     string  `mapstructure:"base_url"`
	Key                         string  `mapstructure:"key"`
	TimeoutSeconds              int     `mapstructure:"timeout_seconds"`
	PageSize                    int     `mapstructure:"page_size"`
	MaxPages                    int     `mapstructure:"max_pages"`
	MaxCallsPerRun              int     `mapstructure:"max_calls_per_run"`
	PageDelaySeconds            int     `mapstructure:"page_delay_seconds"`
	TopicDelaySeconds           int     `mapstructure:"topic_delay_seconds"`
	MinArticlesPerTopic         int     `mapstructure:"min_articles_per_topic"`
	EarlyStopDuplicateThreshold float64 `mapstructure:"early_stop_duplicate_threshold"`
	CombineTopics               bool    `mapstructure:"combine_topics"`
	Language                    string  `mapstructure:"language"`
	SortBy                      string  `mapstructure:"sort_by"`
}

// ArticleConfig controls article formatting.
type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
}

// StorageConfig selects and configures the snapshot backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// MetricsConfig controls the run summary export and the watch-mode listener.
type MetricsConfig struct {
	ExportPath string `mapstructure:"export_path"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// ScheduleConfig holds the watch-mode cron spec.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LoggingConfig toggles zap development features and the rotating file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// TopicConfig describes one tracked topic.
type TopicConfig struct {
	Name     string `mapstructure:"name"`
	Phrase   string `mapstructure:"phrase"`
	MaxPages int    `mapstructure:"max_pages"`
	Priority int    `mapstructure:"priority"`
}

// Load builds a Config from disk/environment. Environment variables use the
// NEWSVAULT prefix with dots replaced by underscores, so the API key comes
// from NEWSVAULT_API_KEY.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("date_range.lookback_days", 30)
	v.SetDefault("date_range.exclude_today", true)
	v.SetDefault("date_range.exclude_today_offset_days", 1)
	v.SetDefault("date_range.retention_days", 60)
	v.SetDefault("api.base_url", "https://newsapi.org/v2/everything")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("api.page_size", 100)
	v.SetDefault("api.max_pages", 5)
	v.SetDefault("api.max_calls_per_run", 45)
	v.SetDefault("api.page_delay_seconds", 1)
	v.SetDefault("api.topic_delay_seconds", 2)
	v.SetDefault("api.min_articles_per_topic", 10)
	v.SetDefault("api.early_stop_duplicate_threshold", 0.7)
	v.SetDefault("api.combine_topics", true)
	v.SetDefault("api.language", "en")
	v.SetDefault("api.sort_by", "publishedAt")
	v.SetDefault("article.max_description_length", 250)
	v.SetDefault("storage.backend", "yaml")
	v.SetDefault("storage.data_dir", "_data/news")
	v.SetDefault("storage.table", "snapshots")
	v.SetDefault("metrics.export_path", "_data/news_metrics.json")
	v.SetDefault("metrics.listen_addr", ":9090")
	v.SetDefault("schedule.cron", "@every 6h")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.PageSize <= 0 || c.API.PageSize > 100 {
		return fmt.Errorf("api.page_size must be in (0, 100]")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.API.MaxPages <= 0 {
		return fmt.Errorf("api.max_pages must be > 0")
	}
	if c.API.MaxCallsPerRun <= 0 {
		return fmt.Errorf("api.max_calls_per_run must be > 0")
	}
	if t := c.API.EarlyStopDuplicateThreshold; t < 0 || t > 1 {
		return fmt.Errorf("api.early_stop_duplicate_threshold must be in [0, 1]")
	}
	switch c.Storage.Backend {
	case "yaml":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir must be set for the yaml backend")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be yaml or postgres, got %q", c.Storage.Backend)
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("at least one topic must be configured")
	}
	for id, topic := range c.Topics {
		if strings.TrimSpace(topic.Phrase) == "" {
			return fmt.Errorf("topics.%s.phrase must not be empty", id)
		}
	}
	return nil
}

// TopicList converts the topic map into domain topics, sorted by priority
// then ID so run order is deterministic.
func (c Config) TopicList() []news.Topic {
	topics := make([]news.Topic, 0, len(c.Topics))
	for id, tc := range c.Topics {
		name := tc.Name
		if name == "" {
			name = id
		}
		topics = append(topics, news.Topic{
			ID:       id,
			Name:     name,
			Phrase:   tc.Phrase,
			MaxPages: tc.MaxPages,
			Priority: tc.Priority,
		})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Priority != topics[j].Priority {
			return topics[i].Priority < topics[j].Priority
		}
		return topics[i].ID < topics[j].ID
	})
	return topics
}

// Timeout converts the API timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PageDelay converts the inter-page courtesy delay into a duration.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.API.PageDelaySeconds) * time.Second
}

// TopicDelay converts the inter-topic courtesy delay into a duration.
func (c Config) TopicDelay() time.Duration {
	return time.Duration(c.API.TopicDelaySeconds) * time.Second
}
