// Package fetch drives provider pagination, article filtering, and routing
// of combined-query results to their owning topics.
package fetch

import (
	"fmt"
	"strings"
	"time"

	"github.com/jfeld/newsvault/internal/news"
)

// Config carries the pagination and filtering knobs for one run.
type Config struct {
	PageSize             int
	MaxPages             int
	MinArticles          int
	DuplicateStopRatio   float64
	PageDelay            time.Duration
	Language             string
	SortBy               string
	MaxDescriptionLength int
}

// DateRangeConfig controls the provider date window of a run.
type DateRangeConfig struct {
	LookbackDays           int
	ExcludeToday           bool
	ExcludeTodayOffsetDays int
}

// DateRange computes the from/to window for a run at date-only precision.
// With ExcludeToday set, the upper bound backs off by the configured offset
// so partially indexed days are not queried.
func DateRange(now time.Time, cfg DateRangeConfig) (string, string) {
	now = now.UTC()
	from := now.AddDate(0, 0, -cfg.LookbackDays)
	to := now
	if cfg.ExcludeToday {
		to = now.AddDate(0, 0, -cfg.ExcludeTodayOffsetDays)
	}
	return from.Format(news.DateFormat), to.Format(news.DateFormat)
}

// BuildQuery returns the provider parameters for one topic. The phrase is
// quoted so the provider matches it exactly.
func BuildQuery(topic news.Topic, from, to string, cfg Config) news.Query {
	return news.Query{
		Title:    fmt.Sprintf("%q", topic.Phrase),
		From:     from,
		To:       to,
		Language: cfg.Language,
		SortBy:   cfg.SortBy,
		PageSize: cfg.PageSize,
	}
}

// BuildCombinedQuery ORs every topic's quoted phrase into a single query so
// one provider call serves all topics.
func BuildCombinedQuery(topics []news.Topic, from, to string, cfg Config) news.Query {
	phrases := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic.Phrase == "" {
			continue
		}
		phrases = append(phrases, fmt.Sprintf("%q", topic.Phrase))
	}
	return news.Query{
		Title:    strings.Join(phrases, " OR "),
		From:     from,
		To:       to,
		Language: cfg.Language,
		SortBy:   cfg.SortBy,
		PageSize: cfg.PageSize,
	}
}
