package cache

import (
	"time"

	"github.com/jfeld/newsvault/internal/news"
)

// Trim drops articles older than retentionDays, measured against the
// calendar date of now: an article dated exactly retentionDays ago is kept.
// Articles whose date does not parse are kept rather than silently lost.
// A retentionDays of zero or less disables trimming.
func Trim(items []news.Article, now time.Time, retentionDays int) []news.Article {
	if retentionDays <= 0 || len(items) == 0 {
		return items
	}

	cutoff := now.AddDate(0, 0, -retentionDays).Format(news.DateFormat)

	kept := make([]news.Article, 0, len(items))
	for _, a := range items {
		if _, err := time.Parse(news.DateFormat, a.Date); err != nil {
			kept = append(kept, a)
			continue
		}
		if a.Date >= cutoff {
			kept = append(kept, a)
		}
	}
	return kept
}
