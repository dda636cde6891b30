package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jfeld/newsvault/internal/news"
)

func TestDateRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 23, 45, 0, 0, time.UTC)

	t.Run("exclude today backs off the upper bound", func(t *testing.T) {
		t.Parallel()
		from, to := DateRange(now, DateRangeConfig{
			LookbackDays:           30,
			ExcludeToday:           true,
			ExcludeTodayOffsetDays: 1,
		})
		assert.Equal(t, "2024-12-16", from)
		assert.Equal(t, "2025-01-14", to)
	})

	t.Run("include today", func(t *testing.T) {
		t.Parallel()
		from, to := DateRange(now, DateRangeConfig{LookbackDays: 7})
		assert.Equal(t, "2025-01-08", from)
		assert.Equal(t, "2025-01-15", to)
	})
}

func TestBuildQueryQuotesPhrase(t *testing.T) {
	t.Parallel()

	cfg := Config{PageSize: 100, Language: "en", SortBy: "publishedAt"}
	q := BuildQuery(news.Topic{ID: "dl", Phrase: "Deep Learning"}, "2025-01-01", "2025-01-14", cfg)

	assert.Equal(t, `"Deep Learning"`, q.Title)
	assert.Equal(t, "2025-01-01", q.From)
	assert.Equal(t, "2025-01-14", q.To)
	assert.Equal(t, 100, q.PageSize)
}

func TestBuildCombinedQueryORsPhrases(t *testing.T) {
	t.Parallel()

	topics := []news.Topic{
		{ID: "dl", Phrase: "Deep Learning"},
		{ID: "ml", Phrase: "Machine Learning"},
		{ID: "empty", Phrase: ""},
	}
	q := BuildCombinedQuery(topics, "2025-01-01", "2025-01-14", Config{PageSize: 100})
	assert.Equal(t, `"Deep Learning" OR "Machine Learning"`, q.Title)
}
