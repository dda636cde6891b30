package fetch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfeld/newsvault/internal/news"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

func testClock() fixedClock {
	return fixedClock{at: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)}
}

func TestPhraseMatcherContiguousWordBounded(t *testing.T) {
	t.Parallel()

	matcher, err := NewPhraseMatcher("Deep Learning")
	require.NoError(t, err)

	tests := []struct {
		title string
		want  bool
	}{
		{"New Deep Learning Breakthrough", true},
		{"deep learning advances", true},
		{"Deep  Learning with odd spacing", true},
		{"Deep understanding of Machine Learning", false},
		{"Deeper Learning methods", false},
		{"Learning Deep networks", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matcher.Matches(tt.title), "title %q", tt.title)
	}
}

func TestPhraseMatcherEscapesMetaCharacters(t *testing.T) {
	t.Parallel()

	matcher, err := NewPhraseMatcher("C++ runtime")
	require.NoError(t, err)
	assert.True(t, matcher.Matches("Inside the C++ runtime"))
}

func TestPhraseMatcherRejectsEmptyPhrase(t *testing.T) {
	t.Parallel()

	_, err := NewPhraseMatcher("   ")
	require.Error(t, err)
}

func TestFilterValidation(t *testing.T) {
	t.Parallel()

	matcher, err := NewPhraseMatcher("Deep Learning")
	require.NoError(t, err)
	filter := NewFilter(250, testClock())

	_, verdict := filter.Process(news.RawArticle{Title: "Deep Learning wins"}, matcher)
	assert.Equal(t, Invalid, verdict, "missing url")

	_, verdict = filter.Process(news.RawArticle{URL: "https://a"}, matcher)
	assert.Equal(t, Invalid, verdict, "missing title")

	first := news.RawArticle{Title: "Deep Learning wins", URL: "https://a"}
	_, verdict = filter.Process(first, matcher)
	require.Equal(t, Accepted, verdict)

	_, verdict = filter.Process(first, matcher)
	assert.Equal(t, Invalid, verdict, "duplicate url within cycle")

	_, verdict = filter.Process(news.RawArticle{Title: "Quantum computing", URL: "https://b"}, matcher)
	assert.Equal(t, Unmatched, verdict)
}

func TestFilterFormatting(t *testing.T) {
	t.Parallel()

	matcher, err := NewPhraseMatcher("Deep Learning")
	require.NoError(t, err)
	filter := NewFilter(10, testClock())

	article, verdict := filter.Process(news.RawArticle{
		Title:       "Deep Learning everywhere",
		URL:         "https://a",
		Description: strings.Repeat("x", 40),
		PublishedAt: "2025-01-10T08:00:00Z",
		Source:      news.RawSource{Name: "Example Times"},
	}, matcher)
	require.Equal(t, Accepted, verdict)
	assert.Equal(t, strings.Repeat("x", 10), article.Description)
	assert.Equal(t, "2025-01-10", article.Date)
	assert.Equal(t, "Example Times", article.Source)
}

func TestFilterSentinelDefaults(t *testing.T) {
	t.Parallel()

	matcher, err := NewPhraseMatcher("Deep Learning")
	require.NoError(t, err)
	filter := NewFilter(250, testClock())

	article, verdict := filter.Process(news.RawArticle{
		Title: "Deep Learning without metadata",
		URL:   "https://a",
	}, matcher)
	require.Equal(t, Accepted, verdict)
	assert.Equal(t, news.DefaultDescription, article.Description)
	assert.Equal(t, news.DefaultSource, article.Source)
	assert.Equal(t, "2025-01-15", article.Date, "absent date defaults to today")
}
