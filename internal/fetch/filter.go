package fetch

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jfeld/newsvault/internal/news"
)

// PhraseMatcher matches a topic's exact phrase against article titles. The
// match is case-insensitive and requires the phrase's words to appear as a
// contiguous, word-bounded unit: "New Deep Learning Breakthrough" matches
// "Deep Learning", "Deep understanding of Machine Learning" does not.
type PhraseMatcher struct {
	re *regexp.Regexp
}

// NewPhraseMatcher compiles the matcher for one phrase.
func NewPhraseMatcher(phrase string) (*PhraseMatcher, error) {
	words := strings.Fields(regexp.QuoteMeta(strings.TrimSpace(phrase)))
	if len(words) == 0 {
		return nil, errors.New("phrase is required")
	}
	re, err := regexp.Compile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
	if err != nil {
		return nil, err
	}
	return &PhraseMatcher{re: re}, nil
}

// Matches reports whether the phrase appears in the title.
func (m *PhraseMatcher) Matches(title string) bool {
	return m.re.MatchString(title)
}

// Verdict classifies what happened to one provider record.
type Verdict int

// Filter verdicts. Rejections are counted, never treated as errors.
const (
	// Accepted means the record was formatted into an Article.
	Accepted Verdict = iota
	// Invalid means title or URL was missing, or the URL repeated within
	// this fetch cycle.
	Invalid
	// Unmatched means the topic phrase did not appear in the title.
	Unmatched
)

// Filter validates, phrase-matches, and formats provider records. Seen URLs
// accumulate across pages of the same fetch cycle so duplicates between
// pages are dropped.
type Filter struct {
	seen           map[string]struct{}
	maxDescription int
	clock          news.Clock
}

// NewFilter creates a Filter for one fetch cycle.
func NewFilter(maxDescription int, clock news.Clock) *Filter {
	return &Filter{
		seen:           make(map[string]struct{}),
		maxDescription: maxDescription,
		clock:          clock,
	}
}

// Process runs one record through validation, phrase matching, and
// formatting. Only Accepted records mark their URL as seen.
func (f *Filter) Process(raw news.RawArticle, matcher *PhraseMatcher) (news.Article, Verdict) {
	if raw.URL == "" || raw.Title == "" {
		return news.Article{}, Invalid
	}
	if _, dup := f.seen[raw.URL]; dup {
		return news.Article{}, Invalid
	}
	if !matcher.Matches(raw.Title) {
		return news.Article{}, Unmatched
	}

	f.seen[raw.URL] = struct{}{}
	return news.Article{
		Title:       raw.Title,
		Description: f.description(raw.Description),
		URL:         raw.URL,
		Date:        f.date(raw.PublishedAt),
		Source:      f.source(raw.Source.Name),
	}, Accepted
}

func (f *Filter) description(raw string) string {
	if raw == "" {
		return news.DefaultDescription
	}
	runes := []rune(raw)
	if f.maxDescription > 0 && len(runes) > f.maxDescription {
		return string(runes[:f.maxDescription])
	}
	return raw
}

// date reduces the publish timestamp to date-only precision, defaulting to
// today when the provider omitted it.
func (f *Filter) date(publishedAt string) string {
	if len(publishedAt) >= len(news.DateFormat) {
		return publishedAt[:len(news.DateFormat)]
	}
	return f.clock.Now().UTC().Format(news.DateFormat)
}

func (f *Filter) source(name string) string {
	if name == "" {
		return news.DefaultSource
	}
	return name
}
