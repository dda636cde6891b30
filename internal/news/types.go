// Package news defines the core types shared across the fetch pipeline.
package news

import "time"

// DateFormat is the date-only precision used for article dates, the
// provider's from/to window, and retention cutoffs.
const DateFormat = "2006-01-02"

// Sentinel values substituted when the provider omits a field.
const (
	DefaultDescription = "No description available."
	DefaultSource      = "Unknown"
)

// StatusOK is the provider's success status marker.
const StatusOK = "ok"

// Article is a single formatted news item as persisted per topic.
// An Article is never stored without both a title and a URL; the URL is the
// unique key within a topic's collection.
type Article struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url"`
	Date        string `yaml:"date" json:"date"`
	Source      string `yaml:"source" json:"source"`
}

// Topic names a tracked subject whose articles live in one persisted
// collection, identified by an exact search phrase.
type Topic struct {
	ID       string
	Name     string
	Phrase   string
	MaxPages int // optional per-topic page cap; 0 means use the global cap
	Priority int // lower runs first
}

// RawSource is the provider's source descriptor.
type RawSource struct {
	Name string `json:"name"`
}

// RawArticle is one provider record before validation and formatting.
type RawArticle struct {
	Source      RawSource `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
}

// SearchPage is the parsed payload of one provider call. Error responses
// reuse the same envelope with Code/Message set; some error responses still
// carry a usable article list.
type SearchPage struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []RawArticle `json:"articles"`
	Code         string       `json:"code,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// OutcomeKind classifies a single provider call.
type OutcomeKind string

// Outcome kinds. No raw error ever crosses the request layer; every call
// collapses into one of these.
const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeRateLimited OutcomeKind = "rate_limited"
	OutcomeResultLimit OutcomeKind = "result_limit"
	OutcomeFailure     OutcomeKind = "failure"
)

// FetchOutcome is the classified result of one provider call. Page is nil
// unless the call succeeded or a result-limit error carried a partial
// article list.
type FetchOutcome struct {
	Kind    OutcomeKind
	Page    *SearchPage
	Elapsed time.Duration
}

// Query captures the provider search parameters shared across pages of one
// fetch cycle. Title holds the quoted phrase, or the OR-combined quoted
// phrases in combined mode.
type Query struct {
	Title    string
	From     string
	To       string
	Language string
	SortBy   string
	PageSize int
}
