// Package newsapi implements the provider request layer: single-call
// execution plus content-based outcome classification.
package newsapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/news"
)

const (
	// DefaultBaseURL is the provider's article search endpoint.
	DefaultBaseURL = "https://newsapi.org/v2/everything"

	defaultTimeout = 15 * time.Second

	// maxBodyBytes bounds how much of a response body is ever read.
	maxBodyBytes = 1 << 20

	// errorBodyPreview bounds how much error body ends up in logs.
	errorBodyPreview = 500
)

// Config captures the parameters for the provider client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client issues single provider calls. It never returns a raw error: every
// call collapses into a FetchOutcome, with the elapsed time measured even
// for failures.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Search fetches one page for the query and classifies the result.
func (c *Client) Search(ctx context.Context, q news.Query, page int) news.FetchOutcome {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		c.logger.Error("build provider request failed", zap.Error(err))
		return news.FetchOutcome{Kind: news.OutcomeFailure, Elapsed: time.Since(start)}
	}
	req.URL.RawQuery = c.params(q, page).Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport errors are transient: they abort only the
		// current page and the caller falls back to cache.
		c.logger.Error("provider request failed",
			zap.Int("page", page),
			zap.Error(err),
		)
		return news.FetchOutcome{Kind: news.OutcomeFailure, Elapsed: time.Since(start)}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("read provider response failed",
			zap.Int("page", page),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
		return news.FetchOutcome{Kind: news.OutcomeFailure, Elapsed: elapsed}
	}

	kind, payload := Classify(resp.StatusCode, body)
	switch kind {
	case news.OutcomeRateLimited:
		c.logger.Warn("provider rate limit detected, quota exhausted",
			zap.Int("status_code", resp.StatusCode),
		)
	case news.OutcomeResultLimit:
		c.logger.Info("provider result limit reached",
			zap.Int("status_code", resp.StatusCode),
			zap.Bool("partial_payload", payload != nil),
		)
	case news.OutcomeFailure:
		c.logger.Error("provider returned unclassified error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", truncate(string(body), errorBodyPreview)),
		)
	}
	return news.FetchOutcome{Kind: kind, Page: payload, Elapsed: elapsed}
}

func (c *Client) params(q news.Query, page int) url.Values {
	values := url.Values{}
	values.Set("qInTitle", q.Title)
	values.Set("sortBy", q.SortBy)
	values.Set("language", q.Language)
	values.Set("pageSize", strconv.Itoa(q.PageSize))
	values.Set("page", strconv.Itoa(page))
	values.Set("from", q.From)
	values.Set("to", q.To)
	values.Set("apiKey", c.cfg.APIKey)
	return values
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
