package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jfeld/newsvault/internal/news"
)

// TopicSummary aggregates one topic's activity during a run.
type TopicSummary struct {
	Calls        int     `json:"calls"`
	Errors       int     `json:"errors"`
	Fetched      int     `json:"fetched"`
	Filtered     int     `json:"filtered"`
	Saved        int     `json:"saved"`
	MinLatencyMS float64 `json:"min_latency_ms"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
	MaxLatencyMS float64 `json:"max_latency_ms"`
}

// RunSummary is the JSON document exported at the end of a run.
type RunSummary struct {
	StartedAt   time.Time               `json:"started_at"`
	FinishedAt  time.Time               `json:"finished_at"`
	CallsUsed   int                     `json:"calls_used"`
	RateLimited bool                    `json:"rate_limited"`
	Topics      map[string]TopicSummary `json:"topics"`
}

type topicCounters struct {
	calls      int
	errors     int
	fetched    int
	filtered   int
	saved      int
	totalDur   time.Duration
	minDur     time.Duration
	maxDur     time.Duration
	hasLatency bool
}

// Tracker accumulates per-topic counters for one run and mirrors them into
// the Prometheus collectors. It satisfies the fetch package's Observer.
type Tracker struct {
	mu        sync.Mutex
	startedAt time.Time
	topics    map[string]*topicCounters
}

// NewTracker starts a run-scoped tracker. Init must have been called first
// so the Prometheus collectors exist.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{
		startedAt: now,
		topics:    make(map[string]*topicCounters),
	}
}

func (t *Tracker) topic(id string) *topicCounters {
	c, ok := t.topics[id]
	if !ok {
		c = &topicCounters{}
		t.topics[id] = c
	}
	return c
}

// Call records one provider call and its outcome.
func (t *Tracker) Call(topicID string, kind news.OutcomeKind, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.topic(topicID)
	c.calls++
	if kind != news.OutcomeSuccess {
		c.errors++
	}
	if elapsed > 0 {
		c.totalDur += elapsed
		if !c.hasLatency || elapsed < c.minDur {
			c.minDur = elapsed
		}
		if elapsed > c.maxDur {
			c.maxDur = elapsed
		}
		c.hasLatency = true
	}

	ObserveProviderCall(topicID, string(kind), elapsed)
}

// Fetched records articles accepted for a topic.
func (t *Tracker) Fetched(topicID string, n int) {
	t.mu.Lock()
	t.topic(topicID).fetched += n
	t.mu.Unlock()

	ObserveArticles(topicID, "fetched", n)
}

// Filtered records articles rejected by the phrase filter.
func (t *Tracker) Filtered(topicID string, n int) {
	t.mu.Lock()
	t.topic(topicID).filtered += n
	t.mu.Unlock()

	ObserveArticles(topicID, "filtered", n)
}

// Saved records the snapshot size persisted for a topic.
func (t *Tracker) Saved(topicID string, n int) {
	t.mu.Lock()
	t.topic(topicID).saved = n
	t.mu.Unlock()

	ObserveArticles(topicID, "saved", n)
	SetCachedArticles(topicID, n)
}

// Summary snapshots the run's counters.
func (t *Tracker) Summary(finishedAt time.Time, callsUsed int, rateLimited bool) RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	topics := make(map[string]TopicSummary, len(t.topics))
	for id, c := range t.topics {
		s := TopicSummary{
			Calls:    c.calls,
			Errors:   c.errors,
			Fetched:  c.fetched,
			Filtered: c.filtered,
			Saved:    c.saved,
		}
		if c.hasLatency && c.calls > 0 {
			s.MinLatencyMS = float64(c.minDur.Microseconds()) / 1000
			s.MaxLatencyMS = float64(c.maxDur.Microseconds()) / 1000
			s.AvgLatencyMS = float64((c.totalDur / time.Duration(c.calls)).Microseconds()) / 1000
		}
		topics[id] = s
	}
	return RunSummary{
		StartedAt:   t.startedAt,
		FinishedAt:  finishedAt,
		CallsUsed:   callsUsed,
		RateLimited: rateLimited,
		Topics:      topics,
	}
}

// TopicIDs returns the topics seen this run in sorted order.
func (t *Tracker) TopicIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.topics))
	for id := range t.topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExportJSON writes the run summary to path, creating parent directories
// as needed.
func ExportJSON(path string, summary RunSummary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}
