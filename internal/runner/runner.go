// Package runner orchestrates one update run: it fetches each topic under the
// shared call budget, merges fresh articles into the cached snapshot,
// applies retention, and persists the result.
package runner

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/cache"
	"github.com/jfeld/newsvault/internal/fetch"
	"github.com/jfeld/newsvault/internal/news"
)

// Recorder extends the fetch accounting with the persisted snapshot size.
type Recorder interface {
	fetch.Observer
	Saved(topicID string, n int)
}

type nopRecorder struct{ fetch.NopObserver }

func (nopRecorder) Saved(string, int) {}

// Config carries the run-level knobs.
type Config struct {
	MaxCallsPerRun int
	RetentionDays  int
	TopicDelay     time.Duration
	Combine        bool
	DateRange      fetch.DateRangeConfig
	Fetch          fetch.Config
}

// Report summarizes one completed run.
type Report struct {
	TopicsProcessed int
	TopicsFailed    int
	CallsUsed       int
	RateLimited     bool
}

// Runner executes update runs over a fixed topic set.
type Runner struct {
	searcher news.Searcher
	store    news.Store
	clock    news.Clock
	cfg      Config
	topics   []news.Topic
	recorder Recorder
	logger   *zap.Logger
	sleep    func(time.Duration)
}

// New constructs a Runner. Topics are processed in priority order, ties
// broken by ID, so runs are deterministic and the budget favors the
// topics that matter most.
func New(
	searcher news.Searcher,
	store news.Store,
	clock news.Clock,
	cfg Config,
	topics []news.Topic,
	recorder Recorder,
	logger *zap.Logger,
) *Runner {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := make([]news.Topic, len(topics))
	copy(sorted, topics)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &Runner{
		searcher: searcher,
		store:    store,
		clock:    clock,
		cfg:      cfg,
		topics:   sorted,
		recorder: recorder,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Run executes one update cycle across all topics. A rate-limited provider
// stops further calls for the rest of the run; remaining topics keep their
// cached snapshots untouched.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	budget := news.NewRunBudget(r.cfg.MaxCallsPerRun)
	paginator := fetch.NewPaginator(r.searcher, budget, r.clock, r.cfg.Fetch, r.recorder, r.logger)
	from, to := fetch.DateRange(r.clock.Now(), r.cfg.DateRange)

	r.logger.Info("starting update run",
		zap.Int("topics", len(r.topics)),
		zap.Int("max_calls", r.cfg.MaxCallsPerRun),
		zap.String("from", from),
		zap.String("to", to),
		zap.Bool("combine", r.cfg.Combine),
	)

	var report Report
	if r.cfg.Combine {
		report = r.runCombined(ctx, paginator, from, to)
	} else {
		report = r.runPerTopic(ctx, paginator, from, to)
	}
	report.CallsUsed = budget.Used()
	report.RateLimited = budget.RateLimited()

	r.logger.Info("update run finished",
		zap.Int("processed", report.TopicsProcessed),
		zap.Int("failed", report.TopicsFailed),
		zap.Int("calls_used", report.CallsUsed),
		zap.Bool("rate_limited", report.RateLimited),
	)
	return report, ctx.Err()
}

func (r *Runner) runPerTopic(ctx context.Context, paginator *fetch.Paginator, from, to string) Report {
	var report Report
	for i, topic := range r.topics {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && r.cfg.TopicDelay > 0 {
			r.sleep(r.cfg.TopicDelay)
		}

		fresh, reason := paginator.FetchTopic(ctx, topic, fetch.BuildQuery(topic, from, to, r.cfg.Fetch))
		if r.reconcile(ctx, topic, fresh, !reason.Failed()) {
			report.TopicsProcessed++
		} else {
			report.TopicsFailed++
		}
	}
	return report
}

func (r *Runner) runCombined(ctx context.Context, paginator *fetch.Paginator, from, to string) Report {
	var report Report
	routed, reason := paginator.FetchCombined(ctx, r.topics, fetch.BuildCombinedQuery(r.topics, from, to, r.cfg.Fetch))
	for _, topic := range r.topics {
		if r.reconcile(ctx, topic, routed[topic.ID], !reason.Failed()) {
			report.TopicsProcessed++
		} else {
			report.TopicsFailed++
		}
	}
	return report
}

// reconcile folds a topic's fetch result into its snapshot. On a failed
// fetch an existing snapshot is left exactly as it was; the snapshot file
// is still created when none exists yet, so every configured topic has
// one after the first run. On success the fresh articles are merged in,
// retention is applied, and the result saved, even when nothing new came
// back. Returns false only when the topic's snapshot could not be brought
// to its post-run state.
func (r *Runner) reconcile(ctx context.Context, topic news.Topic, fresh []news.Article, fetchOK bool) bool {
	cached := r.store.Load(ctx, topic.ID)

	if !fetchOK {
		if len(cached) > 0 {
			r.logger.Warn("fetch failed, keeping cached snapshot",
				zap.String("topic", topic.ID),
				zap.Int("cached", len(cached)),
			)
			return false
		}
		if err := r.store.Save(ctx, topic.ID, nil); err != nil {
			r.logger.Error("initialize empty snapshot failed",
				zap.String("topic", topic.ID), zap.Error(err))
			return false
		}
		r.recorder.Saved(topic.ID, 0)
		return false
	}

	merged := cache.Merge(cached, fresh)
	kept := cache.Trim(merged, r.clock.Now(), r.cfg.RetentionDays)

	if err := r.store.Save(ctx, topic.ID, kept); err != nil {
		r.logger.Error("save snapshot failed, cached snapshot remains",
			zap.String("topic", topic.ID), zap.Error(err))
		return false
	}

	r.recorder.Saved(topic.ID, len(kept))
	r.logger.Info("topic updated",
		zap.String("topic", topic.ID),
		zap.Int("fresh", len(fresh)),
		zap.Int("merged", len(merged)),
		zap.Int("kept", len(kept)),
	)
	return true
}

// Topics returns the run order, useful for logging and tests.
func (r *Runner) Topics() []news.Topic {
	return r.topics
}
