package fetch

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/news"
)

// StopReason records why a fetch cycle ended. Only StopRateLimited and
// StopProviderError describe failures; the rest are normal terminations.
type StopReason string

// Stop reasons.
const (
	StopDone          StopReason = "done"
	StopBudget        StopReason = "budget_exhausted"
	StopRateLimited   StopReason = "rate_limited"
	StopResultLimit   StopReason = "result_limit"
	StopEnough        StopReason = "enough_articles"
	StopDuplicates    StopReason = "diminishing_returns"
	StopProviderError StopReason = "provider_error"
)

// Failed reports whether the reason means the provider gave us nothing
// usable, so the caller must fall back to its cached snapshot.
func (r StopReason) Failed() bool {
	return r == StopRateLimited || r == StopProviderError || r == StopBudget
}

// Observer receives per-call and per-article accounting. The combined-mode
// call is reported under the pseudo topic "combined".
type Observer interface {
	Call(topicID string, kind news.OutcomeKind, elapsed time.Duration)
	Fetched(topicID string, n int)
	Filtered(topicID string, n int)
}

// NopObserver discards all accounting.
type NopObserver struct{}

// Call implements Observer.
func (NopObserver) Call(string, news.OutcomeKind, time.Duration) {}

// Fetched implements Observer.
func (NopObserver) Fetched(string, int) {}

// Filtered implements Observer.
func (NopObserver) Filtered(string, int) {}

// Paginator drives repeated Searcher calls for one topic under the shared
// run budget and the early-stop heuristics. It guarantees that the calls
// issued for a topic never exceed min(configured max pages, remaining run
// budget).
type Paginator struct {
	searcher news.Searcher
	budget   *news.RunBudget
	clock    news.Clock
	cfg      Config
	observer Observer
	logger   *zap.Logger
	sleep    func(time.Duration)
}

// NewPaginator constructs a Paginator bound to one run's budget.
func NewPaginator(
	searcher news.Searcher,
	budget *news.RunBudget,
	clock news.Clock,
	cfg Config,
	observer Observer,
	logger *zap.Logger,
) *Paginator {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paginator{
		searcher: searcher,
		budget:   budget,
		clock:    clock,
		cfg:      cfg,
		observer: observer,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// FetchTopic accumulates filtered articles for one topic across pages.
// A first-page rate limit returns an empty accumulation and marks the run
// budget so no further topic issues provider calls.
func (p *Paginator) FetchTopic(ctx context.Context, topic news.Topic, q news.Query) ([]news.Article, StopReason) {
	maxPages := p.cfg.MaxPages
	if topic.MaxPages > 0 {
		maxPages = topic.MaxPages
	}
	if remaining := p.budget.Remaining(); remaining < maxPages {
		maxPages = remaining
	}
	if maxPages <= 0 {
		p.logger.Warn("no provider calls remaining, skipping topic", zap.String("topic", topic.ID))
		return nil, StopBudget
	}

	matcher, err := NewPhraseMatcher(topic.Phrase)
	if err != nil {
		p.logger.Error("bad topic phrase", zap.String("topic", topic.ID), zap.Error(err))
		return nil, StopProviderError
	}
	filter := NewFilter(p.cfg.MaxDescriptionLength, p.clock)

	var items []news.Article

	p.budget.Consume()
	out := p.searcher.Search(ctx, q, 1)
	p.observer.Call(topic.ID, out.Kind, out.Elapsed)

	switch out.Kind {
	case news.OutcomeRateLimited:
		p.budget.MarkRateLimited()
		return nil, StopRateLimited
	case news.OutcomeResultLimit:
		if out.Page != nil {
			items, _ = p.collect(topic.ID, filter, matcher, out.Page.Articles, items)
		}
		return sortByDate(items), StopResultLimit
	case news.OutcomeFailure:
		return nil, StopProviderError
	}
	if out.Page == nil || out.Page.Status != news.StatusOK {
		return nil, StopProviderError
	}

	items, _ = p.collect(topic.ID, filter, matcher, out.Page.Articles, items)

	totalPages := pageCount(out.Page.TotalResults, p.cfg.PageSize)
	if totalPages > maxPages {
		totalPages = maxPages
	}

	reason := StopDone
pages:
	for page := 2; page <= totalPages; page++ {
		if p.cfg.MinArticles > 0 && len(items) >= p.cfg.MinArticles {
			reason = StopEnough
			break
		}
		if p.budget.Remaining() <= 0 {
			reason = StopBudget
			break
		}
		if p.cfg.PageDelay > 0 {
			p.sleep(p.cfg.PageDelay)
		}

		p.budget.Consume()
		out = p.searcher.Search(ctx, q, page)
		p.observer.Call(topic.ID, out.Kind, out.Elapsed)

		switch out.Kind {
		case news.OutcomeRateLimited:
			p.budget.MarkRateLimited()
			return sortByDate(items), StopRateLimited
		case news.OutcomeResultLimit:
			if out.Page != nil {
				items, _ = p.collect(topic.ID, filter, matcher, out.Page.Articles, items)
			}
			reason = StopResultLimit
			break pages
		case news.OutcomeFailure:
			reason = StopProviderError
			break pages
		}
		if out.Page == nil || out.Page.Status != news.StatusOK {
			reason = StopProviderError
			break
		}

		var added int
		items, added = p.collect(topic.ID, filter, matcher, out.Page.Articles, items)

		if n := len(out.Page.Articles); n > 0 {
			duplicateRatio := 1.0 - float64(added)/float64(n)
			if duplicateRatio >= p.cfg.DuplicateStopRatio {
				p.logger.Info("stopping pagination on diminishing returns",
					zap.String("topic", topic.ID),
					zap.Int("page", page),
					zap.Float64("duplicate_ratio", duplicateRatio),
				)
				reason = StopDuplicates
				break
			}
		}
	}

	if reason == StopEnough {
		p.logger.Info("stopping pagination with enough new articles",
			zap.String("topic", topic.ID),
			zap.Int("count", len(items)),
			zap.Int("target", p.cfg.MinArticles),
		)
	}
	return sortByDate(items), reason
}

// collect runs one page of records through the filter and reports how many
// were newly accepted.
func (p *Paginator) collect(
	topicID string,
	filter *Filter,
	matcher *PhraseMatcher,
	raw []news.RawArticle,
	items []news.Article,
) ([]news.Article, int) {
	var accepted, filtered int
	for _, record := range raw {
		article, verdict := filter.Process(record, matcher)
		switch verdict {
		case Accepted:
			items = append(items, article)
			accepted++
		case Unmatched:
			filtered++
		}
	}
	if accepted > 0 {
		p.observer.Fetched(topicID, accepted)
	}
	if filtered > 0 {
		p.observer.Filtered(topicID, filtered)
	}
	return items, accepted
}

func pageCount(totalResults, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	return (totalResults + pageSize - 1) / pageSize
}

// sortByDate orders newest first. Dates are ISO date strings, so the
// lexicographic comparison is the chronological one; the sort is stable so
// equal dates keep their arrival order.
func sortByDate(items []news.Article) []news.Article {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
	return items
}
