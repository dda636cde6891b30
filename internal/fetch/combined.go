package fetch

import (
	"context"

	"go.uber.org/zap"

	"github.com/jfeld/newsvault/internal/news"
)

// CombinedTopicID labels the combined-mode provider call in accounting,
// since one call serves every topic.
const CombinedTopicID = "combined"

// FetchCombined issues a single OR-combined provider call and routes the
// results to their owning topics. Combined mode is limited to one page so
// all topics share one call; ambiguous titles go to the first matching
// topic in router order.
func (p *Paginator) FetchCombined(ctx context.Context, topics []news.Topic, q news.Query) (map[string][]news.Article, StopReason) {
	routed := make(map[string][]news.Article, len(topics))
	for _, topic := range topics {
		routed[topic.ID] = nil
	}

	if p.budget.Remaining() <= 0 {
		p.logger.Warn("no provider calls remaining, skipping combined request")
		return routed, StopBudget
	}

	router, err := NewRouter(topics)
	if err != nil {
		p.logger.Error("build combined router failed", zap.Error(err))
		return routed, StopProviderError
	}
	filters := make(map[string]*Filter, len(topics))
	for _, topic := range topics {
		filters[topic.ID] = NewFilter(p.cfg.MaxDescriptionLength, p.clock)
	}

	p.budget.Consume()
	out := p.searcher.Search(ctx, q, 1)
	p.observer.Call(CombinedTopicID, out.Kind, out.Elapsed)

	switch out.Kind {
	case news.OutcomeRateLimited:
		p.budget.MarkRateLimited()
		return routed, StopRateLimited
	case news.OutcomeResultLimit:
		if out.Page != nil {
			p.route(router, filters, out.Page.Articles, routed)
		}
		return sortRouted(routed), StopResultLimit
	case news.OutcomeFailure:
		return routed, StopProviderError
	}
	if out.Page == nil || out.Page.Status != news.StatusOK {
		return routed, StopProviderError
	}

	p.route(router, filters, out.Page.Articles, routed)
	return sortRouted(routed), StopDone
}

func (p *Paginator) route(
	router *Router,
	filters map[string]*Filter,
	raw []news.RawArticle,
	routed map[string][]news.Article,
) {
	for _, record := range raw {
		topic, ok := router.Route(record.Title)
		if !ok {
			// No phrase matched; with an OR query this should be rare,
			// and such articles are dropped silently.
			continue
		}
		matcher, _ := router.Matcher(topic.ID)
		article, verdict := filters[topic.ID].Process(record, matcher)
		switch verdict {
		case Accepted:
			routed[topic.ID] = append(routed[topic.ID], article)
			p.observer.Fetched(topic.ID, 1)
		case Unmatched:
			p.observer.Filtered(topic.ID, 1)
		}
	}
}

func sortRouted(routed map[string][]news.Article) map[string][]news.Article {
	for id, items := range routed {
		routed[id] = sortByDate(items)
	}
	return routed
}
