package fetch

import (
	"fmt"
	"sort"

	"github.com/jfeld/newsvault/internal/news"
)

// Router assigns combined-query articles to the first topic whose phrase
// matches the title. Topics are consulted in priority order, then by ID, so
// routing stays deterministic when a title could satisfy several phrases.
// Unmatched articles are dropped silently.
type Router struct {
	routes []route
}

type route struct {
	topic   news.Topic
	matcher *PhraseMatcher
}

// NewRouter builds a Router for the given topics.
func NewRouter(topics []news.Topic) (*Router, error) {
	ordered := make([]news.Topic, len(topics))
	copy(ordered, topics)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	routes := make([]route, 0, len(ordered))
	for _, topic := range ordered {
		matcher, err := NewPhraseMatcher(topic.Phrase)
		if err != nil {
			return nil, fmt.Errorf("topic %s: %w", topic.ID, err)
		}
		routes = append(routes, route{topic: topic, matcher: matcher})
	}
	return &Router{routes: routes}, nil
}

// Route returns the owning topic for a title, or false when no phrase
// matches.
func (r *Router) Route(title string) (news.Topic, bool) {
	for _, rt := range r.routes {
		if rt.matcher.Matches(title) {
			return rt.topic, true
		}
	}
	return news.Topic{}, false
}

// Matcher returns the compiled matcher for a topic ID so routed articles
// run through the same matching logic as per-topic fetches.
func (r *Router) Matcher(topicID string) (*PhraseMatcher, bool) {
	for _, rt := range r.routes {
		if rt.topic.ID == topicID {
			return rt.matcher, true
		}
	}
	return nil, false
}
