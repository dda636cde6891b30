package news

import (
	"context"
	"time"
)

// Searcher issues one provider call for the given query and page number and
// classifies the outcome. Implementations never return a raw error; network
// and decode failures are folded into the outcome taxonomy.
type Searcher interface {
	Search(ctx context.Context, q Query, page int) FetchOutcome
}

// Store loads and saves a topic's persisted article collection.
// Load returns an empty collection on a missing or corrupt snapshot and
// never fails; Save creates the storage location as needed.
type Store interface {
	Load(ctx context.Context, topicID string) []Article
	Save(ctx context.Context, topicID string, articles []Article) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
