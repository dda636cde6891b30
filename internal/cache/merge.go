// Package cache merges freshly fetched articles into a topic's cached
// snapshot and enforces the retention window.
package cache

import (
	"sort"

	"github.com/jfeld/newsvault/internal/news"
)

// Merge combines a cached snapshot with freshly fetched articles, keyed by
// URL. When the same URL appears in both, the fresh copy wins so updated
// titles and descriptions propagate. The result is ordered newest first;
// the sort is stable, so equal dates keep fresh-before-cached order.
func Merge(cached, fresh []news.Article) []news.Article {
	if len(fresh) == 0 && len(cached) == 0 {
		return nil
	}

	merged := make([]news.Article, 0, len(cached)+len(fresh))
	seen := make(map[string]struct{}, len(cached)+len(fresh))

	for _, a := range fresh {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		merged = append(merged, a)
	}
	for _, a := range cached {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		merged = append(merged, a)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})
	return merged
}
