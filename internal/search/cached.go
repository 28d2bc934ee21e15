package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/claimtrace/internal/cache"
	"github.com/ppiankov/claimtrace/internal/model"
)

// Cached memoises another Searcher's successful results for a TTL.
// Errors are never cached.
type Cached struct {
	next  Searcher
	store cache.Cache
	ttl   time.Duration
}

// NewCached wraps next. A zero TTL returns next unchanged.
func NewCached(next Searcher, store cache.Cache, ttl time.Duration) Searcher {
	if ttl <= 0 || store == nil {
		return next
	}
	return &Cached{next: next, store: store, ttl: ttl}
}

// Search returns cached results when present, otherwise delegates
func (c *Cached) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	key := cache.Key("search", query)

	if raw, ok := c.store.Get(key); ok {
		var results []model.SearchResult
		if err := json.Unmarshal(raw, &results); err == nil {
			return results, nil
		}
		_ = c.store.Delete(key)
	}

	results, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(results); err == nil {
		_ = c.store.Set(key, raw, c.ttl)
	}
	return results, nil
}
