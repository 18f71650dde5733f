package provider

import (
	"context"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// SearchCache caches search results for a short TTL, keyed by a hash of the
// normalized search parameters. Offer detail and booking calls are never
// cached. Implementations must be safe for concurrent use.
type SearchCache interface {
	// Get returns the cached offers and the provider tag that produced
	// them. The third return value is false on a miss or expired entry.
	Get(ctx context.Context, key uint64) ([]travel.Offer, string, bool)
	// Put stores a search result under key.
	Put(ctx context.Context, key uint64, providerName string, offers []travel.Offer)
}
