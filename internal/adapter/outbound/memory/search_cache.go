package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

const (
	// DefaultSearchCacheTTL keeps cached search results fresh enough that
	// quoted prices have not drifted far.
	DefaultSearchCacheTTL = 5 * time.Minute

	// defaultSearchCacheSize bounds the number of cached searches.
	defaultSearchCacheSize = 512
)

type cacheEntry struct {
	key      uint64
	provider string
	offers   []travel.Offer
	storedAt time.Time
}

// SearchCache implements provider.SearchCache with a TTL-bounded LRU.
type SearchCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	order   *list.List // front = most recent
	items   map[uint64]*list.Element
}

var _ provider.SearchCache = (*SearchCache)(nil)

// SearchCacheOption configures SearchCache.
type SearchCacheOption func(*SearchCache)

// WithSearchCacheTTL overrides the entry TTL.
func WithSearchCacheTTL(ttl time.Duration) SearchCacheOption {
	return func(c *SearchCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSearchCacheSize overrides the maximum entry count.
func WithSearchCacheSize(n int) SearchCacheOption {
	return func(c *SearchCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithSearchCacheClock overrides the time source, for tests.
func WithSearchCacheClock(now func() time.Time) SearchCacheOption {
	return func(c *SearchCache) {
		c.now = now
	}
}

// NewSearchCache creates an in-memory search cache.
func NewSearchCache(opts ...SearchCacheOption) *SearchCache {
	c := &SearchCache{
		ttl:     DefaultSearchCacheTTL,
		maxSize: defaultSearchCacheSize,
		now:     time.Now,
		order:   list.New(),
		items:   make(map[uint64]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached offers and producing provider for key. Expired
// entries are evicted on read.
func (c *SearchCache) Get(ctx context.Context, key uint64) ([]travel.Offer, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, "", false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil, "", false
	}
	c.order.MoveToFront(elem)

	// Copy so callers cannot mutate the cached slice.
	offers := make([]travel.Offer, len(entry.offers))
	copy(offers, entry.offers)
	return offers, entry.provider, true
}

// Put stores a search result under key, evicting the least recently used
// entry when full.
func (c *SearchCache) Put(ctx context.Context, key uint64, providerName string, offers []travel.Offer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]travel.Offer, len(offers))
	copy(stored, offers)

	entry := &cacheEntry{key: key, provider: providerName, offers: stored, storedAt: c.now()}
	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(entry)

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached entries, for tests.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
