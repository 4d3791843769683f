package tokens

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MaxCacheEntries bounds the resolver cache. The oldest entry is evicted
// first.
const MaxCacheEntries = 50

// CacheObserver receives resolver cache events. Implementations must be cheap;
// they run inline with Resolve.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
	CacheEvicted()
	CacheReset()
}

type nopObserver struct{}

func (nopObserver) CacheHit()     {}
func (nopObserver) CacheMiss()    {}
func (nopObserver) CacheEvicted() {}
func (nopObserver) CacheReset()   {}

// tokenCache is a FIFO-bounded map from cache key to resolved tokens.
type tokenCache struct {
	entries  *orderedmap.OrderedMap[string, Tokens]
	limit    int
	observer CacheObserver
}

func newTokenCache(limit int, observer CacheObserver) *tokenCache {
	return &tokenCache{
		entries:  orderedmap.New[string, Tokens](),
		limit:    limit,
		observer: observer,
	}
}

func (c *tokenCache) get(key string) (Tokens, bool) {
	t, ok := c.entries.Get(key)
	if ok {
		c.observer.CacheHit()
	} else {
		c.observer.CacheMiss()
	}
	return t, ok
}

// put stores t under key. Re-storing an existing key keeps its original
// insertion position.
func (c *tokenCache) put(key string, t Tokens) {
	c.entries.Set(key, t)
	for c.entries.Len() > c.limit {
		oldest := c.entries.Oldest()
		if oldest == nil {
			return
		}
		c.entries.Delete(oldest.Key)
		c.observer.CacheEvicted()
	}
}

func (c *tokenCache) reset() {
	if c.entries.Len() == 0 {
		return
	}
	c.entries = orderedmap.New[string, Tokens]()
	c.observer.CacheReset()
}

func (c *tokenCache) len() int {
	return c.entries.Len()
}
