package repository

import (
	"sync"
	"time"

	"github.com/quarryhq/quarry/models"
)

// ttlCache is the repository's short-lived read cache: an id-to-item map
// with a parallel expiry map. Entries live for a fixed TTL from the
// moment they are set; reads past the deadline miss and the entry is
// dropped. The cache is a non-authoritative optimization only - the
// on-disk tree remains the sole source of truth, and List/Search never
// consult it.
type ttlCache[T models.Item] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	items   map[string]T
	expires map[string]time.Time
}

func newTTLCache[T models.Item](ttl time.Duration, clock Clock) *ttlCache[T] {
	return &ttlCache[T]{
		ttl:     ttl,
		clock:   clock,
		items:   make(map[string]T),
		expires: make(map[string]time.Time),
	}
}

// get returns a deep copy of a fresh entry, or reports a miss.
func (c *ttlCache[T]) get(id string) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return zero, false
	}
	if c.clock.Now().After(c.expires[id]) {
		delete(c.items, id)
		delete(c.expires, id)
		return zero, false
	}
	return item.CloneItem().(T), true
}

// set stores a deep copy of item, restarting its TTL.
func (c *ttlCache[T]) set(id string, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = item.CloneItem().(T)
	c.expires[id] = c.clock.Now().Add(c.ttl)
}

// evict removes an entry regardless of freshness.
func (c *ttlCache[T]) evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	delete(c.expires, id)
}
