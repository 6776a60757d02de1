package engine

import (
	"sync"
	"sync/atomic"

	"bgeval-api/internal/board"
)

// cacheEntry is one stored evaluation keyed by position and context.
type cacheEntry struct {
	key  board.Key
	ctx  int32
	eval Evaluation
	used bool
}

// cacheNode is one two-way associative slot. On insertion the previous
// primary entry is demoted to secondary rather than evicted outright.
type cacheNode struct {
	primary   cacheEntry
	secondary cacheEntry
}

// Cache is a thread-safe evaluation cache. Lookups and inserts hash the
// position key together with the evaluation context, so the same board at
// different plies or cube states occupies distinct entries.
type Cache struct {
	nodes    []cacheNode
	hashMask uint32

	mu      sync.RWMutex
	lookups atomic.Uint64
	hits    atomic.Uint64
}

// NewCache returns a cache holding about size entries, rounded up to a
// power of two.
func NewCache(size uint32) *Cache {
	p := uint32(1)
	for p < size {
		p <<= 1
	}
	if p < 2 {
		p = 2
	}
	return &Cache{
		nodes:    make([]cacheNode, p/2),
		hashMask: p/2 - 1,
	}
}

// evalContext packs the cache key context into an int32.
func evalContext(plies, cubeOwner, cubeValue int) int32 {
	return int32(plies&0xff) | int32((cubeOwner+1)&0x3)<<8 | int32(cubeValue&0xffff)<<10
}

// Lookup returns the cached evaluation for key in context ctx.
func (c *Cache) Lookup(key board.Key, ctx int32) (Evaluation, bool) {
	h := c.hash(key, ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	c.lookups.Add(1)
	node := &c.nodes[h]
	if node.primary.used && node.primary.key == key && node.primary.ctx == ctx {
		c.hits.Add(1)
		return node.primary.eval, true
	}
	if node.secondary.used && node.secondary.key == key && node.secondary.ctx == ctx {
		c.hits.Add(1)
		return node.secondary.eval, true
	}
	return Evaluation{}, false
}

// Add stores an evaluation, demoting the slot's previous occupant.
func (c *Cache) Add(key board.Key, ctx int32, ev Evaluation) {
	h := c.hash(key, ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.nodes[h]
	node.secondary = node.primary
	node.primary = cacheEntry{key: key, ctx: ctx, eval: ev, used: true}
}

// Stats returns lookup and hit counters since the last flush.
func (c *Cache) Stats() (lookups, hits uint64) {
	return c.lookups.Load(), c.hits.Load()
}

// Flush clears the cache and its counters.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.nodes {
		c.nodes[i] = cacheNode{}
	}
	c.lookups.Store(0)
	c.hits.Store(0)
}

// hash mixes the key words and context murmur-style into a node index.
func (c *Cache) hash(key board.Key, ctx int32) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	var h uint32
	mix := func(k uint32) {
		k *= c1
		k = k<<15 | k>>17
		k *= c2
		h ^= k
		h = h<<13 | h>>19
		h = h*5 + 0xe6546b64
	}
	for _, k := range key.Data {
		mix(k)
	}
	mix(uint32(ctx))

	h ^= 32
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h & c.hashMask
}
