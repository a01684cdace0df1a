package resolve

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/jphelan/reaper/pkg/models"
)

const cacheShards = 64

// cacheEntry memoizes one (file, name) resolution, hits and misses alike.
type cacheEntry struct {
	def  models.Definition
	conf models.Confidence
	ok   bool
}

// cache is a sharded concurrent memo table. Sharding by xxhash keeps lock
// contention low when the cross-file pass queries from many goroutines.
type cache struct {
	shards [cacheShards]cacheShard
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	file string
	name string
}

func newCache() *cache {
	c := &cache{}
	for i := range c.shards {
		c.shards[i].entries = make(map[cacheKey]cacheEntry)
	}
	return c
}

func (c *cache) shard(key cacheKey) *cacheShard {
	h := xxhash.New()
	h.WriteString(key.file)
	h.Write([]byte{0})
	h.WriteString(key.name)
	return &c.shards[h.Sum64()%cacheShards]
}

func (c *cache) get(file, name string) (cacheEntry, bool) {
	key := cacheKey{file: file, name: name}
	s := c.shard(key)
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	return entry, ok
}

func (c *cache) put(file, name string, entry cacheEntry) {
	key := cacheKey{file: file, name: name}
	s := c.shard(key)
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
}

func (c *cache) len() int {
	total := 0
	for i := range c.shards {
		c.shards[i].mu.RLock()
		total += len(c.shards[i].entries)
		c.shards[i].mu.RUnlock()
	}
	return total
}
