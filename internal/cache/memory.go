package cache

import (
	"context"
	"sync"
)

// MemoryCache is an in-process processed-comment cache for single-node
// runs and tests.
type MemoryCache struct {
	mu     sync.RWMutex
	topics map[string]map[string]struct{}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{topics: make(map[string]map[string]struct{})}
}

func (c *MemoryCache) IsProcessed(_ context.Context, topic, commentID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.topics[topic][commentID]
	return ok
}

func (c *MemoryCache) MarkProcessed(_ context.Context, topic string, commentIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.topics[topic]
	if !ok {
		set = make(map[string]struct{}, len(commentIDs))
		c.topics[topic] = set
	}
	for _, id := range commentIDs {
		set[id] = struct{}{}
	}
	return nil
}
