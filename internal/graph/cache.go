package graph

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
	lru "github.com/hashicorp/golang-lru/v2"
)

// lruCache adapts a fixed-size LRU to gqlgen's cache interface. It backs the
// parsed query cache and the persisted query store; neither holds upstream data.
type lruCache struct {
	entries *lru.Cache[string, interface{}]
}

var _ graphql.Cache = (*lruCache)(nil)

func newLRUCache(size int) (*lruCache, error) {
	entries, err := lru.New[string, interface{}](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{entries: entries}, nil
}

func (c *lruCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.entries.Get(key)
}

func (c *lruCache) Add(_ context.Context, key string, value interface{}) {
	c.entries.Add(key, value)
}
