package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is a bounded in-process store. Expiry is decided by the
// PageCache clock; the LRU bound keeps memory flat.
type MemoryStore struct {
	lruCache *lru.Cache[string, Entry]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 500
	}
	l, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &MemoryStore{lruCache: l}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	e, ok := s.lruCache.Get(key)
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e Entry, _ time.Duration) error {
	s.lruCache.Add(key, e)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.lruCache.Purge()
	return nil
}

var _ Store = (*MemoryStore)(nil)
