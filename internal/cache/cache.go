// Package cache memoizes rendered pages for a fixed time-to-live.
package cache

import (
	"context"
	"time"
	"yatube/internal/logger"
)

// Clock supplies the current time; tests swap it to control expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Entry is a rendered page and the instant it stops being served.
type Entry struct {
	Body      []byte    `json:"body"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the backing key/value store of a PageCache.
type Store interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (e Entry, ok bool, err error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// PageCache caches rendered output. Reads within the TTL return the stored
// bytes even if the underlying data has changed since. Two callers missing
// at once will both render; the later write wins.
type PageCache struct {
	store Store
	clock Clock
}

func New(store Store, clock Clock) *PageCache {
	if clock == nil {
		clock = SystemClock
	}
	return &PageCache{store: store, clock: clock}
}

// GetOrRender returns the cached value for key, or renders, stores and
// returns a fresh one.
func (c *PageCache) GetOrRender(ctx context.Context, key string, ttl time.Duration, render func() ([]byte, error)) ([]byte, error) {
	l := logger.Ctx(ctx)

	now := c.clock.Now()
	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		l.Warn().Err(err).Str("key", key).Msg("page cache read failed, rendering")
	} else if ok && now.Before(e.ExpiresAt) {
		return e.Body, nil
	}

	body, err := render()
	if err != nil {
		return nil, err
	}

	entry := Entry{Body: body, ExpiresAt: now.Add(ttl)}
	if err := c.store.Set(ctx, key, entry, ttl); err != nil {
		l.Warn().Err(err).Str("key", key).Msg("page cache write failed")
	}
	return body, nil
}

// Clear evicts every entry regardless of TTL.
func (c *PageCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
