package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"FinCast/internal/domain/models"
	"FinCast/internal/domain/repository"
	pkgcache "FinCast/pkg/cache"
	"FinCast/pkg/logger"
)

// defaultFetchTimeout covers a full provider request, which carries its own
// 10s client timeout.
const defaultFetchTimeout = 30 * time.Second

// FetchFunc produces a dataset on a cache miss.
type FetchFunc func(ctx context.Context) (*models.Dataset, error)

// SourceCache memoizes cascade stage results per (stage, symbol, range).
// Concurrent misses for the same key share one fetch.
type SourceCache struct {
	store        pkgcache.Store
	l1           *pkgcache.MemoryCache
	ttl          time.Duration
	fetchTimeout time.Duration
	flight       singleflight.Group

	log *logger.Logger
	rec repository.Metrics

	hits   atomic.Int64
	misses atomic.Int64
}

type Option func(*SourceCache)

// WithStore replaces the default in-memory LRU, e.g. with a LayeredCache.
func WithStore(store pkgcache.Store) Option {
	return func(c *SourceCache) { c.store = store }
}

// WithTTL sets the expiration passed to the store. Zero keeps entries until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *SourceCache) { c.ttl = ttl }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *SourceCache) { c.log = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *SourceCache) { c.rec = m }
}

// New builds a SourceCache bounded to maxEntries datasets in memory.
func New(maxEntries int, opts ...Option) *SourceCache {
	c := &SourceCache{fetchTimeout: defaultFetchTimeout}
	for _, opt := range opts {
		opt(c)
	}
	switch s := c.store.(type) {
	case nil:
		c.l1 = pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(maxEntries))
		c.store = c.l1
	case *pkgcache.MemoryCache:
		c.l1 = s
	case *pkgcache.LayeredCache:
		c.l1 = s.Memory()
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	return c
}

// Key renders the cache key for one cascade stage and calendar range.
func Key(stage, symbol string, start, end time.Time) string {
	return pkgcache.JoinKey("dataset", stage, symbol, start.Format("20060102"), end.Format("20060102"))
}

// Get returns a private copy of the cached dataset.
func (c *SourceCache) Get(ctx context.Context, key string) (*models.Dataset, bool) {
	var ds *models.Dataset
	err := c.store.Get(ctx, key, &ds)
	if err != nil || ds == nil {
		if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
			c.log.Warn("dataset cache read failed", logger.String("key", key), logger.Error(err))
		}
		c.record(false)
		return nil, false
	}
	c.record(true)
	return ds.Clone(), true
}

// Put stores a copy of ds. A failing second level falls back to memory only.
func (c *SourceCache) Put(ctx context.Context, key string, ds *models.Dataset) {
	if ds == nil {
		return
	}
	cp := ds.Clone()
	if err := c.store.Set(ctx, key, cp, c.ttl); err != nil {
		c.log.Warn("dataset cache write failed", logger.String("key", key), logger.Error(err))
		if c.l1 != nil && c.store != pkgcache.Store(c.l1) {
			_ = c.l1.Set(ctx, key, cp, 0)
		}
	}
}

// GetOrFetch returns the cached dataset for key or runs fetch once for all
// concurrent callers. The bool reports a cache hit.
//
// The shared fetch runs detached from any single caller's cancellation and
// is bounded by the fetch timeout instead. Each caller stops waiting when its
// own ctx is done.
func (c *SourceCache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (*models.Dataset, bool, error) {
	if ds, ok := c.Get(ctx, key); ok {
		return ds, true, nil
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		// A flight that finished between our miss and DoChan already filled the entry.
		if ds, ok := c.Get(fctx, key); ok {
			return ds, nil
		}
		ds, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.Put(fctx, key, ds)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.(*models.Dataset).Clone(), false, nil
	}
}

// Len returns the number of datasets held in memory.
func (c *SourceCache) Len() int {
	if c.l1 == nil {
		return 0
	}
	return c.l1.Len()
}

// Stats returns lookup hit and miss counts.
func (c *SourceCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *SourceCache) Close() error {
	return c.store.Close()
}

func (c *SourceCache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.rec != nil {
		c.rec.RecordCacheLookup(hit)
	}
}
