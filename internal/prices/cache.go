package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/zakatease/pkg/constants"
	"go.uber.org/zap"
)

// Snapshot is a quote together with the time it was fetched.
type Snapshot struct {
	Quote     Quote
	FetchedAt time.Time
}

// SnapshotStore persists the last known good quote of each metal.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	LoadSnapshots(ctx context.Context) ([]Snapshot, error)
}

// CacheConfig sets how long quotes are served.
type CacheConfig struct {
	// TTL is how long a quote is fresh.
	TTL time.Duration
	// MaxStale is how long past TTL a quote may still be served while it is
	// refreshed in the background.
	MaxStale time.Duration
}

type call struct {
	done  chan struct{}
	quote Quote
	err   error
}

// Cache serves quotes per metal with stale-while-revalidate semantics.
//
// A quote younger than TTL is returned as is. Up to MaxStale past TTL it is
// returned immediately and a single background refresh starts. Older quotes
// and cold metals block on a fetch that concurrent callers share. A failed
// refresh keeps the previous quote.
type Cache struct {
	logger   *zap.Logger
	fetcher  QuoteFetcher
	store    SnapshotStore
	ttl      time.Duration
	maxStale time.Duration
	now      func() time.Time

	mu       sync.Mutex
	entries  map[Metal]Snapshot
	inflight map[Metal]*call
	wg       sync.WaitGroup
}

// NewCache wraps fetcher. A nil store disables persistence.
func NewCache(cfg CacheConfig, fetcher QuoteFetcher, store SnapshotStore, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.DefaultPriceTTL
	}
	if cfg.MaxStale < 0 {
		cfg.MaxStale = 0
	}

	return &Cache{
		logger:   logger,
		fetcher:  fetcher,
		store:    store,
		ttl:      cfg.TTL,
		maxStale: cfg.MaxStale,
		now:      time.Now,
		entries:  make(map[Metal]Snapshot),
		inflight: make(map[Metal]*call),
	}
}

// FetchQuote returns the cached quote for metal, fetching it when needed.
// Fetch failures wrap ErrPriceUnavailable.
func (c *Cache) FetchQuote(ctx context.Context, metal Metal) (Quote, error) {
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.entries[metal]; ok {
		age := now.Sub(entry.FetchedAt)
		if age < c.ttl {
			c.mu.Unlock()
			CacheLookups.WithLabelValues("fresh").Inc()
			return entry.Quote, nil
		}
		if age < c.ttl+c.maxStale {
			c.startLocked(metal)
			c.mu.Unlock()
			CacheLookups.WithLabelValues("stale").Inc()
			c.logger.Debug("serving stale quote while refreshing",
				zap.String("op", "prices.Cache.FetchQuote"),
				zap.String("metal", string(metal)),
				zap.Duration("age", age),
			)
			return entry.Quote, nil
		}
	}
	pending := c.startLocked(metal)
	c.mu.Unlock()
	CacheLookups.WithLabelValues("miss").Inc()

	select {
	case <-pending.done:
		return pending.quote, pending.err
	case <-ctx.Done():
		return Quote{}, fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, metal, ctx.Err())
	}
}

// ReferencePrices returns both metals through the cache, concurrently.
func (c *Cache) ReferencePrices(ctx context.Context) (ReferencePrices, error) {
	return fetchPair(ctx, c)
}

// Warm seeds the cache from the store. Entries already newer than a stored
// snapshot are kept.
func (c *Cache) Warm(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	snapshots, err := c.store.LoadSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("failed to load price snapshots: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, snapshot := range snapshots {
		if snapshot.Quote.Metal.Code() == "" {
			continue
		}
		if existing, ok := c.entries[snapshot.Quote.Metal]; ok && !existing.FetchedAt.Before(snapshot.FetchedAt) {
			continue
		}
		c.entries[snapshot.Quote.Metal] = snapshot
	}

	c.logger.Info("price cache warmed",
		zap.String("op", "prices.Cache.Warm"),
		zap.Int("snapshots", len(snapshots)),
	)
	return nil
}

// Wait blocks until every in-flight fetch has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// startLocked returns the in-flight fetch for metal, starting one if none is
// running. c.mu must be held.
func (c *Cache) startLocked(metal Metal) *call {
	if pending, ok := c.inflight[metal]; ok {
		return pending
	}

	pending := &call{done: make(chan struct{})}
	c.inflight[metal] = pending
	c.wg.Add(1)
	go c.refresh(metal, pending)
	return pending
}

// refresh runs detached from any caller context; the client bounds each
// attempt with its own timeout.
func (c *Cache) refresh(metal Metal, pending *call) {
	defer c.wg.Done()

	quote, err := c.fetcher.FetchQuote(context.Background(), metal)
	snapshot := Snapshot{Quote: quote, FetchedAt: c.now()}

	c.mu.Lock()
	_, hadEntry := c.entries[metal]
	if err == nil {
		c.entries[metal] = snapshot
	}
	delete(c.inflight, metal)
	c.mu.Unlock()

	if err != nil {
		CacheRefreshFailures.Inc()
		c.logger.Warn("price refresh failed",
			zap.String("op", "prices.Cache.refresh"),
			zap.String("metal", string(metal)),
			zap.Bool("keptStale", hadEntry),
			zap.Error(err),
		)
		if !errors.Is(err, ErrPriceUnavailable) {
			err = fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, metal, err)
		}
		pending.err = err
		close(pending.done)
		return
	}

	pending.quote = quote
	close(pending.done)

	if c.store != nil {
		if saveErr := c.store.SaveSnapshot(context.Background(), snapshot); saveErr != nil {
			c.logger.Warn("failed to persist price snapshot",
				zap.String("op", "prices.Cache.refresh"),
				zap.String("metal", string(metal)),
				zap.Error(saveErr),
			)
		}
	}
}
