package prices

import (
	"context"
	"net/http"
	"time"

	"github.com/iwvelando/zakatease/pkg/constants"
	"go.uber.org/zap"
)

// Config configures a Service.
type Config struct {
	PrimaryURL     string
	FallbackURL    string
	AttemptTimeout time.Duration
	TTL            time.Duration
	MaxStale       time.Duration
}

// DefaultConfig returns the public currency API sources with a six hour TTL
// and twelve hours of stale serving.
func DefaultConfig() Config {
	return Config{
		PrimaryURL:     constants.DefaultPrimaryPriceURL,
		FallbackURL:    constants.DefaultFallbackPriceURL,
		AttemptTimeout: constants.DefaultPriceAttemptTimeout,
		TTL:            constants.DefaultPriceTTL,
		MaxStale:       constants.DefaultPriceMaxStale,
	}
}

// Service is the cached reference price source used by the server and CLI.
type Service struct {
	client *Client
	cache  *Cache
}

// NewService wires a Client behind a Cache. store may be nil.
func NewService(cfg Config, httpClient *http.Client, store SnapshotStore, logger *zap.Logger) *Service {
	client := NewClient(ClientConfig{
		PrimaryURL:     cfg.PrimaryURL,
		FallbackURL:    cfg.FallbackURL,
		AttemptTimeout: cfg.AttemptTimeout,
	}, httpClient, logger)

	cache := NewCache(CacheConfig{TTL: cfg.TTL, MaxStale: cfg.MaxStale}, client, store, logger)
	return &Service{client: client, cache: cache}
}

// ReferencePrices returns the gold and silver quotes. A failure for either
// metal wraps ErrPriceUnavailable.
func (s *Service) ReferencePrices(ctx context.Context) (ReferencePrices, error) {
	return s.cache.ReferencePrices(ctx)
}

// Warm seeds the cache from the snapshot store.
func (s *Service) Warm(ctx context.Context) error {
	return s.cache.Warm(ctx)
}

// Wait blocks until background refreshes have finished.
func (s *Service) Wait() {
	s.cache.Wait()
}
