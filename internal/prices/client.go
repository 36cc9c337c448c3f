package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iwvelando/zakatease/internal/currency"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/datetime"
	"go.uber.org/zap"
)

const maxPayloadBytes = 4 << 20

// QuoteFetcher returns the current quote for a metal.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, metal Metal) (Quote, error)
}

// ClientConfig locates the price sources.
type ClientConfig struct {
	PrimaryURL     string
	FallbackURL    string
	AttemptTimeout time.Duration
}

// Client fetches quotes from a primary source and falls back to a secondary
// one.
type Client struct {
	logger         *zap.Logger
	httpClient     *http.Client
	primaryURL     string
	fallbackURL    string
	attemptTimeout time.Duration
	now            func() time.Time
}

// NewClient builds a Client. Empty URLs and a non-positive timeout take the
// package defaults; a nil httpClient uses http.DefaultClient.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.PrimaryURL) == "" {
		cfg.PrimaryURL = constants.DefaultPrimaryPriceURL
	}
	if strings.TrimSpace(cfg.FallbackURL) == "" {
		cfg.FallbackURL = constants.DefaultFallbackPriceURL
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = constants.DefaultPriceAttemptTimeout
	}

	return &Client{
		logger:         logger,
		httpClient:     httpClient,
		primaryURL:     strings.TrimRight(cfg.PrimaryURL, "/"),
		fallbackURL:    strings.TrimRight(cfg.FallbackURL, "/"),
		attemptTimeout: cfg.AttemptTimeout,
		now:            time.Now,
	}
}

// FetchQuote fetches the metal's quote from the primary source. If that
// fails and ctx is still live, the fallback source is tried exactly once.
// When both fail the returned error wraps ErrPriceUnavailable and both
// attempt errors.
func (c *Client) FetchQuote(ctx context.Context, metal Metal) (Quote, error) {
	if metal.Code() == "" {
		return Quote{}, fmt.Errorf("%w: unknown metal %q", ErrPriceUnavailable, metal)
	}

	quote, primaryErr := c.attempt(ctx, SourcePrimary, c.primaryURL, metal)
	if primaryErr == nil {
		return quote, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Quote{}, fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, metal, ctxErr)
	}

	c.logger.Warn("primary price source failed, trying fallback",
		zap.String("op", "prices.FetchQuote"),
		zap.String("metal", string(metal)),
		zap.Error(primaryErr),
	)

	quote, fallbackErr := c.attempt(ctx, SourceFallback, c.fallbackURL, metal)
	if fallbackErr == nil {
		return quote, nil
	}

	c.logger.Error("all price sources failed",
		zap.String("op", "prices.FetchQuote"),
		zap.String("metal", string(metal)),
		zap.NamedError("primaryError", primaryErr),
		zap.NamedError("fallbackError", fallbackErr),
	)
	return Quote{}, fmt.Errorf("%w: %s: primary: %w; fallback: %w",
		ErrPriceUnavailable, metal, primaryErr, fallbackErr)
}

// FetchReferencePrices fetches gold and silver concurrently.
func (c *Client) FetchReferencePrices(ctx context.Context) (ReferencePrices, error) {
	return fetchPair(ctx, c)
}

func (c *Client) attempt(ctx context.Context, source Source, baseURL string, metal Metal) (Quote, error) {
	start := time.Now()
	quote, err := c.get(ctx, baseURL, metal)
	FetchDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	FetchAttempts.WithLabelValues(string(metal), string(source), outcome).Inc()

	c.logger.Debug("price source attempt",
		zap.String("op", "prices.attempt"),
		zap.String("metal", string(metal)),
		zap.String("source", string(source)),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	)
	return quote, err
}

func (c *Client) get(ctx context.Context, baseURL string, metal Metal) (Quote, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s.json", baseURL, metal.Code())
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close price response body",
				zap.String("op", "prices.get"),
				zap.Error(closeErr),
			)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Quote{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Quote{}, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	return parsePayload(body, metal, c.now())
}

// parsePayload decodes a {"date": ..., "<code>": {"<currency>": price}}
// document. Non-numeric and non-positive rates are skipped; a payload left
// with no rate is malformed.
func parsePayload(body []byte, metal Metal, now time.Time) (Quote, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	rawRates, ok := payload[metal.Code()]
	if !ok {
		return Quote{}, fmt.Errorf("%w: missing %q mapping", ErrMalformedPayload, metal.Code())
	}

	var rates map[string]json.RawMessage
	if err := json.Unmarshal(rawRates, &rates); err != nil {
		return Quote{}, fmt.Errorf("%w: %q is not a mapping: %v", ErrMalformedPayload, metal.Code(), err)
	}

	perOunce := make(map[string]float64, len(rates))
	for code, raw := range rates {
		var price float64
		if err := json.Unmarshal(raw, &price); err != nil {
			continue
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			continue
		}
		perOunce[code] = price
	}

	// Rates too small to reach one whole unit per tola are kept as 0, which
	// PriceFor reports as unavailable.
	perTola := currency.ConvertAll(perOunce)
	if len(perTola) == 0 {
		return Quote{}, fmt.Errorf("%w: no positive %q rates", ErrMalformedPayload, metal.Code())
	}

	var date string
	if rawDate, ok := payload["date"]; ok {
		_ = json.Unmarshal(rawDate, &date)
	}

	return Quote{
		Metal:   metal,
		PerTola: perTola,
		AsOf:    datetime.NormalizeDate(date, now),
	}, nil
}

// fetchPair fetches both metals concurrently and combines them once both
// complete. Any failure fails the pair.
func fetchPair(ctx context.Context, fetcher QuoteFetcher) (ReferencePrices, error) {
	var (
		wg                 sync.WaitGroup
		gold, silver       Quote
		goldErr, silverErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		gold, goldErr = fetcher.FetchQuote(ctx, Gold)
	}()
	go func() {
		defer wg.Done()
		silver, silverErr = fetcher.FetchQuote(ctx, Silver)
	}()
	wg.Wait()

	if goldErr != nil {
		return ReferencePrices{}, goldErr
	}
	if silverErr != nil {
		return ReferencePrices{}, silverErr
	}
	return ReferencePrices{Gold: gold, Silver: silver}, nil
}
