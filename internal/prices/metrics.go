package prices

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source labels which price endpoint served an attempt.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// FetchAttempts counts price source requests by metal, source and outcome.
var FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "zakatease",
	Subsystem: "prices",
	Name:      "fetch_attempts_total",
	Help:      "Total price source requests by metal, source and outcome.",
}, []string{"metal", "source", "outcome"})

// FetchDuration tracks the latency of single price source requests.
var FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "zakatease",
	Subsystem: "prices",
	Name:      "fetch_duration_seconds",
	Help:      "Latency of price source requests.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"source"})

// CacheLookups counts cache reads by result (fresh, stale, miss).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "zakatease",
	Subsystem: "prices",
	Name:      "cache_lookups_total",
	Help:      "Total price cache lookups by result.",
}, []string{"result"})

// CacheRefreshFailures counts background refreshes that kept a stale entry.
var CacheRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "zakatease",
	Subsystem: "prices",
	Name:      "cache_refresh_failures_total",
	Help:      "Total failed price refreshes.",
})
