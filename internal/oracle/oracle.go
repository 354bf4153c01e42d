// Package oracle maintains the cached reference price (ETH in USD). The
// oracle never fails: upstream trouble degrades to a configured default while
// any previously cached value is left intact.
package oracle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/pkg/metrics"
)

// Source tags where a quote came from.
type Source string

const (
	SourceLive    Source = "live"
	SourceCached  Source = "cached"
	SourceDefault Source = "default"
)

// Quote is a reference price observation. Quotes are immutable; a refresh
// produces a new one rather than mutating the old.
type Quote struct {
	Value     float64
	FetchedAt time.Time
	Source    Source
}

// PriceFetcher is the upstream price index dependency.
type PriceFetcher interface {
	USDPrice(ctx context.Context, id string) (float64, error)
}

// Oracle serves the reference price with a single-slot TTL cache. The slot is
// swapped whole under the mutex, so readers observe either the prior quote or
// the new one, never a partial update.
type Oracle struct {
	fetcher      PriceFetcher
	assetID      string
	defaultPrice float64
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu     sync.RWMutex
	cached *Quote
}

// New creates a price oracle for the given asset id (e.g. "ethereum").
func New(fetcher PriceFetcher, assetID string, defaultPrice float64, ttl time.Duration, logger *zap.Logger) *Oracle {
	return &Oracle{
		fetcher:      fetcher,
		assetID:      assetID,
		defaultPrice: defaultPrice,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the oracle's clock. Test hook.
func (o *Oracle) WithClock(now func() time.Time) *Oracle {
	o.now = now
	return o
}

// GetReferencePrice returns a usable quote, always. Within the TTL the cached
// quote is returned untouched. On expiry a single upstream attempt is made;
// failure yields the static default and leaves the cache alone, since a stale
// quote is still a real observation and a failure is not.
//
// Concurrent callers that miss simultaneously may each fetch; the last write
// wins and every write is a fully-formed quote.
func (o *Oracle) GetReferencePrice(ctx context.Context) Quote {
	now := o.now()

	o.mu.RLock()
	cached := o.cached
	o.mu.RUnlock()

	if cached != nil && now.Sub(cached.FetchedAt) < o.ttl {
		metrics.PriceLookups.WithLabelValues(string(SourceCached)).Inc()
		return Quote{Value: cached.Value, FetchedAt: cached.FetchedAt, Source: SourceCached}
	}

	value, err := o.fetcher.USDPrice(ctx, o.assetID)
	if err != nil {
		o.logger.Warn("reference price fetch failed, serving default",
			zap.String("asset", o.assetID),
			zap.Float64("default_usd", o.defaultPrice),
			zap.Error(err))
		metrics.PriceLookups.WithLabelValues(string(SourceDefault)).Inc()
		return Quote{Value: o.defaultPrice, FetchedAt: now, Source: SourceDefault}
	}

	quote := &Quote{Value: value, FetchedAt: now, Source: SourceLive}
	o.mu.Lock()
	o.cached = quote
	o.mu.Unlock()

	o.logger.Debug("reference price refreshed",
		zap.String("asset", o.assetID),
		zap.Float64("price_usd", value))
	metrics.PriceLookups.WithLabelValues(string(SourceLive)).Inc()
	return *quote
}
