// Package liquidity resolves a token's available USD liquidity against the
// reference asset by querying a Uniswap-subgraph-style pair index. Resolution
// never fails; degraded conditions map to labeled fallback tiers instead.
package liquidity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/pkg/metrics"
)

// Tier labels why a quote holds the value it does.
type Tier string

const (
	// TierExact means the pair index answered with a live pool reserve.
	TierExact Tier = "exact"
	// TierFallbackKnown means the index answered but knows no pool pairing
	// the token with the reference asset.
	TierFallbackKnown Tier = "fallback-known"
	// TierFallbackDefault means the index itself was unreachable or returned
	// garbage. Deliberately more conservative than TierFallbackKnown.
	TierFallbackDefault Tier = "fallback-default"
)

// ReferenceAssetLiquidityUSD is the sentinel for the reference asset itself,
// which is treated as unconstrained.
const ReferenceAssetLiquidityUSD = 1_000_000_000

// Quote is one liquidity resolution. Produced fresh per call, never cached.
type Quote struct {
	USDValue float64
	Tier     Tier
}

// Resolver queries the pair index with tiered fallbacks.
type Resolver struct {
	indexURL         string
	referenceAddress string
	unknownPairUSD   float64
	degradedUSD      float64
	httpc            *http.Client
	logger           *zap.Logger
}

// NewResolver creates a liquidity resolver. unknownPairUSD and degradedUSD
// are the two fallback constants; callers are expected to configure them to
// distinct values.
func NewResolver(indexURL, referenceAddress string, unknownPairUSD, degradedUSD float64, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		indexURL:         indexURL,
		referenceAddress: strings.ToLower(referenceAddress),
		unknownPairUSD:   unknownPairUSD,
		degradedUSD:      degradedUSD,
		httpc:            &http.Client{Timeout: timeout},
		logger:           logger,
	}
}

// pairQuery asks for the best pool in both token orderings, ordered by
// descending USD reserve, top result only.
const pairQuery = `{
  asToken0: pairs(first: 1, orderBy: reserveUSD, orderDirection: desc, where: {token0: %q, token1: %q}) { reserveUSD }
  asToken1: pairs(first: 1, orderBy: reserveUSD, orderDirection: desc, where: {token0: %q, token1: %q}) { reserveUSD }
}`

type pairIndexResponse struct {
	Data struct {
		AsToken0 []pairReserve `json:"asToken0"`
		AsToken1 []pairReserve `json:"asToken1"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type pairReserve struct {
	ReserveUSD string `json:"reserveUSD"`
}

// ResolveLiquidity resolves the token's USD liquidity against the reference
// asset. Identifiers are compared case-insensitively. A single upstream
// attempt is made; failures degrade immediately, they are not retried.
func (r *Resolver) ResolveLiquidity(ctx context.Context, token string) Quote {
	token = strings.ToLower(strings.TrimSpace(token))

	if r.isReferenceAsset(token) {
		metrics.LiquidityLookups.WithLabelValues(string(TierExact)).Inc()
		return Quote{USDValue: ReferenceAssetLiquidityUSD, Tier: TierExact}
	}

	reserve, found, err := r.queryBestPair(ctx, token)
	switch {
	case err != nil:
		r.logger.Warn("pair index query failed, serving degraded fallback",
			zap.String("token", token),
			zap.Float64("fallback_usd", r.degradedUSD),
			zap.Error(err))
		metrics.LiquidityLookups.WithLabelValues(string(TierFallbackDefault)).Inc()
		return Quote{USDValue: r.degradedUSD, Tier: TierFallbackDefault}
	case !found:
		r.logger.Debug("no reference-asset pool for token, serving unknown-pair fallback",
			zap.String("token", token),
			zap.Float64("fallback_usd", r.unknownPairUSD))
		metrics.LiquidityLookups.WithLabelValues(string(TierFallbackKnown)).Inc()
		return Quote{USDValue: r.unknownPairUSD, Tier: TierFallbackKnown}
	default:
		metrics.LiquidityLookups.WithLabelValues(string(TierExact)).Inc()
		return Quote{USDValue: reserve, Tier: TierExact}
	}
}

func (r *Resolver) isReferenceAsset(token string) bool {
	return token == r.referenceAddress || token == "eth" || token == "weth"
}

// queryBestPair returns the largest USD reserve across both orderings.
// found=false means the index answered but has no such pool.
func (r *Resolver) queryBestPair(ctx context.Context, token string) (reserve float64, found bool, err error) {
	query := fmt.Sprintf(pairQuery, token, r.referenceAddress, r.referenceAddress, token)
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return 0, false, fmt.Errorf("marshal pair index query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.indexURL, bytes.NewReader(body))
	if err != nil {
		return 0, false, fmt.Errorf("build pair index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("pair index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, false, fmt.Errorf("pair index returned status %d", resp.StatusCode)
	}

	var decoded pairIndexResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, false, fmt.Errorf("decode pair index response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return 0, false, fmt.Errorf("pair index error: %s", decoded.Errors[0].Message)
	}

	best := -1.0
	for _, pairs := range [][]pairReserve{decoded.Data.AsToken0, decoded.Data.AsToken1} {
		for _, p := range pairs {
			v, perr := strconv.ParseFloat(p.ReserveUSD, 64)
			if perr != nil {
				return 0, false, fmt.Errorf("parse reserveUSD %q: %w", p.ReserveUSD, perr)
			}
			if v > best {
				best = v
			}
		}
	}
	if best < 0 {
		return 0, false, nil
	}
	return best, true, nil
}
