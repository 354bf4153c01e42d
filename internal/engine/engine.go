// Package engine computes bounded slippage-tolerance recommendations by
// fusing pool liquidity, bot activity and gas competition.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mevshield/slippage-engine/internal/liquidity"
	"github.com/mevshield/slippage-engine/internal/listener"
	"github.com/mevshield/slippage-engine/internal/oracle"
	"github.com/mevshield/slippage-engine/internal/risk"
	"github.com/mevshield/slippage-engine/internal/tokens"
	"github.com/mevshield/slippage-engine/pkg/errors"
	"github.com/mevshield/slippage-engine/pkg/metrics"
)

// Slippage bounds and adjustment caps, as fractions. The clamp to
// [MinSlippage, MaxSlippage] is a hard contract regardless of input size.
const (
	MinSlippage = 0.003
	MaxSlippage = 0.03

	maxSandwichAdjustment = 0.003
	altLowFloor           = 0.001
	altHighCeiling        = 0.05
)

// PriceOracle supplies the cached reference price. Never fails.
type PriceOracle interface {
	GetReferencePrice(ctx context.Context) oracle.Quote
}

// LiquidityResolver supplies pool liquidity with tiered fallbacks. Never
// fails.
type LiquidityResolver interface {
	ResolveLiquidity(ctx context.Context, token string) liquidity.Quote
}

// Engine orchestrates the recommendation pipeline.
type Engine struct {
	oracle   PriceOracle
	resolver LiquidityResolver
	logger   *zap.Logger
}

// New creates a recommendation engine.
func New(priceOracle PriceOracle, resolver LiquidityResolver, logger *zap.Logger) *Engine {
	return &Engine{oracle: priceOracle, resolver: resolver, logger: logger}
}

// breakdown carries the intermediate values from the formula into the
// explanation builder.
type breakdown struct {
	liquidityUSD float64
	stats        listener.ActivityStats

	baseSlippage float64
	botAdj       float64
	sandwichAdj  float64
	gasAdj       float64
	recommended  float64
}

// Recommend produces a slippage recommendation for swapping tokenIn into
// tokenOut given the pair's activity stats. The only error conditions are an
// unnormalizable token identifier and unexpected internal faults; upstream
// degradation is absorbed by the oracle and resolver.
func (e *Engine) Recommend(ctx context.Context, tokenIn, tokenOut string, stats *listener.ActivityStats) (rec *SlippageRecommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recommendation pipeline panicked", zap.Any("panic", r))
			rec, err = nil, errors.Internal(fmt.Errorf("panic: %v", r))
		}
	}()

	start := time.Now()

	if _, err := tokens.Normalize(tokenIn); err != nil {
		return nil, err
	}
	outToken, err := tokens.Normalize(tokenOut)
	if err != nil {
		return nil, err
	}

	s := sanitize(stats)

	// Liquidity and price have no data dependency; fetch them together so
	// neither blocks the other.
	var (
		liqQuote   liquidity.Quote
		priceQuote oracle.Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		liqQuote = e.resolver.ResolveLiquidity(gctx, outToken)
		return nil
	})
	g.Go(func() error {
		priceQuote = e.oracle.GetReferencePrice(gctx)
		return nil
	})
	// Both dependencies absorb their own failures.
	_ = g.Wait()

	b := computeBreakdown(liqQuote.USDValue, s)

	assessment := risk.Score(s.BotActivityScore, s.SandwichCount5m, s.AvgGasGwei, b.liquidityUSD)

	rec = e.assemble(b, assessment)

	e.logger.Info("slippage recommendation issued",
		zap.String("token_out", outToken),
		zap.Float64("recommended", rec.RecommendedSlippage),
		zap.String("risk_level", string(assessment.Level)),
		zap.String("liquidity_tier", string(liqQuote.Tier)),
		zap.String("price_source", string(priceQuote.Source)),
		zap.Float64("reference_price_usd", priceQuote.Value))

	metrics.Recommendations.WithLabelValues(string(assessment.Level)).Inc()
	metrics.RecommendationLatency.Observe(time.Since(start).Seconds())
	return rec, nil
}

// sanitize applies the documented defaults and ranges to externally supplied
// stats: the bot score lives in [0,1], counts and gas are non-negative.
func sanitize(stats *listener.ActivityStats) listener.ActivityStats {
	s := listener.ActivityStats{AvgGasGwei: listener.DefaultGasGwei}
	if stats != nil {
		s = *stats
	}
	s.BotActivityScore = math.Min(math.Max(s.BotActivityScore, 0), 1)
	if s.SandwichCount5m < 0 {
		s.SandwichCount5m = 0
	}
	if s.AvgGasGwei < 0 {
		s.AvgGasGwei = 0
	}
	if s.Transactions5m < 0 {
		s.Transactions5m = 0
	}
	if s.SuspiciousTxCount < 0 {
		s.SuspiciousTxCount = 0
	}
	return s
}

func computeBreakdown(liquidityUSD float64, s listener.ActivityStats) breakdown {
	b := breakdown{liquidityUSD: liquidityUSD, stats: s}

	// Base tier from liquidity: thinner pools need a wider buffer.
	switch {
	case liquidityUSD > 10_000_000:
		b.baseSlippage = 0.003
	case liquidityUSD > 1_000_000:
		b.baseSlippage = 0.005
	case liquidityUSD > 100_000:
		b.baseSlippage = 0.01
	default:
		b.baseSlippage = 0.02
	}

	// Independent, individually capped adjustments.
	b.botAdj = s.BotActivityScore * 0.005
	b.sandwichAdj = math.Min(float64(s.SandwichCount5m)*0.001, maxSandwichAdjustment)
	switch {
	case s.AvgGasGwei > 100:
		b.gasAdj = 0.002
	case s.AvgGasGwei > 75:
		b.gasAdj = 0.001
	}

	raw := b.baseSlippage + b.botAdj + b.sandwichAdj + b.gasAdj
	b.recommended = round4(math.Max(MinSlippage, math.Min(raw, MaxSlippage)))
	return b
}

func (e *Engine) assemble(b breakdown, assessment risk.Assessment) *SlippageRecommendation {
	recommendedPercent := formatPercent(b.recommended)

	altLow := round4(math.Max(altLowFloor, b.recommended*0.6))
	altHigh := round4(math.Min(altHighCeiling, b.recommended*1.5))

	// Rough linear estimate only; zero liquidity yields zero rather than a
	// division fault.
	priceImpact := 0.0
	if b.liquidityUSD > 0 {
		priceImpact = round4(float64(b.stats.Transactions5m) * 1000 / b.liquidityUSD)
	}

	return &SlippageRecommendation{
		RecommendedSlippage: b.recommended,
		RecommendedPercent:  recommendedPercent,
		RiskLevel:           assessment.Level,
		RiskScore:           assessment.Score,
		PoolStats: PoolStats{
			LiquidityUSD: math.Round(b.liquidityUSD),
			Volume24hUSD: 0,
			PriceImpact:  priceImpact,
		},
		BotActivity: BotActivity{
			Level:             strings.ToLower(string(assessment.Level)),
			Score:             round3(b.stats.BotActivityScore),
			Transactions5m:    b.stats.Transactions5m,
			SuspiciousTxCount: b.stats.SuspiciousTxCount,
			Sandwiches5m:      b.stats.SandwichCount5m,
		},
		Explanation: buildExplanation(b),
		Alternatives: []Alternative{
			{Slippage: formatPercent(altLow), Risk: "lower", FailChance: "15%"},
			{Slippage: recommendedPercent, Risk: strings.ToLower(string(assessment.Level)), FailChance: "3%"},
			{Slippage: formatPercent(altHigh), Risk: "higher", FailChance: "<1%"},
		},
	}
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
