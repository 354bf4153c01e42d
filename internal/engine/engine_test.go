package engine

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/internal/liquidity"
	"github.com/mevshield/slippage-engine/internal/listener"
	"github.com/mevshield/slippage-engine/internal/oracle"
	"github.com/mevshield/slippage-engine/internal/risk"
	pkgerrors "github.com/mevshield/slippage-engine/pkg/errors"
)

type stubOracle struct {
	quote oracle.Quote
}

func (s stubOracle) GetReferencePrice(ctx context.Context) oracle.Quote { return s.quote }

type stubResolver struct {
	quote liquidity.Quote
}

func (s stubResolver) ResolveLiquidity(ctx context.Context, token string) liquidity.Quote {
	return s.quote
}

const pepeAddress = "0x6982508145454ce325ddbe47a25d4ec3d2311933"

func newTestEngine(liquidityUSD float64) *Engine {
	return New(
		stubOracle{quote: oracle.Quote{Value: 2500, FetchedAt: time.Now(), Source: oracle.SourceLive}},
		stubResolver{quote: liquidity.Quote{USDValue: liquidityUSD, Tier: liquidity.TierExact}},
		zap.NewNop(),
	)
}

func recommend(t *testing.T, liquidityUSD float64, stats *listener.ActivityStats) *SlippageRecommendation {
	t.Helper()
	rec, err := newTestEngine(liquidityUSD).Recommend(context.Background(), "ETH", pepeAddress, stats)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestRecommend_DeepQuietPool(t *testing.T) {
	rec := recommend(t, 12_000_000, &listener.ActivityStats{
		BotActivityScore: 0,
		SandwichCount5m:  0,
		AvgGasGwei:       20,
	})

	assert.Equal(t, 0.003, rec.RecommendedSlippage)
	assert.Equal(t, "0.3%", rec.RecommendedPercent)
	assert.Equal(t, risk.LevelLow, rec.RiskLevel)
	assert.Equal(t, 1, rec.RiskScore)
}

func TestRecommend_ShallowHostilePool(t *testing.T) {
	rec := recommend(t, 50_000, &listener.ActivityStats{
		BotActivityScore: 0.8,
		SandwichCount5m:  6,
		AvgGasGwei:       120,
		Transactions5m:   40,
	})

	// base 2.0% + bot 0.4% + sandwich 0.3% + gas 0.2% = 2.9%
	assert.Equal(t, 0.029, rec.RecommendedSlippage)
	assert.Equal(t, "2.9%", rec.RecommendedPercent)
	assert.Equal(t, risk.LevelSevere, rec.RiskLevel)
	assert.Equal(t, 5, rec.RiskScore)
}

func TestRecommend_AlwaysWithinBounds(t *testing.T) {
	liquidities := []float64{0, 1, 50_000, 100_000, 500_000, 1_000_000, 10_000_000, 1e12}
	scores := []float64{0, 0.4, 0.7, 1, 5, -3}
	sandwiches := []int{0, 2, 6, 500}
	gases := []float64{0, 76, 101, 10_000}

	for _, liq := range liquidities {
		for _, bot := range scores {
			for _, sand := range sandwiches {
				for _, gas := range gases {
					rec := recommend(t, liq, &listener.ActivityStats{
						BotActivityScore: bot,
						SandwichCount5m:  sand,
						AvgGasGwei:       gas,
					})
					assert.GreaterOrEqual(t, rec.RecommendedSlippage, MinSlippage)
					assert.LessOrEqual(t, rec.RecommendedSlippage, MaxSlippage)
				}
			}
		}
	}
}

func TestRecommend_MonotoneInActivity(t *testing.T) {
	base := listener.ActivityStats{AvgGasGwei: 20}

	prev := 0.0
	for _, bot := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1} {
		s := base
		s.BotActivityScore = bot
		rec := recommend(t, 2_000_000, &s)
		assert.GreaterOrEqual(t, rec.RecommendedSlippage, prev, "bot score %v", bot)
		prev = rec.RecommendedSlippage
	}

	prev = 0.0
	for sand := 0; sand <= 8; sand++ {
		s := base
		s.SandwichCount5m = sand
		rec := recommend(t, 2_000_000, &s)
		assert.GreaterOrEqual(t, rec.RecommendedSlippage, prev, "sandwich count %d", sand)
		prev = rec.RecommendedSlippage
	}

	prev = 0.0
	for _, gas := range []float64{20, 76, 80, 101, 200} {
		s := base
		s.AvgGasGwei = gas
		rec := recommend(t, 2_000_000, &s)
		assert.GreaterOrEqual(t, rec.RecommendedSlippage, prev, "gas %v", gas)
		prev = rec.RecommendedSlippage
	}

	// More liquidity never increases the recommendation.
	prev = 1.0
	for _, liq := range []float64{50_000, 200_000, 2_000_000, 20_000_000} {
		rec := recommend(t, liq, &base)
		assert.LessOrEqual(t, rec.RecommendedSlippage, prev, "liquidity %v", liq)
		prev = rec.RecommendedSlippage
	}
}

// The 10M boundary is strict: exactly 10,000,000 sits in the 0.5% tier,
// one dollar more reaches the 0.3% tier.
func TestRecommend_LiquidityTierBoundary(t *testing.T) {
	quiet := &listener.ActivityStats{AvgGasGwei: 20}

	at := recommend(t, 10_000_000, quiet)
	above := recommend(t, 10_000_001, quiet)

	assert.Equal(t, 0.005, at.RecommendedSlippage)
	assert.Equal(t, 0.003, above.RecommendedSlippage)
}

func parsePercent(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	require.NoError(t, err, "percent string %q", s)
	return v
}

func TestRecommend_AlternativesOrdered(t *testing.T) {
	stats := []*listener.ActivityStats{
		{AvgGasGwei: 20},
		{BotActivityScore: 0.8, SandwichCount5m: 6, AvgGasGwei: 120},
		{BotActivityScore: 0.5, SandwichCount5m: 2, AvgGasGwei: 80},
	}

	for _, s := range stats {
		rec := recommend(t, 300_000, s)
		require.Len(t, rec.Alternatives, 3)

		low := parsePercent(t, rec.Alternatives[0].Slippage)
		mid := parsePercent(t, rec.Alternatives[1].Slippage)
		high := parsePercent(t, rec.Alternatives[2].Slippage)

		assert.LessOrEqual(t, low, mid)
		assert.LessOrEqual(t, mid, high)

		assert.Equal(t, "lower", rec.Alternatives[0].Risk)
		assert.Equal(t, strings.ToLower(string(rec.RiskLevel)), rec.Alternatives[1].Risk)
		assert.Equal(t, "higher", rec.Alternatives[2].Risk)

		assert.Equal(t, "15%", rec.Alternatives[0].FailChance)
		assert.Equal(t, "3%", rec.Alternatives[1].FailChance)
		assert.Equal(t, "<1%", rec.Alternatives[2].FailChance)
	}
}

func TestRecommend_PriceImpact(t *testing.T) {
	rec := recommend(t, 2_000_000, &listener.ActivityStats{AvgGasGwei: 20, Transactions5m: 40})
	// 40 * 1000 / 2,000,000 = 0.02
	assert.Equal(t, 0.02, rec.PoolStats.PriceImpact)

	rec = recommend(t, 0, &listener.ActivityStats{AvgGasGwei: 20, Transactions5m: 40})
	assert.Equal(t, 0.0, rec.PoolStats.PriceImpact)
}

func TestRecommend_BotActivityEcho(t *testing.T) {
	rec := recommend(t, 2_000_000, &listener.ActivityStats{
		BotActivityScore:  0.4567,
		SandwichCount5m:   2,
		AvgGasGwei:        20,
		Transactions5m:    17,
		SuspiciousTxCount: 3,
	})

	assert.Equal(t, 0.457, rec.BotActivity.Score)
	assert.Equal(t, 2, rec.BotActivity.Sandwiches5m)
	assert.Equal(t, 17, rec.BotActivity.Transactions5m)
	assert.Equal(t, 3, rec.BotActivity.SuspiciousTxCount)
	assert.Equal(t, strings.ToLower(string(rec.RiskLevel)), rec.BotActivity.Level)
}

func TestRecommend_InvalidToken(t *testing.T) {
	eng := newTestEngine(1_000_000)

	_, err := eng.Recommend(context.Background(), "ETH", "0xnot-an-address", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindInvalidInput, pkgerrors.Kind(err))

	_, err = eng.Recommend(context.Background(), "not a symbol!", pepeAddress, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindInvalidInput, pkgerrors.Kind(err))
}

// Nil stats behave as a quiet pair at normal gas.
func TestRecommend_NilStatsDefaults(t *testing.T) {
	rec := recommend(t, 12_000_000, nil)
	assert.Equal(t, 0.003, rec.RecommendedSlippage)
	assert.Equal(t, risk.LevelLow, rec.RiskLevel)
}
