package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const explanationSummary = "This recommendation balances trade execution probability with minimizing MEV extraction risk."

// buildExplanation renders the scoring inputs and their contributions into
// the user-facing breakdown. Pure formatting; absent values render as zero
// rather than failing.
func buildExplanation(b breakdown) Explanation {
	factors := make([]Factor, 0, 4)

	factors = append(factors, Factor{
		Name:   "Pool Liquidity",
		Value:  fmt.Sprintf("$%s (%s)", humanize.CommafWithDigits(b.liquidityUSD, 0), liquidityLabel(b.liquidityUSD)),
		Impact: fmt.Sprintf("Base: %s", formatPercent(b.baseSlippage)),
	})

	factors = append(factors, Factor{
		Name:   "Bot Activity",
		Value:  fmt.Sprintf("%s (%.2f)", botActivityLabel(b.stats.BotActivityScore), b.stats.BotActivityScore),
		Impact: impactLabel(b.botAdj, "None"),
	})

	factors = append(factors, Factor{
		Name:   "Recent Sandwiches",
		Value:  fmt.Sprintf("%d in 5min", b.stats.SandwichCount5m),
		Impact: impactLabel(b.sandwichAdj, "None"),
	})

	factors = append(factors, Factor{
		Name:   "Gas Prices",
		Value:  fmt.Sprintf("%.0f gwei", b.stats.AvgGasGwei),
		Impact: impactLabel(b.gasAdj, "Normal"),
	})

	return Explanation{Summary: explanationSummary, Factors: factors}
}

// liquidityLabel mirrors the base-tier boundaries.
func liquidityLabel(liquidityUSD float64) string {
	switch {
	case liquidityUSD > 10_000_000:
		return "High"
	case liquidityUSD > 1_000_000:
		return "Good"
	case liquidityUSD > 100_000:
		return "Moderate"
	default:
		return "Very Low"
	}
}

func botActivityLabel(score float64) string {
	switch {
	case score > 0.7:
		return "Very High"
	case score > 0.4:
		return "Moderate"
	case score > 0.2:
		return "Low"
	default:
		return "Very Low"
	}
}

// impactLabel renders a positive adjustment as "+X.Y%", otherwise the given
// neutral word.
func impactLabel(adjustment float64, neutral string) string {
	if adjustment > 0 {
		return "+" + formatPercent(adjustment)
	}
	return neutral
}
