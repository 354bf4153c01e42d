package engine

import "github.com/mevshield/slippage-engine/internal/risk"

// SlippageRecommendation is the engine's caller-facing output, serialized as
// a flat snake_case object. Constructed fresh per request, never persisted.
type SlippageRecommendation struct {
	RecommendedSlippage float64       `json:"recommended_slippage"`
	RecommendedPercent  string        `json:"recommended_percent"`
	RiskLevel           risk.Level    `json:"risk_level"`
	RiskScore           int           `json:"risk_score"`
	PoolStats           PoolStats     `json:"pool_stats"`
	BotActivity         BotActivity   `json:"bot_activity"`
	Explanation         Explanation   `json:"explanation"`
	Alternatives        []Alternative `json:"alternatives"`
}

// PoolStats is the liquidity context behind the recommendation.
type PoolStats struct {
	LiquidityUSD float64 `json:"liquidity_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	// PriceImpact is a rough linear estimate, informational only.
	PriceImpact float64 `json:"your_price_impact"`
}

// BotActivity echoes the listener signals that drove the scoring.
type BotActivity struct {
	Level             string  `json:"level"`
	Score             float64 `json:"score"`
	Transactions5m    int     `json:"transactions_5min"`
	SuspiciousTxCount int     `json:"suspicious_tx_count"`
	Sandwiches5m      int     `json:"sandwiches_5min"`
}

// Alternative is one of the three presets offered next to the recommendation.
type Alternative struct {
	Slippage   string `json:"slippage"`
	Risk       string `json:"risk"`
	FailChance string `json:"fail_chance"`
}

// Explanation is the structured human-readable breakdown.
type Explanation struct {
	Summary string   `json:"summary"`
	Factors []Factor `json:"factors"`
}

// Factor is one scoring input with its rendered value and impact.
type Factor struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Impact string `json:"impact"`
}
