package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PriceLookups counts reference-price lookups by source (live/cached/default).
// The "default" label is the only place a swallowed price-feed failure stays
// visible.
var PriceLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mevshield_price_lookups_total",
		Help: "Total reference price lookups by result source",
	},
	[]string{"source"},
)

// LiquidityLookups counts pool liquidity lookups by tier
// (exact/fallback-known/fallback-default).
var LiquidityLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mevshield_liquidity_lookups_total",
		Help: "Total pool liquidity lookups by resolution tier",
	},
	[]string{"tier"},
)

// Recommendations counts issued slippage recommendations by risk level.
var Recommendations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mevshield_recommendations_total",
		Help: "Total slippage recommendations issued by risk level",
	},
	[]string{"risk_level"},
)

// RecommendationLatency records end-to-end latency of recommendation requests
var RecommendationLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "mevshield_recommendation_latency_seconds",
		Help:    "Latency in seconds to assemble a slippage recommendation",
		Buckets: prometheus.DefBuckets,
	},
)

func init() {
	prometheus.MustRegister(PriceLookups, LiquidityLookups)
	prometheus.MustRegister(Recommendations, RecommendationLatency)
}
