// Package marketdata serves the supported-token list with live quotes and
// 24h price history for the frontend charts.
package marketdata

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/internal/coingecko"
	"github.com/mevshield/slippage-engine/internal/tokens"
	"github.com/mevshield/slippage-engine/pkg/errors"
)

// SymbolQuote is one supported token with its live quote.
type SymbolQuote struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume    string  `json:"volume"`
}

// PricePoint is one sample of the 24h chart.
type PricePoint struct {
	Timestamp float64 `json:"timestamp"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
}

// PriceHistory is the 24h chart for one symbol.
type PriceHistory struct {
	ID           string       `json:"id"`
	PriceHistory []PricePoint `json:"priceHistory"`
}

// Service answers market data queries from the price index.
type Service struct {
	index  *coingecko.Client
	logger *zap.Logger
}

// NewService creates a market data service.
func NewService(index *coingecko.Client, logger *zap.Logger) *Service {
	return &Service{index: index, logger: logger}
}

// Symbols returns the supported tokens with live USD prices and 24h change.
// Tokens the index does not answer for are listed with zero values rather
// than dropped, so the watchlist shape stays stable.
func (s *Service) Symbols(ctx context.Context) ([]SymbolQuote, error) {
	ids := make([]string, 0, len(tokens.Supported))
	for _, t := range tokens.Supported {
		ids = append(ids, t.ID)
	}

	prices, err := s.index.SimplePrices(ctx, ids, true)
	if err != nil {
		s.logger.Warn("symbol quote fetch failed", zap.Error(err))
		return nil, errors.Unavailable("price index unavailable", err)
	}

	out := make([]SymbolQuote, 0, len(tokens.Supported))
	for _, t := range tokens.Supported {
		q := prices[t.ID]
		out = append(out, SymbolQuote{
			ID:        t.Symbol,
			Name:      displayName(t.ID),
			Price:     q.USD,
			Change24h: q.Change24h,
			Volume:    "N/A",
		})
	}
	return out, nil
}

// History returns the 24h price chart for a supported symbol.
func (s *Service) History(ctx context.Context, symbol string) (*PriceHistory, error) {
	t, ok := tokens.BySymbol(symbol)
	if !ok {
		return nil, errors.InvalidInput("token %q not found", symbol)
	}

	chart, err := s.index.MarketChart24h(ctx, t.ID)
	if err != nil {
		s.logger.Warn("price history fetch failed", zap.String("symbol", t.Symbol), zap.Error(err))
		return nil, errors.Unavailable("price index unavailable", err)
	}

	points := make([]PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		points = append(points, PricePoint{Timestamp: p[0], Price: p[1]})
	}
	return &PriceHistory{ID: strings.ToUpper(symbol), PriceHistory: points}, nil
}

// displayName turns an index id like "shiba-inu" into "Shiba-Inu".
func displayName(id string) string {
	parts := strings.Split(id, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}
