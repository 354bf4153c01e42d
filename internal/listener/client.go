// Package listener is the client for the mempool listener collaborator, the
// service that watches the chain and aggregates per-pair bot activity.
//
// Unlike the price and liquidity upstreams, listener failures are NOT
// absorbed: activity stats are the one input the engine refuses to fabricate,
// so unavailability surfaces to the caller as a 503-equivalent error.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/pkg/errors"
)

// ActivityStats are the aggregated adversarial-activity signals for one pair.
// Every field defaults explicitly: a listener payload missing a field scores
// as if that signal were quiet, except gas which defaults to a normal 30 gwei.
type ActivityStats struct {
	BotActivityScore  float64 `json:"bot_activity_score"`
	SandwichCount5m   int     `json:"sandwiches_5min"`
	AvgGasGwei        float64 `json:"avg_gas_gwei"`
	Transactions5m    int     `json:"transactions_5min"`
	SuspiciousTxCount int     `json:"suspicious_tx_count"`
}

// DefaultGasGwei is assumed when the listener omits avg_gas_gwei.
const DefaultGasGwei = 30

// Client fetches ActivityStats from the listener service.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewClient creates a listener client with a hard per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// payload mirrors the listener's wire format. Pointers distinguish "absent"
// from zero so defaults can be applied per field.
type payload struct {
	BotActivityScore  *float64 `json:"bot_activity_score"`
	SandwichCount5m   *int     `json:"sandwiches_5min"`
	AvgGasGwei        *float64 `json:"avg_gas_gwei"`
	Transactions5m    *int     `json:"transactions_5min"`
	SuspiciousTxCount *int     `json:"suspicious_tx_count"`
}

// PairStats fetches activity stats for the given pair identifier. Any
// transport error, non-2xx status or malformed body is reported as a
// collaborator-unavailable error.
func (c *Client) PairStats(ctx context.Context, pair string) (*ActivityStats, error) {
	u := fmt.Sprintf("%s/api/pairs/%s", c.baseURL, url.PathEscape(pair))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Unavailable("listener service unavailable", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("listener request failed", zap.String("pair", pair), zap.Error(err))
		return nil, errors.Unavailable("listener service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("listener returned error status",
			zap.String("pair", pair),
			zap.Int("status", resp.StatusCode))
		return nil, errors.Unavailable("listener service unavailable",
			fmt.Errorf("listener returned status %d", resp.StatusCode))
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, errors.Unavailable("listener service unavailable", fmt.Errorf("decode listener response: %w", err))
	}

	return p.toStats(), nil
}

func (p *payload) toStats() *ActivityStats {
	stats := &ActivityStats{AvgGasGwei: DefaultGasGwei}
	if p.BotActivityScore != nil {
		stats.BotActivityScore = *p.BotActivityScore
	}
	if p.SandwichCount5m != nil {
		stats.SandwichCount5m = *p.SandwichCount5m
	}
	if p.AvgGasGwei != nil {
		stats.AvgGasGwei = *p.AvgGasGwei
	}
	if p.Transactions5m != nil {
		stats.Transactions5m = *p.Transactions5m
	}
	if p.SuspiciousTxCount != nil {
		stats.SuspiciousTxCount = *p.SuspiciousTxCount
	}
	return stats
}
