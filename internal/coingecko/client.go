// Package coingecko implements the upstream price index client shared by the
// price oracle and the market data service.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client queries a CoinGecko-compatible price index.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a price index client. The timeout bounds every request so
// a hung upstream cannot stall a caller.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// SimplePrice is one asset's quote from the simple/price endpoint.
type SimplePrice struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

// SimplePrices fetches USD quotes for the given asset ids. The response maps
// asset id to quote; an asset missing from the map means the index does not
// know it.
func (c *Client) SimplePrices(ctx context.Context, ids []string, include24hChange bool) (map[string]SimplePrice, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	if include24hChange {
		q.Set("include_24hr_change", "true")
	}

	var out map[string]SimplePrice
	if err := c.getJSON(ctx, "/simple/price?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// USDPrice fetches the USD price of a single asset. A 2xx response without
// the asset or currency field is treated as a failure.
func (c *Client) USDPrice(ctx context.Context, id string) (float64, error) {
	prices, err := c.SimplePrices(ctx, []string{id}, false)
	if err != nil {
		return 0, err
	}
	p, ok := prices[id]
	if !ok {
		return 0, fmt.Errorf("price index response missing asset %q", id)
	}
	if p.USD <= 0 {
		return 0, fmt.Errorf("price index returned non-positive price for %q", id)
	}
	return p.USD, nil
}

// MarketChart is the 24h price history for one asset. Each point is
// [timestamp_ms, price].
type MarketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// MarketChart24h fetches one day of price history for the given asset id.
func (c *Client) MarketChart24h(ctx context.Context, id string) (*MarketChart, error) {
	path := fmt.Sprintf("/coins/%s/market_chart?vs_currency=usd&days=1", url.PathEscape(id))
	var out MarketChart
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build price index request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("price index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("price index returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode price index response: %w", err)
	}
	return nil
}
