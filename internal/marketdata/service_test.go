package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/internal/coingecko"
	pkgerrors "github.com/mevshield/slippage-engine/pkg/errors"
)

func newTestService(indexURL string) *Service {
	return NewService(coingecko.NewClient(indexURL, time.Second), zap.NewNop())
}

func TestSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ethereum,pepe,shiba-inu", r.URL.Query().Get("ids"))
		w.Write([]byte(`{
			"ethereum": {"usd": 2500.5, "usd_24h_change": 1.1},
			"pepe": {"usd": 0.0000071, "usd_24h_change": -4.2},
			"shiba-inu": {"usd": 0.000024, "usd_24h_change": 0.3}
		}`))
	}))
	defer srv.Close()

	symbols, err := newTestService(srv.URL).Symbols(context.Background())
	require.NoError(t, err)
	require.Len(t, symbols, 3)

	assert.Equal(t, "ETH", symbols[0].ID)
	assert.Equal(t, "Ethereum", symbols[0].Name)
	assert.Equal(t, 2500.5, symbols[0].Price)
	assert.Equal(t, 1.1, symbols[0].Change24h)
	assert.Equal(t, "N/A", symbols[0].Volume)

	assert.Equal(t, "PEPE", symbols[1].ID)
	assert.Equal(t, "SHIB", symbols[2].ID)
	assert.Equal(t, "Shiba-Inu", symbols[2].Name)
}

// A token the index omits is listed with zero values, not dropped.
func TestSymbols_MissingTokenKeepsShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ethereum": {"usd": 2500, "usd_24h_change": 1.1}}`))
	}))
	defer srv.Close()

	symbols, err := newTestService(srv.URL).Symbols(context.Background())
	require.NoError(t, err)
	require.Len(t, symbols, 3)
	assert.Equal(t, 0.0, symbols[1].Price)
	assert.Equal(t, 0.0, symbols[1].Change24h)
}

func TestSymbols_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).Symbols(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindCollaboratorUnavailable, pkgerrors.Kind(err))
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/shiba-inu/market_chart", r.URL.Path)
		w.Write([]byte(`{"prices": [[1717200000000, 0.000024], [1717203600000, 0.000025]]}`))
	}))
	defer srv.Close()

	history, err := newTestService(srv.URL).History(context.Background(), "shib")
	require.NoError(t, err)
	assert.Equal(t, "SHIB", history.ID)
	require.Len(t, history.PriceHistory, 2)
	assert.Equal(t, 1717200000000.0, history.PriceHistory[0].Timestamp)
	assert.Equal(t, 0.000025, history.PriceHistory[1].Price)
}

func TestHistory_UnknownSymbol(t *testing.T) {
	_, err := newTestService("http://127.0.0.1:0").History(context.Background(), "DOGE")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindInvalidInput, pkgerrors.Kind(err))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ethereum", displayName("ethereum"))
	assert.Equal(t, "Shiba-Inu", displayName("shiba-inu"))
}
