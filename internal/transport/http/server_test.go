package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewind/internal/augment"
	"tradewind/internal/config"
	"tradewind/internal/engine"
	"tradewind/internal/market"
	"tradewind/internal/store/sqlite"
)

type stubProvider struct{ reply string }

func (p *stubProvider) ID() string { return "stub" }

func (p *stubProvider) Call(context.Context, string, string) (string, error) {
	return p.reply, nil
}

type failingSource struct{}

func (failingSource) FetchSnapshot(context.Context, string, []string) (*market.Snapshot, error) {
	return nil, errors.New("feed offline")
}

func testServer(t *testing.T, store *sqlite.Store) *Server {
	t.Helper()
	client := augment.NewClient(&stubProvider{reply: "DIRECTION: LONG\nCONFIDENCE: 82"}, nil)
	eng := engine.New(config.NewSymbolCatalog(), client, engine.WithSeedFn(func() int64 { return 7 }))
	s, err := NewServer(ServerConfig{
		Engine:  eng,
		Source:  market.NewSimSource(42),
		Store:   store,
		Account: engine.Account{Balance: 10000, RiskPercentage: 2},
	})
	require.NoError(t, err)
	return s
}

func testStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := testServer(t, nil)
	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestGenerateSignalEndpoint(t *testing.T) {
	store := testStore(t)
	s := testServer(t, store)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/signals/eurusd")
	require.Equal(t, http.StatusOK, rec.Code)

	var sig engine.TradeSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, "EURUSD", sig.Symbol)
	assert.NotEmpty(t, sig.ID)
	assert.GreaterOrEqual(t, sig.Confidence, 70)
	assert.LessOrEqual(t, sig.Confidence, 95)

	// The generated signal must be persisted.
	stored, err := store.ListSignals(context.Background(), "EURUSD", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sig.ID, stored[0].ID)
}

func TestGenerateSignalPreferredStrategy(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/signals/BTCUSD?strategy=swing")
	require.Equal(t, http.StatusOK, rec.Code)

	var sig engine.TradeSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.NotEmpty(t, sig.Strategy)
}

func TestGenerateSignalFetchFailure(t *testing.T) {
	client := augment.NewClient(&stubProvider{reply: "DIRECTION: LONG\nCONFIDENCE: 82"}, nil)
	eng := engine.New(config.NewSymbolCatalog(), client)
	s, err := NewServer(ServerConfig{
		Engine:  eng,
		Source:  failingSource{},
		Account: engine.Account{Balance: 10000, RiskPercentage: 2},
	})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/signals/EURUSD")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "market data unavailable")
}

func TestGenerateSignalInvalidAccount(t *testing.T) {
	client := augment.NewClient(&stubProvider{reply: "DIRECTION: LONG\nCONFIDENCE: 82"}, nil)
	eng := engine.New(config.NewSymbolCatalog(), client)
	s, err := NewServer(ServerConfig{
		Engine: eng,
		Source: market.NewSimSource(42),
	})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/signals/EURUSD")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSignalsEndpoint(t *testing.T) {
	store := testStore(t)
	s := testServer(t, store)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, s, http.MethodPost, "/api/v1/signals/EURUSD")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/signals?symbol=EURUSD&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Signals []engine.TradeSignal `json:"signals"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Signals, 2)
}

func TestListSignalsInvalidLimit(t *testing.T) {
	s := testServer(t, testStore(t))
	rec := doRequest(t, s, http.MethodGet, "/api/v1/signals?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSignalsWithoutStore(t *testing.T) {
	s := testServer(t, nil)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/signals")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRenderChartEndpoint(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/signals/BTCUSD/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.True(t, strings.Contains(rec.Body.String(), "echarts"))
	assert.Contains(t, rec.Body.String(), "BTCUSD")
}
