package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/internal/api/handlers"
	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/freshness"
	"github.com/wonny/moat/internal/scheduler"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/pkg/logger"
)

// fixedFetcher returns the same strong fundamentals for every symbol
type fixedFetcher struct{}

func (fixedFetcher) FetchStatement(ctx context.Context, symbol string, kind contracts.StatementKind, freq contracts.Frequency) (*contracts.Table, error) {
	t := contracts.NewTable(symbol, kind, freq)
	for i := 0; i < 3; i++ {
		period := time.Date(2021+i, 12, 31, 0, 0, 0, 0, time.UTC)
		switch kind {
		case contracts.CashFlow:
			t.Set(period, contracts.FieldFreeCashFlow, 30)
		case contracts.BalanceSheet:
			t.Set(period, contracts.FieldCommonStockEquity, 100)
			t.Set(period, contracts.FieldTotalDebt, 50)
		}
	}
	return t, nil
}

func (fixedFetcher) FetchPriceSummary(ctx context.Context, symbol string) (*contracts.PriceSummary, error) {
	return &contracts.PriceSummary{FiftyTwoWeekLow: 100, FiftyTwoWeekHigh: 120, ExchangeName: "NYSE"}, nil
}

type testEnv struct {
	router http.Handler
	cache  *freshness.Cache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()

	store, err := freshness.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "moat.db"))
	require.NoError(t, err)
	cache, err := freshness.Open(context.Background(), store, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	screener := screening.NewScreener(fixedFetcher{}, cache, log)
	router := NewRouter(Handlers{
		Cache:  handlers.NewCacheHandler(cache, log),
		Screen: handlers.NewScreenHandler(screener, screening.DefaultOptions(), &screening.LatestReport{}, log),
		Jobs:   handlers.NewJobsHandler(scheduler.New(log), log),
	}, log)

	return &testEnv{router: router, cache: cache}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestScreenFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/screen/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/screen", `{"symbols":["aapl","msft","AAPL"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool             `json:"success"`
		Data    contracts.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.Total)
	require.Len(t, resp.Data.Results, 2)
	assert.Equal(t, "AAPL", resp.Data.Results[0].Symbol)

	rec = env.do(t, http.MethodGet, "/api/screen/latest?format=markdown", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "| Symbol | ROE |"))

	rec = env.do(t, http.MethodGet, "/api/screen/latest?format=csv", "")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Symbol,ROE"))

	rec = env.do(t, http.MethodGet, "/api/cache", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	rec = env.do(t, http.MethodDelete, "/api/cache/AAPL", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	entries, err := env.cache.AllEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	rec = env.do(t, http.MethodPost, "/api/cache/refresh", `{"symbols":["msft"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removed":1`)
}

func TestScreen_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "no symbols", body: `{"symbols":[]}`},
		{name: "blank symbols", body: `{"symbols":["  "]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/screen", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestJobsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/jobs/missing/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
