package yahoo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/config"
	"github.com/wonny/moat/pkg/httputil"
	"github.com/wonny/moat/pkg/logger"
)

const annualFCFBody = `{"timeseries":{"result":[
 {"meta":{"symbol":["AAPL"],"type":["annualFreeCashFlow"]},"timestamp":[1,2,3],
  "annualFreeCashFlow":[
   {"asOfDate":"2021-09-30","periodType":"12M","reportedValue":{"raw":92953000000,"fmt":"92.95B"}},
   null,
   {"asOfDate":"2022-09-30","periodType":"12M","reportedValue":{"raw":111443000000,"fmt":"111.44B"}},
   {"asOfDate":"2023-09-30","periodType":"12M"}
  ]}
],"error":null}}`

const quarterlyBalanceBody = `{"timeseries":{"result":[
 {"meta":{"symbol":["AAPL"],"type":["quarterlyCommonStockEquity"]},
  "quarterlyCommonStockEquity":[
   {"asOfDate":"2023-12-31","reportedValue":{"raw":100}},
   {"asOfDate":"2024-03-31","reportedValue":{"raw":200}}
  ]},
 {"meta":{"symbol":["AAPL"],"type":["quarterlyTotalDebt"]},
  "quarterlyTotalDebt":[
   {"asOfDate":"2023-12-31","reportedValue":{"raw":50}},
   {"asOfDate":"2024-03-31","reportedValue":{"raw":100}}
  ]},
 {"meta":{"symbol":["AAPL"],"type":["quarterlyGoodwillAndOtherIntangibleAssets"]}}
],"error":null}}`

const quoteBody = `{"quoteSummary":{"result":[{
 "summaryDetail":{"fiftyTwoWeekLow":{"raw":100,"fmt":"100.00"},"fiftyTwoWeekHigh":{"raw":140,"fmt":"140.00"}},
 "price":{"exchangeName":"NasdaqGS","exchange":"NMS"}
}],"error":null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewNop()
	httpClient := httputil.New(log).DisableRetry()
	c := NewClient(httpClient, config.YahooConfig{BaseURL: srv.URL, HistoryYears: 5}, log)
	c.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestFetchStatement_AnnualCashFlow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/fundamentals-timeseries/v1/finance/timeseries/AAPL", r.URL.Path)
		assert.Equal(t, "annualFreeCashFlow", r.URL.Query().Get("type"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		_, _ = w.Write([]byte(annualFCFBody))
	})

	table, err := c.FetchStatement(context.Background(), "AAPL", contracts.CashFlow, contracts.Annual)
	require.NoError(t, err)
	require.NotNil(t, table)

	series, ok := table.Column(contracts.FieldFreeCashFlow)
	require.True(t, ok)
	require.Len(t, series, 3)
	assert.Equal(t, 92953000000.0, series[0].Value)
	assert.Equal(t, 111443000000.0, series[1].Value)
	assert.True(t, math.IsNaN(series[2].Value), "missing reportedValue is NaN")
}

func TestFetchStatement_QuarterlyBalanceSheet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		types := strings.Split(r.URL.Query().Get("type"), ",")
		assert.ElementsMatch(t, []string{
			"quarterlyCommonStockEquity",
			"quarterlyTotalDebt",
			"quarterlyGoodwillAndOtherIntangibleAssets",
		}, types)
		_, _ = w.Write([]byte(quarterlyBalanceBody))
	})

	table, err := c.FetchStatement(context.Background(), "AAPL", contracts.BalanceSheet, contracts.Quarterly)
	require.NoError(t, err)
	require.NotNil(t, table)

	debt, ok := table.Column(contracts.FieldTotalDebt)
	require.True(t, ok)
	assert.Equal(t, []float64{50, 100}, debt.Values())

	_, ok = table.Column(contracts.FieldGoodwillAndIntangible)
	assert.False(t, ok, "a type block without data is an absent column")
}

func TestFetchStatement_Absent(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "error payload", status: 200, body: `{"timeseries":{"result":null,"error":{"code":"Not Found","description":"No data"}}}`},
		{name: "empty result", status: 200, body: `{"timeseries":{"result":[],"error":null}}`},
		{name: "no data arrays", status: 200, body: `{"timeseries":{"result":[{"meta":{"type":["annualFreeCashFlow"]}}],"error":null}}`},
		{name: "not found", status: 404, body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			table, err := c.FetchStatement(context.Background(), "ZZZZ", contracts.CashFlow, contracts.Annual)
			assert.NoError(t, err)
			assert.Nil(t, table)
		})
	}
}

func TestFetchStatement_UnsupportedKind(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.FetchStatement(context.Background(), "AAPL", contracts.PriceSummaryKind, contracts.Annual)
	assert.Error(t, err)
}

func TestFetchStatement_TransportFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	table, err := c.FetchStatement(context.Background(), "AAPL", contracts.CashFlow, contracts.Annual)
	assert.Error(t, err)
	assert.Nil(t, table)
}

func TestFetchPriceSummary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Equal(t, "summaryDetail,price", r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(quoteBody))
	})

	summary, err := c.FetchPriceSummary(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 100.0, summary.FiftyTwoWeekLow)
	assert.Equal(t, 140.0, summary.FiftyTwoWeekHigh)
	assert.Equal(t, "NasdaqGS", summary.ExchangeName)
}

func TestFetchPriceSummary_MissingBounds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"summaryDetail":{"fiftyTwoWeekLow":{"raw":10}},"price":{"exchange":"NYQ"}}],"error":null}}`))
	})

	summary, err := c.FetchPriceSummary(context.Background(), "T")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 10.0, summary.FiftyTwoWeekLow)
	assert.True(t, math.IsNaN(summary.FiftyTwoWeekHigh))
	assert.Equal(t, "NYQ", summary.ExchangeName)
}

func TestFetchPriceSummary_Absent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found"}}}`))
	})

	summary, err := c.FetchPriceSummary(context.Background(), "ZZZZ")
	assert.NoError(t, err)
	assert.Nil(t, summary)
}
