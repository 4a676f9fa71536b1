package yahoo

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/config"
	"github.com/wonny/moat/pkg/logger"
	"github.com/wonny/moat/pkg/redis"
)

// countingFetcher serves fixed data and counts upstream calls
type countingFetcher struct {
	table      *contracts.Table
	summary    *contracts.PriceSummary
	statements int
	prices     int
}

func (f *countingFetcher) FetchStatement(ctx context.Context, symbol string, kind contracts.StatementKind, freq contracts.Frequency) (*contracts.Table, error) {
	f.statements++
	return f.table, nil
}

func (f *countingFetcher) FetchPriceSummary(ctx context.Context, symbol string) (*contracts.PriceSummary, error) {
	f.prices++
	return f.summary, nil
}

func sampleTable() *contracts.Table {
	t := contracts.NewTable("AAPL", contracts.CashFlow, contracts.Annual)
	t.Set(time.Date(2022, 9, 30, 0, 0, 0, 0, time.UTC), contracts.FieldFreeCashFlow, 10)
	t.Set(time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), contracts.FieldFreeCashFlow, math.NaN())
	return t
}

func TestCachedFetcher_DisabledPassesThrough(t *testing.T) {
	client, err := redis.New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	upstream := &countingFetcher{table: sampleTable()}
	f := NewCachedFetcher(upstream, redis.NewCache(client, "test"), 0, logger.NewNop())

	for i := 0; i < 2; i++ {
		table, err := f.FetchStatement(context.Background(), "AAPL", contracts.CashFlow, contracts.Annual)
		require.NoError(t, err)
		assert.NotNil(t, table)
	}
	assert.Equal(t, 2, upstream.statements)

	summary, err := f.FetchPriceSummary(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestCachedTable_KeepsNaN(t *testing.T) {
	restored := fromTable(sampleTable()).toTable()

	series, ok := restored.Column(contracts.FieldFreeCashFlow)
	require.True(t, ok)
	require.Len(t, series, 2)
	assert.Equal(t, 10.0, series[0].Value)
	assert.True(t, math.IsNaN(series[1].Value))
}

func TestCachedFetcher_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	ctx := context.Background()
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	client := redis.NewFromRedis(rdb)
	defer client.Close()

	cache := redis.NewCache(client, "moat-test")
	_ = cache.Delete(ctx, redis.StatementKey("AAPL", "cash_flow", "annual"))
	_ = cache.Delete(ctx, redis.PriceSummaryKey("AAPL"))

	upstream := &countingFetcher{
		table:   sampleTable(),
		summary: &contracts.PriceSummary{FiftyTwoWeekLow: 1, FiftyTwoWeekHigh: math.NaN(), ExchangeName: "NMS"},
	}
	f := NewCachedFetcher(upstream, cache, time.Minute, logger.NewNop())

	for i := 0; i < 3; i++ {
		table, err := f.FetchStatement(ctx, "AAPL", contracts.CashFlow, contracts.Annual)
		require.NoError(t, err)
		require.NotNil(t, table)

		summary, err := f.FetchPriceSummary(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(summary.FiftyTwoWeekHigh))
	}
	assert.Equal(t, 1, upstream.statements)
	assert.Equal(t, 1, upstream.prices)
}
