package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/freshness"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/pkg/logger"
)

// emptyFetcher has no data for any symbol
type emptyFetcher struct{}

func (emptyFetcher) FetchStatement(ctx context.Context, symbol string, kind contracts.StatementKind, freq contracts.Frequency) (*contracts.Table, error) {
	return nil, nil
}

func (emptyFetcher) FetchPriceSummary(ctx context.Context, symbol string) (*contracts.PriceSummary, error) {
	return nil, nil
}

func openCache(t *testing.T) *freshness.Cache {
	t.Helper()
	store, err := freshness.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "moat.db"))
	require.NoError(t, err)
	c, err := freshness.Open(context.Background(), store, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func staticSymbols(symbols ...string) SymbolSource {
	return func() ([]string, error) { return symbols, nil }
}

func TestScreeningJob_Run(t *testing.T) {
	cache := openCache(t)
	screener := screening.NewScreener(emptyFetcher{}, cache, logger.NewNop())

	var got *contracts.Report
	job := NewScreeningJob(screener, staticSymbols("AAPL", "MSFT"), screening.DefaultOptions(),
		"0 0 18 * * 1-5", func(r *contracts.Report) { got = r }, logger.NewNop())

	assert.Equal(t, "screening", job.Name())
	assert.Equal(t, "0 0 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 2, got.Counts[contracts.StateRejected])

	entries, err := cache.AllEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScreeningJob_TickerError(t *testing.T) {
	screener := screening.NewScreener(emptyFetcher{}, openCache(t), logger.NewNop())
	job := NewScreeningJob(screener, func() ([]string, error) { return nil, errors.New("missing file") },
		screening.DefaultOptions(), "@daily", nil, logger.NewNop())

	assert.Error(t, job.Run(context.Background()))
}

func TestCachePruneJob(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)
	for _, s := range []string{"AAPL", "MSFT", "DELISTED"} {
		require.NoError(t, cache.MarkProcessed(ctx, s, time.Now()))
	}

	require.NoError(t, NewCachePruneJob(cache, staticSymbols(), logger.NewNop()).Run(ctx))
	entries, err := cache.AllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "an empty ticker list never wipes the cache")

	require.NoError(t, NewCachePruneJob(cache, staticSymbols("AAPL", "MSFT"), logger.NewNop()).Run(ctx))
	entries, err = cache.AllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
