package yahoo

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/logger"
	"github.com/wonny/moat/pkg/redis"
)

// CachedFetcher serves statements and price summaries from Redis before
// asking the wrapped Fetcher. Absent data is never cached.
type CachedFetcher struct {
	next     contracts.Fetcher
	cache    *redis.Cache
	ttl      time.Duration
	priceTTL time.Duration
	logger   *logger.Logger
}

var _ contracts.Fetcher = (*CachedFetcher)(nil)

// NewCachedFetcher wraps next. ttl <= 0 falls back to redis.TTLStatement.
func NewCachedFetcher(next contracts.Fetcher, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = redis.TTLStatement
	}
	return &CachedFetcher{
		next:     next,
		cache:    cache,
		ttl:      ttl,
		priceTTL: redis.TTLPrice,
		logger:   log.Component("yahoo_cache"),
	}
}

// cachedCell keeps NaN as JSON null
type cachedCell map[string]*float64

type cachedRow struct {
	PeriodEnd time.Time  `json:"period_end"`
	Values    cachedCell `json:"values"`
}

type cachedTable struct {
	Symbol    string                  `json:"symbol"`
	Kind      contracts.StatementKind `json:"kind"`
	Frequency contracts.Frequency     `json:"frequency"`
	Rows      []cachedRow             `json:"rows"`
}

type cachedPrice struct {
	Low      *float64 `json:"low"`
	High     *float64 `json:"high"`
	Exchange string   `json:"exchange"`
}

func (f *CachedFetcher) FetchStatement(ctx context.Context, symbol string, kind contracts.StatementKind, freq contracts.Frequency) (*contracts.Table, error) {
	key := redis.StatementKey(symbol, kind.String(), freq.String())

	var hit cachedTable
	found, err := f.cache.Get(ctx, key, &hit)
	if err != nil {
		f.logger.WithField("key", key).WithError(err).Warn("Cache read failed")
	}
	if found {
		return hit.toTable(), nil
	}

	table, err := f.next.FetchStatement(ctx, symbol, kind, freq)
	if err != nil || table == nil {
		return table, err
	}

	if err := f.cache.Set(ctx, key, fromTable(table), f.ttl); err != nil {
		f.logger.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
	return table, nil
}

func (f *CachedFetcher) FetchPriceSummary(ctx context.Context, symbol string) (*contracts.PriceSummary, error) {
	key := redis.PriceSummaryKey(symbol)

	var hit cachedPrice
	found, err := f.cache.Get(ctx, key, &hit)
	if err != nil {
		f.logger.WithField("key", key).WithError(err).Warn("Cache read failed")
	}
	if found {
		return &contracts.PriceSummary{
			FiftyTwoWeekLow:  fromPtr(hit.Low),
			FiftyTwoWeekHigh: fromPtr(hit.High),
			ExchangeName:     hit.Exchange,
		}, nil
	}

	summary, err := f.next.FetchPriceSummary(ctx, symbol)
	if err != nil || summary == nil {
		return summary, err
	}

	wire := cachedPrice{
		Low:      toPtr(summary.FiftyTwoWeekLow),
		High:     toPtr(summary.FiftyTwoWeekHigh),
		Exchange: summary.ExchangeName,
	}
	if err := f.cache.Set(ctx, key, wire, f.priceTTL); err != nil {
		f.logger.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
	return summary, nil
}

func fromTable(t *contracts.Table) cachedTable {
	out := cachedTable{
		Symbol:    t.Symbol,
		Kind:      t.Kind,
		Frequency: t.Frequency,
		Rows:      make([]cachedRow, 0, len(t.Rows)),
	}
	for periodEnd, row := range t.Rows {
		cells := make(cachedCell, len(row))
		for field, v := range row {
			cells[field] = toPtr(v)
		}
		out.Rows = append(out.Rows, cachedRow{PeriodEnd: periodEnd, Values: cells})
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		return out.Rows[i].PeriodEnd.Before(out.Rows[j].PeriodEnd)
	})
	return out
}

func (c cachedTable) toTable() *contracts.Table {
	t := contracts.NewTable(c.Symbol, c.Kind, c.Frequency)
	for _, row := range c.Rows {
		for field, v := range row.Values {
			t.Set(row.PeriodEnd.UTC(), field, fromPtr(v))
		}
	}
	return t
}

func toPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromPtr(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
