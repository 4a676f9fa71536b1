package screening

import (
	"context"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/logger"
)

// snapshotLoader fills a FinancialSnapshot one dataset at a time, so a symbol
// rejected early never pays for the later statements.
// Transport errors are logged and treated as absent data.
type snapshotLoader struct {
	fetcher contracts.Fetcher
	logger  *logger.Logger
	snap    contracts.FinancialSnapshot

	priceLoaded     bool
	cashFlowLoaded  bool
	annualBSLoaded  bool
	quarterBSLoaded bool

	// err keeps the first transport failure, for cancellation checks
	err error
}

func newSnapshotLoader(fetcher contracts.Fetcher, symbol string, log *logger.Logger) *snapshotLoader {
	return &snapshotLoader{
		fetcher: fetcher,
		logger:  log,
		snap:    contracts.FinancialSnapshot{Symbol: symbol},
	}
}

func (l *snapshotLoader) price(ctx context.Context) *contracts.PriceSummary {
	if l.priceLoaded {
		return l.snap.Price
	}
	l.priceLoaded = true

	summary, err := l.fetcher.FetchPriceSummary(ctx, l.snap.Symbol)
	if err != nil {
		l.fetchFailed("price_summary", err)
		return nil
	}
	l.snap.Price = summary
	return summary
}

// annual loads annual FCF and annual equity (the ROE inputs)
func (l *snapshotLoader) annual(ctx context.Context) *contracts.FinancialSnapshot {
	if !l.cashFlowLoaded {
		l.cashFlowLoaded = true
		if table := l.statement(ctx, contracts.CashFlow, contracts.Annual); table != nil {
			l.snap.AnnualFCF = column(table, contracts.FieldFreeCashFlow)
		}
	}
	if !l.annualBSLoaded {
		l.annualBSLoaded = true
		if table := l.statement(ctx, contracts.BalanceSheet, contracts.Annual); table != nil {
			l.snap.AnnualEquity = column(table, contracts.FieldCommonStockEquity)
		}
	}
	return &l.snap
}

// quarterly loads quarterly debt, equity and goodwill
func (l *snapshotLoader) quarterly(ctx context.Context) *contracts.FinancialSnapshot {
	if !l.quarterBSLoaded {
		l.quarterBSLoaded = true
		if table := l.statement(ctx, contracts.BalanceSheet, contracts.Quarterly); table != nil {
			l.snap.QuarterlyDebt = column(table, contracts.FieldTotalDebt)
			l.snap.QuarterlyEquity = column(table, contracts.FieldCommonStockEquity)
			l.snap.Goodwill = column(table, contracts.FieldGoodwillAndIntangible)
		}
	}
	return &l.snap
}

func (l *snapshotLoader) statement(ctx context.Context, kind contracts.StatementKind, freq contracts.Frequency) *contracts.Table {
	table, err := l.fetcher.FetchStatement(ctx, l.snap.Symbol, kind, freq)
	if err != nil {
		l.fetchFailed(kind.String()+"/"+freq.String(), err)
		return nil
	}
	if table.IsEmpty() {
		return nil
	}
	return table
}

func (l *snapshotLoader) fetchFailed(dataset string, err error) {
	if l.err == nil {
		l.err = err
	}
	l.logger.WithError(err).WithField("dataset", dataset).Warn("Fetch failed, treating as absent")
}

// column returns nil when the table does not have the field (shape mismatch)
func column(table *contracts.Table, field string) contracts.Series {
	series, ok := table.Column(field)
	if !ok {
		return nil
	}
	return series
}
