package contracts

import (
	"math"
	"sort"
	"time"
)

// StatementKind selects which upstream dataset to fetch
type StatementKind int

const (
	CashFlow StatementKind = iota
	BalanceSheet
	PriceSummaryKind
)

func (k StatementKind) String() string {
	switch k {
	case CashFlow:
		return "cash_flow"
	case BalanceSheet:
		return "balance_sheet"
	case PriceSummaryKind:
		return "price_summary"
	default:
		return "unknown"
	}
}

// Frequency of statement periods
type Frequency int

const (
	Annual Frequency = iota
	Quarterly
)

func (f Frequency) String() string {
	if f == Quarterly {
		return "quarterly"
	}
	return "annual"
}

// Statement field names shared by fetchers and the ratio engine
const (
	FieldFreeCashFlow          = "FreeCashFlow"
	FieldCommonStockEquity     = "CommonStockEquity"
	FieldTotalDebt             = "TotalDebt"
	FieldGoodwillAndIntangible = "GoodwillAndOtherIntangibleAssets"
)

// Table is a period-end indexed statement as returned by a Fetcher.
// Missing cells are NaN.
type Table struct {
	Symbol    string                          `json:"symbol"`
	Kind      StatementKind                   `json:"kind"`
	Frequency Frequency                       `json:"frequency"`
	Rows      map[time.Time]map[string]float64 `json:"-"`
	columns   map[string]bool
}

// NewTable creates an empty table
func NewTable(symbol string, kind StatementKind, freq Frequency) *Table {
	return &Table{
		Symbol:    symbol,
		Kind:      kind,
		Frequency: freq,
		Rows:      make(map[time.Time]map[string]float64),
		columns:   make(map[string]bool),
	}
}

// Set stores a cell, creating the row if needed
func (t *Table) Set(periodEnd time.Time, field string, value float64) {
	if t.Rows == nil {
		t.Rows = make(map[time.Time]map[string]float64)
	}
	if t.columns == nil {
		t.columns = make(map[string]bool)
	}
	row, ok := t.Rows[periodEnd]
	if !ok {
		row = make(map[string]float64)
		t.Rows[periodEnd] = row
	}
	row[field] = value
	t.columns[field] = true
}

// HasColumn reports whether any row carries the field
func (t *Table) HasColumn(field string) bool {
	if t == nil {
		return false
	}
	if t.columns != nil {
		return t.columns[field]
	}
	for _, row := range t.Rows {
		if _, ok := row[field]; ok {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the table carries no rows
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// Column extracts a field as a series ordered by period end.
// ok is false when the column does not exist (shape mismatch).
func (t *Table) Column(field string) (Series, bool) {
	if !t.HasColumn(field) {
		return nil, false
	}

	series := make(Series, 0, len(t.Rows))
	for periodEnd, row := range t.Rows {
		v, ok := row[field]
		if !ok {
			v = math.NaN()
		}
		series = append(series, Point{PeriodEnd: periodEnd, Value: v})
	}
	series.Sort()
	return series, true
}

// Point is one period of a series
type Point struct {
	PeriodEnd time.Time `json:"period_end"`
	Value     float64   `json:"value"`
}

// Series is an ordered sequence of period values
type Series []Point

// Sort orders the series by period end ascending
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].PeriodEnd.Before(s[j].PeriodEnd)
	})
}

// Values returns the raw values including NaN
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// PriceSummary holds the 52-week range of a symbol
type PriceSummary struct {
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	ExchangeName     string  `json:"exchange_name"`
}

// FinancialSnapshot bundles everything the ratio engine needs for one symbol
// ⭐ SSOT: Fetcher → Ratio Engine 재무 데이터 전달
type FinancialSnapshot struct {
	Symbol string `json:"symbol"`

	AnnualFCF       Series `json:"annual_fcf"`
	AnnualEquity    Series `json:"annual_equity"`
	QuarterlyEquity Series `json:"quarterly_equity"`
	QuarterlyDebt   Series `json:"quarterly_debt"`
	Goodwill        Series `json:"goodwill,omitempty"` // optional

	Price *PriceSummary `json:"price,omitempty"`
}
