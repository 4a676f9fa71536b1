package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/moat/internal/contracts"
)

// statementTypes maps a (kind, frequency) pair to the timeseries fields to request
var statementTypes = map[contracts.StatementKind]map[contracts.Frequency][]string{
	contracts.CashFlow: {
		contracts.Annual:    {contracts.FieldFreeCashFlow},
		contracts.Quarterly: {contracts.FieldFreeCashFlow},
	},
	contracts.BalanceSheet: {
		contracts.Annual: {
			contracts.FieldCommonStockEquity,
			contracts.FieldTotalDebt,
			contracts.FieldGoodwillAndIntangible,
		},
		contracts.Quarterly: {
			contracts.FieldCommonStockEquity,
			contracts.FieldTotalDebt,
			contracts.FieldGoodwillAndIntangible,
		},
	},
}

// typePrefix returns the timeseries prefix of a frequency
func typePrefix(freq contracts.Frequency) string {
	if freq == contracts.Quarterly {
		return "quarterly"
	}
	return "annual"
}

// timeseriesTypes returns e.g. "annualFreeCashFlow,annualTotalDebt"
func timeseriesTypes(kind contracts.StatementKind, freq contracts.Frequency) ([]string, error) {
	fields, ok := statementTypes[kind][freq]
	if !ok {
		return nil, fmt.Errorf("unsupported statement %s/%s", kind, freq)
	}
	prefix := typePrefix(freq)
	types := make([]string, len(fields))
	for i, f := range fields {
		types[i] = prefix + f
	}
	return types, nil
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooError                  `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Symbol []string `json:"symbol"`
	Type   []string `json:"type"`
}

type timeseriesPoint struct {
	AsOfDate      string    `json:"asOfDate"`
	PeriodType    string    `json:"periodType"`
	ReportedValue *rawValue `json:"reportedValue"`
}

// FetchStatement fetches one statement table.
// Returns nil, nil when the provider has no data for the symbol.
// ⭐ SSOT: 재무제표 조회는 이 함수에서만
func (c *Client) FetchStatement(ctx context.Context, symbol string, kind contracts.StatementKind, freq contracts.Frequency) (*contracts.Table, error) {
	types, err := timeseriesTypes(kind, freq)
	if err != nil {
		return nil, err
	}

	now := c.now()
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("type", strings.Join(types, ","))
	params.Set("period1", strconv.FormatInt(now.AddDate(-c.historyYears, 0, 0).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))

	var resp timeseriesResponse
	path := "/ws/fundamentals-timeseries/v1/finance/timeseries/" + url.PathEscape(symbol)
	ok, err := c.getJSON(ctx, path, params, &resp)
	if err != nil || !ok {
		return nil, err
	}

	if resp.Timeseries.Error != nil {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"code":   resp.Timeseries.Error.Code,
		}).Debug("Provider returned error payload")
		return nil, nil
	}

	table, err := parseTimeseries(symbol, kind, freq, resp.Timeseries.Result)
	if err != nil {
		c.logger.WithField("symbol", symbol).WithError(err).Warn("Malformed timeseries response")
		return nil, nil
	}

	if table.IsEmpty() {
		return nil, nil
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":    symbol,
		"kind":      kind.String(),
		"frequency": freq.String(),
		"periods":   len(table.Rows),
	}).Debug("Fetched statement")
	return table, nil
}

// parseTimeseries pivots per-field result blocks into one table
func parseTimeseries(symbol string, kind contracts.StatementKind, freq contracts.Frequency, results []map[string]json.RawMessage) (*contracts.Table, error) {
	table := contracts.NewTable(symbol, kind, freq)
	prefix := typePrefix(freq)

	for _, block := range results {
		rawMeta, ok := block["meta"]
		if !ok {
			continue
		}
		var meta timeseriesMeta
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return nil, fmt.Errorf("meta: %w", err)
		}
		if len(meta.Type) == 0 {
			continue
		}

		typeName := meta.Type[0]
		rawPoints, ok := block[typeName]
		if !ok {
			continue // 해당 기간 데이터 없음
		}

		var points []*timeseriesPoint
		if err := json.Unmarshal(rawPoints, &points); err != nil {
			return nil, fmt.Errorf("%s: %w", typeName, err)
		}

		field := strings.TrimPrefix(typeName, prefix)
		for _, p := range points {
			if p == nil {
				continue
			}
			periodEnd, err := time.Parse("2006-01-02", p.AsOfDate)
			if err != nil {
				continue
			}
			value := math.NaN()
			if p.ReportedValue != nil && p.ReportedValue.Raw != nil {
				value = *p.ReportedValue.Raw
			}
			table.Set(periodEnd, field, value)
		}
	}

	return table, nil
}
