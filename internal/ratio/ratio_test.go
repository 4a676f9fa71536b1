package ratio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/moat/internal/contracts"
)

var nan = math.NaN()

func annual(values ...float64) contracts.Series {
	s := make(contracts.Series, len(values))
	for i, v := range values {
		s[i] = contracts.Point{PeriodEnd: time.Date(2020+i, 12, 31, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return s
}

func quarterly(values ...float64) contracts.Series {
	s := make(contracts.Series, len(values))
	for i, v := range values {
		s[i] = contracts.Point{PeriodEnd: time.Date(2024, time.Month(3*(i+1)), 28, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return s
}

func TestStripMissing(t *testing.T) {
	assert.Equal(t, []float64{1, 3}, StripMissing([]float64{1, nan, 3}))
	assert.Empty(t, StripMissing([]float64{nan, nan}))
	assert.Empty(t, StripMissing(nil))
}

func TestAverageFreeCashFlow(t *testing.T) {
	tests := []struct {
		name string
		fcf  contracts.Series
		want float64
	}{
		{"mean of observed", annual(10, 20, 30), 20},
		{"nan excluded", annual(10, nan, 30), 20},
		{"negative included", annual(-1, 5, 5), 3},
		{"no data", nil, 0},
		{"all missing", annual(nan, nan), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AverageFreeCashFlow(&contracts.FinancialSnapshot{AnnualFCF: tt.fcf})
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAverageCommonEquity(t *testing.T) {
	tests := []struct {
		name   string
		equity contracts.Series
		want   float64
	}{
		{"mean", annual(100, 100, 100), 100},
		{"any negative disqualifies", annual(100, -5, 50), 0},
		{"nan excluded", annual(100, nan, 200), 150},
		{"no data", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AverageCommonEquity(&contracts.FinancialSnapshot{AnnualEquity: tt.equity})
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestROEFromAverages(t *testing.T) {
	tests := []struct {
		name       string
		fcf        float64
		equity     float64
		threshold  float64
		wantPasses bool
		wantValue  float64
	}{
		{"passes", 20, 100, 0.13, true, 0.2},
		{"negative fcf", -5, 100, 0.13, false, 0},
		{"zero equity", 20, 0, 0.13, false, 0},
		{"negative equity", 20, -100, 0.13, false, 0},
		{"below threshold", 10, 100, 0.13, false, 0.1},
		{"equal threshold fails", 15, 100, 0.15, false, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ROEFromAverages(tt.fcf, tt.equity, tt.threshold)
			assert.Equal(t, tt.wantPasses, got.Passes)
			assert.InDelta(t, tt.wantValue, got.Value, 1e-9)
		})
	}
}

func TestReturnOnEquity(t *testing.T) {
	snapshot := &contracts.FinancialSnapshot{
		AnnualFCF:    annual(10, 20, 30),
		AnnualEquity: annual(100, 100, 100),
	}

	got := ReturnOnEquity(snapshot, 0.13)
	assert.True(t, got.Passes)
	assert.InDelta(t, 0.2, got.Value, 1e-9)
	assert.InDelta(t, 20, got.AvgFCF, 1e-9)
	assert.InDelta(t, 100, got.AvgEquity, 1e-9)

	snapshot.AnnualEquity = annual(100, -5, 50)
	got = ReturnOnEquity(snapshot, 0.13)
	assert.False(t, got.Passes)
	assert.Equal(t, 0.0, got.Value)
}

func TestDebtToEquitySeries(t *testing.T) {
	snapshot := &contracts.FinancialSnapshot{
		QuarterlyDebt:   quarterly(100, 200, 300, nan),
		QuarterlyEquity: quarterly(100, 0, nan, 50),
	}

	got := DebtToEquitySeries(snapshot)
	assert.Len(t, got, 4)
	assert.InDelta(t, 1.0, got[0].Value, 1e-9)
	assert.True(t, math.IsNaN(got[1].Value), "zero equity yields NaN")
	assert.True(t, math.IsNaN(got[2].Value), "missing equity yields NaN")
	assert.True(t, math.IsNaN(got[3].Value), "missing debt yields NaN")
}

func TestPerPeriodRatio_AlignsByDate(t *testing.T) {
	debt := quarterly(100, 200)
	equity := contracts.Series{debt[1]} // only the second period has equity
	equity[0].Value = 400

	got := perPeriodRatio(debt, equity)
	assert.True(t, math.IsNaN(got[0].Value))
	assert.InDelta(t, 0.5, got[1].Value, 1e-9)
}

func TestGoodwillToEquitySeries(t *testing.T) {
	snapshot := &contracts.FinancialSnapshot{
		QuarterlyEquity: quarterly(100, 100),
	}
	assert.Empty(t, GoodwillToEquitySeries(snapshot), "no goodwill series")

	snapshot.Goodwill = quarterly(30, 50)
	got := GoodwillToEquitySeries(snapshot)
	assert.InDelta(t, 0.3, got[0].Value, 1e-9)
	assert.InDelta(t, 0.5, got[1].Value, 1e-9)
	assert.False(t, AllBelowThreshold(got.Values(), DefaultGoodwillRatioThreshold))
}

func TestAllBelowThreshold(t *testing.T) {
	assert.True(t, AllBelowThreshold([]float64{1.0, 2.5, nan}, 3))
	assert.False(t, AllBelowThreshold([]float64{1.0, 3.5}, 3))
	assert.False(t, AllBelowThreshold([]float64{3.0}, 3), "strictly below")
	assert.True(t, AllBelowThreshold(nil, 0.4), "empty passes vacuously")
	assert.True(t, AllBelowThreshold([]float64{nan}, 0.4))
}

func TestConsecutivePositiveFCF(t *testing.T) {
	tests := []struct {
		name string
		fcf  contracts.Series
		want bool
	}{
		{"all positive", annual(10, 20, 30), true},
		{"one negative", annual(-1, 5, 5), false},
		{"zero is not positive", annual(0, 5), false},
		{"nan ignored", annual(10, nan), true},
		{"empty is not strong", nil, false},
		{"all missing", annual(nan), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsecutivePositiveFCF(&contracts.FinancialSnapshot{AnnualFCF: tt.fcf}))
		})
	}
}

func TestVolatility(t *testing.T) {
	tests := []struct {
		name       string
		summary    *contracts.PriceSummary
		wantPasses bool
		wantValue  float64
	}{
		{"calm", &contracts.PriceSummary{FiftyTwoWeekLow: 100, FiftyTwoWeekHigh: 130}, true, 0.3},
		{"volatile", &contracts.PriceSummary{FiftyTwoWeekLow: 100, FiftyTwoWeekHigh: 200}, false, 1.0},
		{"zero low", &contracts.PriceSummary{FiftyTwoWeekLow: 0, FiftyTwoWeekHigh: 200}, false, 0},
		{"missing high", &contracts.PriceSummary{FiftyTwoWeekLow: 10, FiftyTwoWeekHigh: nan}, false, 0},
		{"absent", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Volatility(tt.summary, DefaultVolatilityThreshold)
			assert.Equal(t, tt.wantPasses, got.Passes)
			assert.InDelta(t, tt.wantValue, got.Value, 1e-9)
		})
	}
}
