// Package ratio derives financial-health metrics from a FinancialSnapshot.
// Every function is pure: no I/O, no shared state. Missing values are NaN
// and are excluded from statistics, never read as zero.
package ratio

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/moat/internal/contracts"
)

// Default thresholds
const (
	DefaultROEThreshold           = 0.15
	DefaultVolatilityThreshold    = 0.5
	DefaultDebtRatioThreshold     = 2.4
	DefaultGoodwillRatioThreshold = 0.4
)

// StripMissing drops NaN entries
func StripMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// mean of the observed sample; 0 when empty
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// AverageFreeCashFlow is the mean of the reported annual FCF values.
// Returns 0 when no annual FCF was reported.
func AverageFreeCashFlow(s *contracts.FinancialSnapshot) float64 {
	if s == nil {
		return 0
	}
	return mean(StripMissing(s.AnnualFCF.Values()))
}

// AverageCommonEquity is the mean of the reported annual common equity.
// A single negative sample disqualifies the whole series (returns 0).
func AverageCommonEquity(s *contracts.FinancialSnapshot) float64 {
	if s == nil {
		return 0
	}
	values := StripMissing(s.AnnualEquity.Values())
	for _, v := range values {
		if v < 0 {
			return 0
		}
	}
	return mean(values)
}

// ROEOutcome is the result of the return-on-equity predicate
type ROEOutcome struct {
	Passes    bool
	Value     float64
	AvgFCF    float64
	AvgEquity float64
}

// ReturnOnEquity computes average FCF / average equity against threshold
func ReturnOnEquity(s *contracts.FinancialSnapshot, threshold float64) ROEOutcome {
	return ROEFromAverages(AverageFreeCashFlow(s), AverageCommonEquity(s), threshold)
}

// ROEFromAverages applies the ROE rule to precomputed averages.
// Either operand <= 0 makes the ratio undefined: failing, value 0.
func ROEFromAverages(avgFCF, avgEquity, threshold float64) ROEOutcome {
	out := ROEOutcome{AvgFCF: avgFCF, AvgEquity: avgEquity}
	if avgFCF <= 0 || avgEquity <= 0 {
		return out
	}
	out.Value = avgFCF / avgEquity
	out.Passes = out.Value > threshold
	return out
}

// DebtToEquitySeries is total debt / common equity per quarter
func DebtToEquitySeries(s *contracts.FinancialSnapshot) contracts.Series {
	if s == nil {
		return nil
	}
	return perPeriodRatio(s.QuarterlyDebt, s.QuarterlyEquity)
}

// GoodwillToEquitySeries is goodwill+intangibles / common equity per quarter.
// Empty when the snapshot carries no goodwill series.
func GoodwillToEquitySeries(s *contracts.FinancialSnapshot) contracts.Series {
	if s == nil {
		return nil
	}
	return perPeriodRatio(s.Goodwill, s.QuarterlyEquity)
}

// perPeriodRatio divides numerator by the denominator of the same period end.
// A missing, zero or NaN denominator yields NaN for that period.
func perPeriodRatio(numerator, denominator contracts.Series) contracts.Series {
	byDate := make(map[time.Time]float64, len(denominator))
	for _, p := range denominator {
		byDate[p.PeriodEnd] = p.Value
	}

	out := make(contracts.Series, 0, len(numerator))
	for _, p := range numerator {
		d, ok := byDate[p.PeriodEnd]
		v := math.NaN()
		if ok && d != 0 && !math.IsNaN(d) && !math.IsNaN(p.Value) {
			v = p.Value / d
		}
		out = append(out, contracts.Point{PeriodEnd: p.PeriodEnd, Value: v})
	}
	return out
}

// AllBelowThreshold is true iff every non-missing value is strictly below
// threshold. An empty series passes.
func AllBelowThreshold(values []float64, threshold float64) bool {
	for _, v := range StripMissing(values) {
		if !(v < threshold) {
			return false
		}
	}
	return true
}

// ConsecutivePositiveFCF is true iff every reported annual FCF is > 0.
// No data does not count as strong.
func ConsecutivePositiveFCF(s *contracts.FinancialSnapshot) bool {
	if s == nil {
		return false
	}
	values := StripMissing(s.AnnualFCF.Values())
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v <= 0 {
			return false
		}
	}
	return true
}

// VolatilityOutcome is the result of the 52-week range predicate
type VolatilityOutcome struct {
	Passes bool
	Value  float64
	Low    float64
	High   float64
}

// Volatility is (high-low)/low over the 52-week range; passes iff it is
// strictly below threshold. Missing prices or low <= 0 never pass.
func Volatility(p *contracts.PriceSummary, threshold float64) VolatilityOutcome {
	if p == nil {
		return VolatilityOutcome{}
	}
	low, high := p.FiftyTwoWeekLow, p.FiftyTwoWeekHigh
	if math.IsNaN(low) || math.IsNaN(high) || low <= 0 || high <= 0 {
		return VolatilityOutcome{}
	}

	value := (high - low) / low
	return VolatilityOutcome{
		Passes: value < threshold,
		Value:  value,
		Low:    low,
		High:   high,
	}
}
