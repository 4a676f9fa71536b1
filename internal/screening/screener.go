package screening

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/ratio"
	"github.com/wonny/moat/pkg/logger"
)

// Rejection reasons reported in logs and Report.Rejections
const (
	ReasonNoPriceData       = "no price data"
	ReasonVolatile          = "volatility above threshold"
	ReasonFCFNotPositive    = "free cash flow not consistently positive"
	ReasonROEBelow          = "roe below threshold"
	ReasonNoBalanceSheet    = "no quarterly balance sheet"
	ReasonDebtRatioHigh     = "debt/equity not consistently low"
	ReasonGoodwillRatioHigh = "goodwill/equity not consistently low"
)

// Screener drives the per-symbol screening state machine over a worker pool
// ⭐ SSOT: 종목 스크리닝 오케스트레이션은 이 패키지에서만
type Screener struct {
	fetcher contracts.Fetcher
	cache   contracts.FreshnessCache
	logger  *logger.Logger
	now     func() time.Time
}

// NewScreener creates a Screener. The cache is owned by the caller.
func NewScreener(fetcher contracts.Fetcher, cache contracts.FreshnessCache, log *logger.Logger) *Screener {
	if log == nil {
		log = logger.NewNop()
	}
	return &Screener{
		fetcher: fetcher,
		cache:   cache,
		logger:  log.Component("screening"),
		now:     time.Now,
	}
}

type job struct {
	index  int
	symbol string
}

type jobResult struct {
	index   int
	outcome contracts.SymbolOutcome
}

// Run screens every symbol and returns the accepted ones sorted by descending ROE.
// Only a fatal storage error aborts the run; it is returned together with the
// partial report. A cancelled ctx also returns the partial report with ctx.Err().
func (s *Screener) Run(ctx context.Context, symbols []string, opts Options) (*contracts.Report, error) {
	report := &contracts.Report{
		StartedAt:  s.now(),
		Total:      len(symbols),
		Results:    make([]contracts.ScreeningResult, 0),
		Counts:     make(map[contracts.State]int),
		Rejections: make(map[string]int),
	}

	workers := opts.workers(len(symbols))
	s.logger.WithFields(map[string]interface{}{
		"symbols":       len(symbols),
		"workers":       workers,
		"roe_threshold": opts.ROEThreshold,
		"vol_threshold": opts.VolatilityThreshold,
		"window_days":   opts.FreshnessWindowDays,
	}).Info("Starting screening run")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCh := make(chan job, len(symbols))
	resultCh := make(chan jobResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(runCtx, workerID, jobCh, resultCh, opts)
		}(i)
	}

	for i, symbol := range symbols {
		jobCh <- job{index: i, symbol: symbol}
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// fan-in: 모든 워커가 끝난 뒤에만 집계 완료
	outcomes := make([]*contracts.SymbolOutcome, len(symbols))
	var fatal error
	for r := range resultCh {
		outcome := r.outcome
		outcomes[r.index] = &outcome

		if outcome.Err != nil && contracts.IsStorageFatal(outcome.Err) && fatal == nil {
			fatal = outcome.Err
			cancel()
		}
		if opts.Observer != nil {
			opts.Observer(outcome)
		}
	}

	for _, o := range outcomes {
		if o == nil {
			continue
		}
		report.Counts[o.State]++
		if o.State == contracts.StateRejected {
			report.Rejections[o.Reason]++
		}
		if o.State == contracts.StateAccepted && o.Result != nil {
			report.Results = append(report.Results, *o.Result)
		}
	}
	SortByROE(report.Results)
	report.FinishedAt = s.now()

	s.logger.WithFields(map[string]interface{}{
		"accepted": report.Counts[contracts.StateAccepted],
		"rejected": report.Counts[contracts.StateRejected],
		"skipped":  report.Counts[contracts.StateSkipped],
		"failed":   report.Counts[contracts.StateFailed],
		"duration": report.Duration().String(),
	}).Info("Screening run completed")

	if fatal != nil {
		return report, fmt.Errorf("screening aborted: %w", fatal)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Screener) worker(ctx context.Context, workerID int, jobCh <-chan job, resultCh chan<- jobResult, opts Options) {
	for j := range jobCh {
		if err := ctx.Err(); err != nil {
			// 취소 이후 남은 종목은 시작하지 않음
			resultCh <- jobResult{index: j.index, outcome: contracts.SymbolOutcome{
				Symbol: j.symbol,
				State:  contracts.StateFailed,
				Stage:  contracts.StateStart,
				Reason: "cancelled",
				Err:    err,
			}}
			continue
		}

		outcome := s.Evaluate(ctx, j.symbol, opts)
		s.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"symbol": j.symbol,
			"state":  string(outcome.State),
		}).Debug("Symbol finished")
		resultCh <- jobResult{index: j.index, outcome: outcome}
	}
}

// Evaluate runs the state machine of a single symbol to a terminal state
func (s *Screener) Evaluate(ctx context.Context, symbol string, opts Options) contracts.SymbolOutcome {
	log := s.logger.WithField("symbol", symbol)
	out := contracts.SymbolOutcome{Symbol: symbol, State: contracts.StateStart}

	// CACHE_CHECK + MARK_PROCESSED: 하나의 잠금 구간에서 처리
	out.State = contracts.StateCacheCheck
	marked, err := s.cache.CheckAndMark(ctx, symbol, opts.FreshnessWindowDays)
	if err != nil {
		log.WithError(err).Error("Cache check failed")
		return failed(out, contracts.StateMarkProcessed, err)
	}
	if !marked {
		log.Info("Already processed within freshness window")
		out.State = contracts.StateSkipped
		out.Reason = "recently processed"
		return out
	}

	out.State = contracts.StateFetch
	loader := newSnapshotLoader(s.fetcher, symbol, log)

	// EVAL_VOLATILITY
	out.State = contracts.StateEvalVolatility
	price := loader.price(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return failed(out, out.State, cerr)
	}
	vol := ratio.Volatility(price, opts.VolatilityThreshold)
	if !vol.Passes {
		reason := ReasonVolatile
		if vol.Low == 0 {
			reason = ReasonNoPriceData
		}
		return s.reject(log, out, reason, map[string]interface{}{"volatility": vol.Value})
	}

	// EVAL_ROE (연속 양의 FCF 포함)
	out.State = contracts.StateEvalROE
	snap := loader.annual(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return failed(out, out.State, cerr)
	}
	if !ratio.ConsecutivePositiveFCF(snap) {
		return s.reject(log, out, ReasonFCFNotPositive, nil)
	}
	roe := ratio.ReturnOnEquity(snap, opts.ROEThreshold)
	if !roe.Passes {
		return s.reject(log, out, ReasonROEBelow, map[string]interface{}{
			"roe":        roe.Value,
			"avg_fcf":    roe.AvgFCF,
			"avg_equity": roe.AvgEquity,
		})
	}

	// EVAL_DEBT_RATIOS
	out.State = contracts.StateEvalDebtRatios
	snap = loader.quarterly(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return failed(out, out.State, cerr)
	}
	if len(snap.QuarterlyDebt) == 0 || len(snap.QuarterlyEquity) == 0 {
		return s.reject(log, out, ReasonNoBalanceSheet, nil)
	}
	if !ratio.AllBelowThreshold(ratio.DebtToEquitySeries(snap).Values(), opts.DebtRatioThreshold) {
		return s.reject(log, out, ReasonDebtRatioHigh, nil)
	}

	// EVAL_GOODWILL_RATIOS (goodwill 없으면 통과)
	out.State = contracts.StateEvalGoodwillRatios
	if !ratio.AllBelowThreshold(ratio.GoodwillToEquitySeries(snap).Values(), opts.GoodwillRatioThreshold) {
		return s.reject(log, out, ReasonGoodwillRatioHigh, nil)
	}

	out.State = contracts.StateAccepted
	out.Result = &contracts.ScreeningResult{
		Symbol:     symbol,
		ROE:        roe.Value * 100,
		Volatility: vol.Value * 100,
		Low:        vol.Low,
		High:       vol.High,
		Market:     price.ExchangeName,
	}
	log.WithFields(map[string]interface{}{
		"roe":        out.Result.ROE,
		"volatility": out.Result.Volatility,
	}).Info("Strong business")
	return out
}

func (s *Screener) reject(log *logger.Logger, out contracts.SymbolOutcome, reason string, fields map[string]interface{}) contracts.SymbolOutcome {
	out.Stage = out.State
	out.State = contracts.StateRejected
	out.Reason = reason

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["stage"] = string(out.Stage)
	fields["reason"] = reason
	log.WithFields(fields).Info("Rejected")
	return out
}

func failed(out contracts.SymbolOutcome, stage contracts.State, err error) contracts.SymbolOutcome {
	out.Stage = stage
	out.State = contracts.StateFailed
	out.Reason = err.Error()
	out.Err = err
	return out
}

// SortByROE orders results by descending ROE; equal ROE keeps input order
func SortByROE(results []contracts.ScreeningResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ROE > results[j].ROE
	})
}
