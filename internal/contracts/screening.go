package contracts

import "time"

// State is a node of the per-symbol screening state machine
type State string

const (
	StateStart              State = "START"
	StateCacheCheck         State = "CACHE_CHECK"
	StateSkipped            State = "SKIPPED"
	StateMarkProcessed      State = "MARK_PROCESSED"
	StateFetch              State = "FETCH"
	StateEvalVolatility     State = "EVAL_VOLATILITY"
	StateEvalROE            State = "EVAL_ROE"
	StateEvalDebtRatios     State = "EVAL_DEBT_RATIOS"
	StateEvalGoodwillRatios State = "EVAL_GOODWILL_RATIOS"
	StateRejected           State = "REJECTED"
	StateAccepted           State = "ACCEPTED"
	StateFailed             State = "FAILED"
)

// IsTerminal reports whether no further transition happens from s
func (s State) IsTerminal() bool {
	switch s {
	case StateSkipped, StateRejected, StateAccepted, StateFailed:
		return true
	}
	return false
}

// ScreeningResult is produced only for symbols passing every predicate
// ⭐ SSOT: Orchestrator → Reporting 결과 전달
type ScreeningResult struct {
	Symbol     string  `json:"symbol"`
	ROE        float64 `json:"roe"`        // %
	Volatility float64 `json:"volatility"` // %
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Market     string  `json:"market"`
}

// SymbolOutcome records where a symbol's state machine stopped
type SymbolOutcome struct {
	Symbol string           `json:"symbol"`
	State  State            `json:"state"`
	Stage  State            `json:"stage,omitempty"`  // stage that rejected the symbol
	Reason string           `json:"reason,omitempty"`
	Result *ScreeningResult `json:"result,omitempty"`
	Err    error            `json:"-"`
}

// Report is the aggregated output of one screening run
type Report struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Total      int               `json:"total"`
	Results    []ScreeningResult `json:"results"`
	Counts     map[State]int     `json:"counts"`
	Rejections map[string]int    `json:"rejections"` // reason -> count
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
