package contracts

import "context"

// Fetcher retrieves raw financial data for one symbol.
// A nil table or summary with a nil error means the provider had no data.
// Errors are reserved for transport failures.
// ⭐ SSOT: 외부 재무 데이터 조회 인터페이스
type Fetcher interface {
	FetchStatement(ctx context.Context, symbol string, kind StatementKind, freq Frequency) (*Table, error)
	FetchPriceSummary(ctx context.Context, symbol string) (*PriceSummary, error)
}

// FreshnessCache is the part of the freshness cache the orchestrator drives
type FreshnessCache interface {
	CheckAndMark(ctx context.Context, symbol string, windowDays int) (bool, error)
}
