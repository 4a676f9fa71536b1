package strategyconfig

import (
	"fmt"
	"regexp"
)

const maxWorkers = 64

var strategyIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if !strategyIDPattern.MatchString(cfg.Meta.StrategyID) {
		return ValidationError{"meta.strategy_id", "must be lower-case letters, digits, '_' or '-'"}
	}

	// === Screening ===
	s := cfg.Screening
	if s.ROEMin < 0 || s.ROEMin > 1 {
		return ValidationError{"screening.roe_min", "must be in [0, 1]"}
	}
	if s.VolatilityMax <= 0 || s.VolatilityMax > 1 {
		return ValidationError{"screening.volatility_max", "must be in (0, 1]"}
	}
	if s.DebtToEquityMax <= 0 {
		return ValidationError{"screening.debt_to_equity_max", "must be > 0"}
	}
	if s.GoodwillToEquityMax <= 0 {
		return ValidationError{"screening.goodwill_to_equity_max", "must be > 0"}
	}
	if s.FreshnessWindowDays != nil && *s.FreshnessWindowDays < 0 {
		return ValidationError{"screening.freshness_window_days", "must be >= 0"}
	}
	if s.Workers < 0 || s.Workers > maxWorkers {
		return ValidationError{"screening.workers", fmt.Sprintf("must be in [0, %d]", maxWorkers)}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	s := cfg.Screening

	// 52주 변동폭이 너무 넓으면 변동성 필터가 사실상 무의미
	if s.VolatilityMax > 0.8 {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_VOLATILITY",
			Message: "volatility_max > 0.8: almost every symbol passes the range check",
		})
	}

	if s.ROEMin < 0.05 {
		warnings = append(warnings, Warning{
			Code:    "LOW_ROE",
			Message: "roe_min < 5%: the FCF/equity check barely filters",
		})
	}

	// 매 실행마다 전 종목 재조회 → 요청 한도 소진
	if s.FreshnessWindowDays != nil && *s.FreshnessWindowDays == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_FRESHNESS_WINDOW",
			Message: "freshness_window_days = 0: every run refetches every symbol",
		})
	}

	return warnings
}
