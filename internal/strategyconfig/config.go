package strategyconfig

import "time"

// Config is a named screening profile loaded from YAML.
// It overrides the *_THRESHOLD environment settings for every command.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Tickers   Tickers   `yaml:"tickers" json:"tickers"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Screening predicate thresholds (fractions, not percent)
type Screening struct {
	ROEMin              float64 `yaml:"roe_min" json:"roe_min"`
	VolatilityMax       float64 `yaml:"volatility_max" json:"volatility_max"`
	DebtToEquityMax     float64 `yaml:"debt_to_equity_max" json:"debt_to_equity_max"`
	GoodwillToEquityMax float64 `yaml:"goodwill_to_equity_max" json:"goodwill_to_equity_max"`

	// nil keeps FRESHNESS_WINDOW_DAYS; 0 disables the cache skip
	FreshnessWindowDays *int `yaml:"freshness_window_days,omitempty" json:"freshness_window_days,omitempty"`
	// 0 keeps SCREEN_WORKERS
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// Tickers 스크리닝 대상
type Tickers struct {
	File string `yaml:"file,omitempty" json:"file,omitempty"` // overrides TICKERS_FILE
}

// ProfileSnapshot ties a run to the exact profile it used (재현성용)
type ProfileSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}
