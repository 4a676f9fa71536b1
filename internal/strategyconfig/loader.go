package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/moat/pkg/config"
)

// Load reads a YAML profile and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes and validates a YAML profile
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewProfileSnapshot records which profile a run used
func NewProfileSnapshot(cfg *Config, yamlData []byte) (*ProfileSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &ProfileSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		StrategyID: cfg.Meta.StrategyID,
		Version:    cfg.Meta.Version,
		CreatedAt:  time.Now(),
	}, nil
}

// ApplyTo overrides the environment configuration with the profile
func (c *Config) ApplyTo(dst *config.Config) {
	s := c.Screening
	dst.Screening.ROEThreshold = s.ROEMin
	dst.Screening.VolatilityThreshold = s.VolatilityMax
	dst.Screening.DebtRatioThreshold = s.DebtToEquityMax
	dst.Screening.GoodwillRatioThreshold = s.GoodwillToEquityMax
	if s.FreshnessWindowDays != nil {
		dst.Screening.FreshnessWindowDays = *s.FreshnessWindowDays
	}
	if s.Workers > 0 {
		dst.Screening.Workers = s.Workers
	}
	if c.Tickers.File != "" {
		dst.TickersFile = c.Tickers.File
	}
}
