package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/config"
	"github.com/wonny/moat/pkg/httputil"
	"github.com/wonny/moat/pkg/logger"
)

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	historyYears int
	now          func() time.Time
}

var _ contracts.Fetcher = (*Client)(nil)

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	years := cfg.HistoryYears
	if years <= 0 {
		years = 5
	}
	return &Client{
		httpClient:   httpClient,
		logger:       log.Component("yahoo"),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		historyYears: years,
		now:          time.Now,
	}
}

// NewHTTPClient builds the shared HTTP client with the provider's limits applied
func NewHTTPClient(cfg config.YahooConfig, log *logger.Logger) *httputil.Client {
	return httputil.New(log).
		WithTimeout(cfg.Timeout).
		WithRateLimit(cfg.RequestsPerSecond).
		WithHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36").
		WithHeader("Accept", "application/json")
}

// getJSON fetches path and decodes it into dest.
// ok is false when the provider answered without data (non-200).
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) (bool, error) {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	status, err := c.httpClient.GetJSON(ctx, fullURL, dest)
	if err != nil {
		return false, fmt.Errorf("HTTP request failed: %w", err)
	}
	if status != http.StatusOK {
		c.logger.WithFields(map[string]interface{}{
			"path":        path,
			"status_code": status,
		}).Debug("No data from provider")
		return false, nil
	}
	return true, nil
}

// yahooError is the common error envelope
type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// rawValue is Yahoo's {"raw": 1.0, "fmt": "1.00"} number wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
}
