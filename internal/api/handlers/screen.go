package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/moat/internal/report"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/internal/tickers"
	"github.com/wonny/moat/pkg/logger"
)

// MaxSymbolsPerRequest bounds POST /api/screen
const MaxSymbolsPerRequest = 500

// ScreenHandler runs screening passes and serves their reports
// SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener *screening.Screener
	opts     screening.Options
	latest   *screening.LatestReport
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(
	screener *screening.Screener,
	opts screening.Options,
	latest *screening.LatestReport,
	log *logger.Logger,
) *ScreenHandler {
	return &ScreenHandler{
		screener: screener,
		opts:     opts,
		latest:   latest,
		logger:   log,
	}
}

// ScreenRequest is the body of POST /api/screen.
// Zero thresholds fall back to the configured ones.
type ScreenRequest struct {
	Symbols             []string `json:"symbols"`
	ROEThreshold        float64  `json:"roe_threshold,omitempty"`
	VolatilityThreshold float64  `json:"volatility_threshold,omitempty"`
	FreshnessWindowDays *int     `json:"freshness_window_days,omitempty"`
}

// Run screens the posted symbols and returns the report
// POST /api/screen
func (h *ScreenHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbols := tickers.Normalize(req.Symbols)
	if len(symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}
	if len(symbols) > MaxSymbolsPerRequest {
		respondError(w, http.StatusBadRequest, "too many symbols")
		return
	}

	opts := h.opts
	if req.ROEThreshold > 0 {
		opts.ROEThreshold = req.ROEThreshold
	}
	if req.VolatilityThreshold > 0 {
		opts.VolatilityThreshold = req.VolatilityThreshold
	}
	if req.FreshnessWindowDays != nil && *req.FreshnessWindowDays >= 0 {
		opts.FreshnessWindowDays = *req.FreshnessWindowDays
	}

	rep, err := h.screener.Run(r.Context(), symbols, opts)
	if rep != nil {
		h.latest.Set(rep)
	}
	if err != nil {
		h.logger.WithError(err).Error("Screening run failed")
		status := http.StatusInternalServerError
		if errors.Is(err, r.Context().Err()) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, "Screening run failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rep,
	})
}

// Latest returns the last report; ?format=markdown renders the result table
// GET /api/screen/latest
func (h *ScreenHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rep := h.latest.Get()
	if rep == nil {
		respondError(w, http.StatusNotFound, "No screening run yet")
		return
	}

	switch r.URL.Query().Get("format") {
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report.Markdown(rep.Results)))
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.CSV(w, rep.Results); err != nil {
			h.logger.WithError(err).Error("Failed to write csv")
		}
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    rep,
		})
	}
}
