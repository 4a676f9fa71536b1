package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/moat/internal/freshness"
	"github.com/wonny/moat/internal/tickers"
	"github.com/wonny/moat/pkg/logger"
)

// CacheHandler exposes the freshness cache
// SSOT: 처리 이력 API 핸들러는 이 구조체에서만
type CacheHandler struct {
	cache  *freshness.Cache
	logger *logger.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cache *freshness.Cache, log *logger.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		logger: log,
	}
}

// List returns every cache entry
// GET /api/cache
func (h *CacheHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cache.AllEntries(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list cache entries")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve cache entries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(entries),
		"data":    entries,
	})
}

// Delete removes one symbol so the next run screens it again
// DELETE /api/cache/{symbol}
func (h *CacheHandler) Delete(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := h.cache.Delete(r.Context(), symbol); err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to delete cache entry")
		respondError(w, http.StatusInternalServerError, "Failed to delete cache entry")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"symbol":  symbol,
	})
}

// SymbolsRequest is a body carrying a ticker list
type SymbolsRequest struct {
	Symbols []string `json:"symbols"`
}

// Refresh deletes the rows of the listed symbols
// POST /api/cache/refresh
func (h *CacheHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req SymbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	symbols := tickers.Normalize(req.Symbols)
	if len(symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	removed, err := h.cache.Refresh(r.Context(), symbols)
	if err != nil {
		h.logger.WithError(err).Error("Failed to refresh cache")
		respondError(w, http.StatusInternalServerError, "Failed to refresh cache")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"removed": removed,
	})
}
