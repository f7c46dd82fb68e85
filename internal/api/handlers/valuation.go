package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/engine"
	"github.com/wonny/volur/pkg/logger"
)

// MaxBatchTickers bounds a single POST /api/valuation request
const MaxBatchTickers = 100

// Defaults are applied when a request leaves a field out
type Defaults struct {
	Source  string
	Params  contracts.DCFParams
	Weights contracts.ScoringWeights
}

// ValuationHandler handles valuation API endpoints
// ⭐ SSOT: 밸류에이션 API 핸들러는 이 구조체에서만
type ValuationHandler struct {
	engine   *engine.Engine
	defaults Defaults
	logger   *logger.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(eng *engine.Engine, defaults Defaults, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		engine:   eng,
		defaults: defaults,
		logger:   log,
	}
}

// Health returns server health status
// GET /health
func (h *ValuationHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "volur-api",
		"sources": len(h.engine.Sources()),
	})
}

// ListSources returns the registered data providers
// GET /api/sources
func (h *ValuationHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"sources": h.engine.Sources(),
			"default": h.defaults.Source,
		},
	})
}

// Analyze values one ticker
// GET /api/valuation/{ticker}?source=yfinance&discount=0.1&growth=0.05&terminal=0.02&years=10
func (h *ValuationHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ticker := contracts.NormalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	q := r.URL.Query()
	src := h.sourceName(q.Get("source"))
	if _, err := h.engine.GetSource(src); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	params, err := h.paramsFromQuery(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.engine.Analyze(r.Context(), src, ticker, params, h.defaults.Weights)

	status := http.StatusOK
	if result.Failed() {
		status = http.StatusBadGateway
		h.logger.WithTicker(src, ticker).WithField("reason", result.Reason()).Warn("Valuation failed")
	}

	respondJSON(w, status, map[string]interface{}{
		"success": !result.Failed(),
		"data":    result,
	})
}

// BatchRequest is the body of POST /api/valuation
type BatchRequest struct {
	Source  string                    `json:"source"`
	Tickers []string                  `json:"tickers"`
	Params  *contracts.DCFParams      `json:"params,omitempty"`
	Weights *contracts.ScoringWeights `json:"weights,omitempty"`
}

// BatchResponse is the data of a batch valuation
type BatchResponse struct {
	ID      string                      `json:"id"`
	Source  string                      `json:"source"`
	Results []contracts.ValuationResult `json:"results"`
	Summary engine.Summary              `json:"summary"`
}

// AnalyzeBatch values several tickers; per-ticker failures are reported in
// the results, never as a request error
// POST /api/valuation
func (h *ValuationHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers is required")
		return
	}
	if len(req.Tickers) > MaxBatchTickers {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d tickers per request", MaxBatchTickers))
		return
	}

	src := h.sourceName(req.Source)
	if _, err := h.engine.GetSource(src); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	params := h.defaults.Params
	if req.Params != nil {
		params = *req.Params
	}
	if err := params.CheckRanges(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	weights := h.defaults.Weights
	if req.Weights != nil {
		weights = *req.Weights
	}
	if err := weights.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := BatchResponse{
		ID:     uuid.NewString(),
		Source: src,
	}
	resp.Results = h.engine.AnalyzeMany(r.Context(), src, req.Tickers, params, weights)
	resp.Summary = engine.Summarize(resp.Results)

	h.logger.WithFields(map[string]interface{}{
		"batch_id": resp.ID,
		"source":   src,
		"total":    resp.Summary.Total,
		"failure":  resp.Summary.Failure,
	}).Info("Batch valuation served")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    resp,
	})
}

// ClearCache drops every cached provider response
// DELETE /api/cache
func (h *ValuationHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Cache().Clear(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to clear cache")
		respondError(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// CacheStats returns cache counters
// GET /api/cache/stats
func (h *ValuationHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Cache()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"ttl":   c.TTL().String(),
			"stats": c.Stats(),
		},
	})
}

func (h *ValuationHandler) sourceName(requested string) string {
	if requested == "" {
		return h.defaults.Source
	}
	return requested
}

// paramsFromQuery overlays discount, growth, terminal and years on the defaults.
// When growth is given without terminal, terminal follows growth.
func (h *ValuationHandler) paramsFromQuery(q url.Values) (contracts.DCFParams, error) {
	p := h.defaults.Params

	var err error
	if p.DiscountRate, err = floatParam(q, "discount", p.DiscountRate); err != nil {
		return p, err
	}
	if p.GrowthRate, err = floatParam(q, "growth", p.GrowthRate); err != nil {
		return p, err
	}
	terminalDefault := p.TerminalGrowth
	if q.Has("growth") {
		terminalDefault = p.GrowthRate
	}
	if p.TerminalGrowth, err = floatParam(q, "terminal", terminalDefault); err != nil {
		return p, err
	}
	if s := q.Get("years"); s != "" {
		years, convErr := strconv.Atoi(s)
		if convErr != nil {
			return p, errors.New("years must be an integer")
		}
		p.Years = years
	}

	return p, p.CheckRanges()
}

func floatParam(q url.Values, key string, def float64) (float64, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}
