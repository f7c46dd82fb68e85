package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/volur/internal/api/handlers"
	"github.com/wonny/volur/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h *handlers.ValuationHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/sources", h.ListSources).Methods(http.MethodGet)
	api.HandleFunc("/valuation/{ticker}", h.Analyze).Methods(http.MethodGet)
	api.HandleFunc("/valuation", h.AnalyzeBatch).Methods(http.MethodPost)
	api.HandleFunc("/cache", h.ClearCache).Methods(http.MethodDelete)
	api.HandleFunc("/cache/stats", h.CacheStats).Methods(http.MethodGet)

	// request ID first so the logger and recovery see it
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}
