package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bibbank/riskwatch/pkg/auth"
)

// RouterConfig holds the cross-cutting pieces of the HTTP router.
type RouterConfig struct {
	Validator auth.TokenValidator
	Metrics   http.Handler
	Logger    *slog.Logger
	RateLimit float64
}

// NewRouter builds the HTTP API. Health and metrics endpoints are public;
// everything under /api/v1 needs a bearer token and the role for the route.
func NewRouter(cfg RouterConfig, risk *RiskHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware(cfg.Logger))

	router.HandleFunc("/healthz", health.Healthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", health.Readyz).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1/risk").Subrouter()
	if cfg.RateLimit > 0 {
		api.Use(RateLimitMiddleware(NewClientRateLimiter(cfg.RateLimit, 0, 10*time.Minute)))
	}
	api.Use(auth.HTTPMiddleware(cfg.Validator))

	assess := func(h http.HandlerFunc) http.Handler { return auth.RequireRoles(h, auth.AssessRoles...) }
	read := func(h http.HandlerFunc) http.Handler { return auth.RequireRoles(h, auth.ReadRoles...) }

	api.Handle("/portfolio", assess(risk.AssessPortfolio)).Methods(http.MethodPost)
	api.Handle("/batch", assess(risk.AssessBatch)).Methods(http.MethodPost)
	api.Handle("/portfolio/{subject_id}/history", read(risk.GetHistory)).Methods(http.MethodGet)
	api.Handle("/portfolio/{subject_id}/alerts", read(risk.GetAlerts)).Methods(http.MethodGet)
	api.Handle("/portfolio/{subject_id}/export", read(risk.ExportCSV)).Methods(http.MethodGet)
	api.Handle("/assessments/{id}", read(risk.GetAssessment)).Methods(http.MethodGet)

	return router
}
