package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nuvolino/weather-service/internal/observability"
)

// NewRouter assembles the full route table with the standard middleware
// chain. limiter may be nil to disable rate limiting.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(RateLimitMiddleware(limiter))
	router.Use(TimeoutMiddleware(requestTimeout))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/search", h.PostSearch).Methods(http.MethodPost)
	api.HandleFunc("/location/gps", h.PostGPS).Methods(http.MethodPost)
	api.HandleFunc("/location/map", h.PostMap).Methods(http.MethodPost)
	api.HandleFunc("/page", h.PostPage).Methods(http.MethodPost)
	api.HandleFunc("/hover", h.PostHover).Methods(http.MethodPost)
	api.HandleFunc("/units", h.PostUnits).Methods(http.MethodPost)
	api.HandleFunc("/theme", h.GetTheme).Methods(http.MethodGet)
	api.HandleFunc("/theme/toggle", h.PostThemeToggle).Methods(http.MethodPost)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	return router
}
