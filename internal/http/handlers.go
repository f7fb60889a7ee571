// Package http exposes the orchestrated weather state over a JSON API: one
// read endpoint serving the full projected view, and one write endpoint per
// user action.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nuvolino/weather-service/internal/lifecycle"
	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/orchestrator"
	"github.com/nuvolino/weather-service/internal/prefs"
	"github.com/nuvolino/weather-service/internal/validation"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	orch   *orchestrator.Orchestrator
	prefs  *prefs.Store
	logger *zap.Logger
	// CachePing, when set, is called to check cache reachability. Used when
	// the label cache backend is memcached.
	cachePing func() error
}

// NewHandler returns a new Handler. cachePing may be nil.
func NewHandler(orch *orchestrator.Orchestrator, prefsStore *prefs.Store, logger *zap.Logger, cachePing func() error) *Handler {
	return &Handler{
		orch:      orch,
		prefs:     prefsStore,
		logger:    logger,
		cachePing: cachePing,
	}
}

type stateResponse struct {
	orchestrator.ViewState
	Theme prefs.Theme `json:"theme"`
}

// GetState handles GET /api/v1/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		ViewState: h.orch.View(time.Now()),
		Theme:     h.prefs.Theme(),
	})
}

// PostSearch handles POST /api/v1/search. The resolution runs
// asynchronously; the response carries the state as of acceptance.
func (h *Handler) PostSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	query, err := validation.ValidateQuery(body.Query)
	if err != nil {
		if errors.Is(err, validation.ErrQueryEmpty) {
			// Empty input is a no-op, matching the typeahead contract.
			h.writeState(w, http.StatusOK)
			return
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	h.orch.Search(r.Context(), query)
	h.writeState(w, http.StatusAccepted)
}

type coordinatesRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PostGPS handles POST /api/v1/location/gps.
func (h *Handler) PostGPS(w http.ResponseWriter, r *http.Request) {
	h.setCoordinates(w, r, orchestrator.TriggerGPS)
}

// PostMap handles POST /api/v1/location/map.
func (h *Handler) PostMap(w http.ResponseWriter, r *http.Request) {
	h.setCoordinates(w, r, orchestrator.TriggerMap)
}

func (h *Handler) setCoordinates(w http.ResponseWriter, r *http.Request, trigger string) {
	var body coordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	if err := validation.ValidateCoordinates(body.Lat, body.Lon); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", err.Error())
		return
	}

	coords := models.Coordinates{Lat: body.Lat, Lon: body.Lon}
	if err := h.orch.SetCoordinates(r.Context(), coords, trigger); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", err.Error())
		return
	}
	h.writeState(w, http.StatusAccepted)
}

// PostPage handles POST /api/v1/page.
func (h *Handler) PostPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Section string `json:"section"`
		Index   int    `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	if err := h.orch.SetPage(body.Section, body.Index); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_SECTION", err.Error())
		return
	}
	h.writeState(w, http.StatusOK)
}

// PostHover handles POST /api/v1/hover. A null mood clears the preview.
func (h *Handler) PostHover(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mood *string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	var mood *models.Mood
	if body.Mood != nil {
		m := models.Mood(*body.Mood)
		mood = &m
	}
	if err := h.orch.SetHoverMood(mood); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_MOOD", err.Error())
		return
	}
	h.writeState(w, http.StatusOK)
}

// PostUnits handles POST /api/v1/units.
func (h *Handler) PostUnits(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Units string `json:"units"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		return
	}

	units := models.Units(body.Units)
	if units != models.UnitsMetric && units != models.UnitsImperial {
		writeError(w, r, http.StatusBadRequest, "INVALID_UNITS", "units must be metric or imperial")
		return
	}

	h.orch.SetUnits(r.Context(), units)
	h.writeState(w, http.StatusAccepted)
}

// GetTheme handles GET /api/v1/theme.
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]prefs.Theme{"theme": h.prefs.Theme()})
}

// PostThemeToggle handles POST /api/v1/theme/toggle.
func (h *Handler) PostThemeToggle(w http.ResponseWriter, r *http.Request) {
	theme, err := h.prefs.Toggle()
	if err != nil {
		// The in-memory value already flipped; persistence failure is logged
		// and the new theme still returned.
		h.logger.Warn("theme persistence failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]prefs.Theme{"theme": theme})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if lifecycle.IsShuttingDown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "shutting-down",
			"service":   "weather-service",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)
	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "weather-service",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeState(w http.ResponseWriter, status int) {
	writeJSON(w, status, stateResponse{
		ViewState: h.orch.View(time.Now()),
		Theme:     h.prefs.Theme(),
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
