// Package orchestrator owns the active coordinate, unit system and weather
// snapshot. Every location change starts a new request generation; async
// results commit only while their generation is still current, so a slower
// response for an abandoned location can never overwrite a newer one.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nuvolino/weather-service/internal/client"
	"github.com/nuvolino/weather-service/internal/geocode"
	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
	"github.com/nuvolino/weather-service/internal/service"
	"github.com/nuvolino/weather-service/internal/view"
)

// State is the orchestrator lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// Label shown while a reverse lookup for the active coordinate is pending.
const pendingLabel = "updating…"

// Triggers recorded against snapshot refreshes.
const (
	TriggerStartup   = "startup"
	TriggerSearch    = "search"
	TriggerGPS       = "gps"
	TriggerMap       = "map"
	TriggerUnits     = "units"
	TriggerScheduler = "scheduler"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidSection     = errors.New("unknown pagination section")
	ErrInvalidHoverMood   = errors.New("unknown hover mood")
)

// WeatherFetcher produces a snapshot for a coordinate.
type WeatherFetcher interface {
	Fetch(ctx context.Context, coords models.Coordinates, units models.Units) (models.WeatherSnapshot, error)
}

// ReverseResolver turns a coordinate into a display label.
type ReverseResolver interface {
	Resolve(ctx context.Context, coords models.Coordinates) (string, error)
}

// ForwardGeocoder turns a typed query into a coordinate and label.
type ForwardGeocoder interface {
	Resolve(ctx context.Context, query string) (models.GeocodeResult, error)
}

// Orchestrator serializes all state transitions under one mutex. Upstream
// work runs in goroutines detached from the caller's request context, since
// a location change must complete even when the triggering request is gone;
// the request's correlation ID is carried over for upstream tracing.
type Orchestrator struct {
	weather  WeatherFetcher
	reverse  ReverseResolver
	forward  ForwardGeocoder
	pageSize int
	logger   *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	state      State
	coords     models.Coordinates
	label      string
	units      models.Units
	snapshot   *models.WeatherSnapshot
	hourlyPage int
	dailyPage  int
	hoverMood  *models.Mood

	labelPending   bool
	weatherPending bool

	searchErr  string
	reverseErr string
	weatherErr string
}

// Options seed the initial location served before any user input.
type Options struct {
	Coordinates models.Coordinates
	Label       string
	Units       models.Units
	PageSize    int
}

func New(weather WeatherFetcher, reverse ReverseResolver, forward ForwardGeocoder, opts Options, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		weather:  weather,
		reverse:  reverse,
		forward:  forward,
		pageSize: opts.PageSize,
		logger:   logger,
		state:    StateIdle,
		coords:   opts.Coordinates,
		label:    opts.Label,
		units:    opts.Units,
	}
}

// Bootstrap fetches weather for the seeded default location. The label is
// already known from configuration, so no reverse lookup is issued.
func (o *Orchestrator) Bootstrap() {
	o.mu.Lock()
	gen, ctx := o.nextGeneration(context.Background())
	o.state = StateResolving
	o.weatherPending = true
	coords, units := o.coords, o.units
	o.mu.Unlock()

	go o.fetchWeather(ctx, gen, coords, units, TriggerStartup)
}

// SetCoordinates handles a GPS fix or map click: new generation, concurrent
// weather fetch and reverse label lookup.
func (o *Orchestrator) SetCoordinates(ctx context.Context, coords models.Coordinates, trigger string) error {
	if !coords.Valid() {
		return ErrInvalidCoordinates
	}

	o.mu.Lock()
	gen, ctx := o.nextGeneration(ctx)
	o.state = StateResolving
	o.coords = coords
	o.label = pendingLabel
	o.hourlyPage, o.dailyPage = 0, 0
	o.labelPending = true
	o.weatherPending = true
	o.searchErr, o.reverseErr, o.weatherErr = "", "", ""
	units := o.units
	o.mu.Unlock()

	go o.fetchWeather(ctx, gen, coords, units, trigger)
	go o.resolveLabel(ctx, gen, coords)
	return nil
}

// Search resolves a typed place query, then fetches weather for the hit.
// The forward result carries its own label, so no reverse lookup runs.
func (o *Orchestrator) Search(ctx context.Context, query string) {
	o.mu.Lock()
	gen, ctx := o.nextGeneration(ctx)
	o.state = StateResolving
	priorLabel := o.label
	o.label = pendingLabel
	o.labelPending = true
	o.weatherPending = true
	o.searchErr, o.reverseErr, o.weatherErr = "", "", ""
	units := o.units
	o.mu.Unlock()

	go func() {
		result, err := o.forward.Resolve(ctx, query)

		o.mu.Lock()
		if gen != o.gen {
			o.mu.Unlock()
			observability.StaleDiscardsTotal.WithLabelValues("search").Inc()
			return
		}
		if err != nil {
			// Nothing changed location: put the pre-search label back so the
			// retained snapshot is not captioned with the placeholder.
			o.label = priorLabel
			o.searchErr = searchErrorString(err)
			o.labelPending, o.weatherPending = false, false
			o.settleLocked()
			o.mu.Unlock()
			o.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
			return
		}

		o.coords = result.Coordinates
		o.label = result.Label
		o.hourlyPage, o.dailyPage = 0, 0
		o.labelPending = false
		o.mu.Unlock()

		o.fetchWeather(ctx, gen, result.Coordinates, units, TriggerSearch)
	}()
}

// SetUnits switches the unit system and re-fetches the active coordinate so
// every figure in the snapshot is expressed consistently.
func (o *Orchestrator) SetUnits(ctx context.Context, units models.Units) {
	o.mu.Lock()
	if units == o.units {
		o.mu.Unlock()
		return
	}
	o.units = units
	gen, ctx := o.nextGeneration(ctx)
	o.state = StateResolving
	o.weatherPending = true
	o.weatherErr = ""
	coords := o.coords
	o.mu.Unlock()

	go o.fetchWeather(ctx, gen, coords, units, TriggerUnits)
}

// Refresh re-fetches the active coordinate in place. Used by the scheduler;
// deliberately does not enter Resolving so a background refresh never flips
// the served state to loading.
func (o *Orchestrator) Refresh() {
	o.mu.Lock()
	gen, ctx := o.nextGeneration(context.Background())
	o.weatherPending = true
	coords, units := o.coords, o.units
	o.mu.Unlock()

	go o.fetchWeather(ctx, gen, coords, units, TriggerScheduler)
}

// SetPage moves the pagination window for one section.
func (o *Orchestrator) SetPage(section string, index int) error {
	if index < 0 {
		index = 0
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch section {
	case "hourly":
		o.hourlyPage = index
	case "daily":
		o.dailyPage = index
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSection, section)
	}
	return nil
}

// SetHoverMood previews a condition's visual mood; nil clears the preview.
func (o *Orchestrator) SetHoverMood(mood *models.Mood) error {
	if mood != nil && !mood.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidHoverMood, *mood)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.hoverMood = mood
	return nil
}

// nextGeneration invalidates all in-flight work. The returned context is
// detached from the caller's cancellation but keeps its correlation ID, so
// upstream calls stay traceable to the request that triggered them. Callers
// must hold the mutex.
func (o *Orchestrator) nextGeneration(parent context.Context) (uint64, context.Context) {
	if o.cancel != nil {
		o.cancel()
	}
	base := context.Background()
	if corrID := parent.Value("correlation_id"); corrID != nil {
		base = context.WithValue(base, "correlation_id", corrID)
	}
	ctx, cancel := context.WithCancel(base)
	o.cancel = cancel
	o.gen++
	return o.gen, ctx
}

func (o *Orchestrator) fetchWeather(ctx context.Context, gen uint64, coords models.Coordinates, units models.Units, trigger string) {
	snapshot, err := o.weather.Fetch(ctx, coords, units)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		observability.StaleDiscardsTotal.WithLabelValues("weather").Inc()
		return
	}

	o.weatherPending = false
	if err != nil {
		o.weatherErr = weatherErrorString(err)
		o.state = StateFailed
		o.logger.Error("weather fetch failed",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(err))
		return
	}

	o.snapshot = &snapshot
	o.weatherErr = ""
	observability.SnapshotRefreshesTotal.WithLabelValues(trigger).Inc()
	o.settleLocked()
}

func (o *Orchestrator) resolveLabel(ctx context.Context, gen uint64, coords models.Coordinates) {
	label, err := o.reverse.Resolve(ctx, coords)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		observability.StaleDiscardsTotal.WithLabelValues("reverse").Inc()
		return
	}

	o.labelPending = false
	if err != nil {
		o.label = coords.FallbackLabel()
		o.reverseErr = "location name unavailable"
		o.logger.Warn("reverse geocoding exhausted, using coordinate label",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(err))
	} else {
		o.label = label
		o.reverseErr = ""
	}
	o.settleLocked()
}

// settleLocked promotes Resolving to Ready once nothing is pending and the
// weather fetch has not failed. Callers must hold the mutex.
func (o *Orchestrator) settleLocked() {
	if o.state == StateFailed {
		return
	}
	if !o.labelPending && !o.weatherPending {
		if o.snapshot != nil {
			o.state = StateReady
		} else if o.searchErr != "" {
			o.state = StateFailed
		}
	}
}

func searchErrorString(err error) string {
	switch {
	case errors.Is(err, geocode.ErrEmptyQuery):
		return ""
	case errors.Is(err, geocode.ErrNotFound):
		return "city not found"
	default:
		return "search unavailable"
	}
}

func weatherErrorString(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingData):
		return "weather data incomplete"
	case errors.Is(err, client.ErrRateLimited):
		return "weather service busy, try again shortly"
	default:
		return "weather data unavailable"
	}
}

// ViewState is the complete user-facing projection at one instant.
type ViewState struct {
	State     State                         `json:"state"`
	Loading   bool                          `json:"loading"`
	Label     string                        `json:"label"`
	Units     models.Units                  `json:"units"`
	Error     string                        `json:"error,omitempty"`
	HoverMood *models.Mood                  `json:"hoverMood"`
	Snapshot  *models.WeatherSnapshot       `json:"snapshot"`
	Hourly    view.Page[models.HourlyPoint] `json:"hourly"`
	Daily     view.Page[models.DailyPoint]  `json:"daily"`
}

// View projects the current state. The hourly page covers today's remaining
// entries only; both projections are recomputed per call and never stored.
func (o *Orchestrator) View(now time.Time) ViewState {
	o.mu.Lock()
	defer o.mu.Unlock()

	vs := ViewState{
		State:     o.state,
		Loading:   o.state == StateResolving,
		Label:     o.label,
		Units:     o.units,
		Error:     o.errorLocked(),
		HoverMood: o.hoverMood,
		Snapshot:  o.snapshot,
	}

	if o.snapshot != nil {
		vs.Hourly = view.Paginate(view.TodayHourly(o.snapshot.Hourly, now), o.pageSize, o.hourlyPage)
		vs.Daily = view.Paginate(o.snapshot.Daily, o.pageSize, o.dailyPage)
	} else {
		vs.Hourly = view.Paginate[models.HourlyPoint](nil, o.pageSize, 0)
		vs.Daily = view.Paginate[models.DailyPoint](nil, o.pageSize, 0)
	}
	return vs
}

// errorLocked applies the display precedence: search, then reverse, then
// weather. Callers must hold the mutex.
func (o *Orchestrator) errorLocked() string {
	if o.searchErr != "" {
		return o.searchErr
	}
	if o.reverseErr != "" {
		return o.reverseErr
	}
	return o.weatherErr
}

// Close cancels any in-flight upstream work.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}
