package geocode

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

// ForwardResolver turns a typed place query into coordinates through an
// ordered provider list. Re-asking the same normalized query inside the
// debounce window replays the previous answer without touching providers.
type ForwardResolver struct {
	providers []ForwardProvider
	window    time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	lastQuery  string
	lastResult models.GeocodeResult
	lastErr    error
	lastAt     time.Time
}

func NewForwardResolver(providers []ForwardProvider, window time.Duration, logger *zap.Logger) *ForwardResolver {
	return &ForwardResolver{
		providers: providers,
		window:    window,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve returns coordinates and a label for query. Empty-after-trim input
// is ErrEmptyQuery; providers all failing or answering empty is ErrNotFound.
func (r *ForwardResolver) Resolve(ctx context.Context, query string) (models.GeocodeResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return models.GeocodeResult{}, ErrEmptyQuery
	}

	r.mu.Lock()
	if normalized == r.lastQuery && r.now().Sub(r.lastAt) < r.window {
		result, err := r.lastResult, r.lastErr
		r.mu.Unlock()
		observability.CacheHitsTotal.WithLabelValues("forward_debounce").Inc()
		return result, err
	}
	r.mu.Unlock()

	result, err := r.search(ctx, query)

	r.mu.Lock()
	r.lastQuery = normalized
	r.lastResult = result
	r.lastErr = err
	r.lastAt = r.now()
	r.mu.Unlock()

	return result, err
}

func (r *ForwardResolver) search(ctx context.Context, query string) (models.GeocodeResult, error) {
	for _, provider := range r.providers {
		result, err := provider.Search(ctx, query)
		if err != nil {
			r.logger.Warn("forward provider failed, falling through",
				zap.String("provider", provider.Name()),
				zap.Error(err))
			observability.GeocodeFallbacksTotal.WithLabelValues(provider.Name()).Inc()
			continue
		}
		if !result.Coordinates.Valid() {
			r.logger.Warn("forward provider returned invalid coordinates, falling through",
				zap.String("provider", provider.Name()))
			observability.GeocodeFallbacksTotal.WithLabelValues(provider.Name()).Inc()
			continue
		}
		return result, nil
	}
	return models.GeocodeResult{}, ErrNotFound
}
