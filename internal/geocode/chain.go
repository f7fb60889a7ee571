package geocode

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nuvolino/weather-service/internal/cache"
	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

// Chain resolves coordinates to a display label by trying reverse providers
// in configured order. Per-provider failures are absorbed; only full
// exhaustion surfaces an error. Labels are cached by rounded coordinates so
// repeated map taps in one area do not burn provider quotas.
type Chain struct {
	providers []ReverseProvider
	labels    cache.LabelCache
	ttl       time.Duration
	logger    *zap.Logger
}

func NewChain(providers []ReverseProvider, labels cache.LabelCache, ttl time.Duration, logger *zap.Logger) *Chain {
	return &Chain{
		providers: providers,
		labels:    labels,
		ttl:       ttl,
		logger:    logger,
	}
}

// Resolve returns the best available label for coords. ErrNoProvider means
// every provider failed or reported no usable locality; the caller should
// fall back to a coordinate label.
func (c *Chain) Resolve(ctx context.Context, coords models.Coordinates) (string, error) {
	key := cacheKey(coords)
	if label, ok, err := c.labels.Get(ctx, key); err == nil && ok {
		observability.CacheHitsTotal.WithLabelValues("reverse_label").Inc()
		return label, nil
	}

	for i, provider := range c.providers {
		place, err := provider.Reverse(ctx, coords)
		if err != nil {
			c.logger.Warn("reverse provider failed, falling through",
				zap.String("provider", provider.Name()),
				zap.Float64("lat", coords.Lat),
				zap.Float64("lon", coords.Lon),
				zap.Error(err))
			observability.GeocodeFallbacksTotal.WithLabelValues(provider.Name()).Inc()
			continue
		}

		label := place.Label()
		if label == "" {
			c.logger.Warn("reverse provider returned no locality, falling through",
				zap.String("provider", provider.Name()))
			observability.GeocodeFallbacksTotal.WithLabelValues(provider.Name()).Inc()
			continue
		}

		if i > 0 {
			c.logger.Info("reverse geocoding succeeded on fallback provider",
				zap.String("provider", provider.Name()),
				zap.Int("position", i))
		}
		if err := c.labels.Set(ctx, key, label, c.ttl); err != nil {
			c.logger.Warn("label cache write failed", zap.Error(err))
		}
		return label, nil
	}

	observability.GeocodeChainExhaustedTotal.Inc()
	return "", ErrNoProvider
}

// cacheKey rounds to ~11m so nearby taps share an entry.
func cacheKey(coords models.Coordinates) string {
	return fmt.Sprintf("rev:%.4f,%.4f", coords.Lat, coords.Lon)
}
