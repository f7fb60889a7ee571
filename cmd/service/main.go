package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nuvolino/weather-service/internal/cache"
	"github.com/nuvolino/weather-service/internal/client"
	"github.com/nuvolino/weather-service/internal/config"
	"github.com/nuvolino/weather-service/internal/geocode"
	httphandler "github.com/nuvolino/weather-service/internal/http"
	"github.com/nuvolino/weather-service/internal/lifecycle"
	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
	"github.com/nuvolino/weather-service/internal/orchestrator"
	"github.com/nuvolino/weather-service/internal/prefs"
	"github.com/nuvolino/weather-service/internal/scheduler"
	"github.com/nuvolino/weather-service/internal/service"
	"github.com/nuvolino/weather-service/internal/units"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-service",
		Short: "Weather display backend",
		Long:  "Aggregates Open-Meteo forecasts with geocoding chains into a normalized weather view.",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	getCmd := &cobra.Command{
		Use:   "get [city]",
		Short: "Fetch current weather for a city and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return runGet(args[0], output)
		},
	}
	getCmd.Flags().StringP("output", "o", "text", "Output format (text, json)")

	rootCmd.AddCommand(serveCmd, getCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps is the wired object graph shared by serve and get.
type deps struct {
	cfg      *config.Config
	logger   *zap.Logger
	orch     *orchestrator.Orchestrator
	weather  *service.WeatherService
	forward  *geocode.ForwardResolver
	memcache *cache.MemcachedCache
}

func buildDeps() (*deps, error) {
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	forecastClient := client.NewOpenMeteoClient(cfg.ForecastURL, cfg.AirQualityURL, cfg.ForecastTimeout, client.BreakerConfig{
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
	})
	weatherService := service.NewWeatherService(forecastClient, cfg.ForecastDays, cfg.FallbackTimezone, logger)

	var labelCache cache.LabelCache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("memcached cache: %w", err)
		}
		memcacheCloser = mc
		labelCache = mc
		logger.Info("label cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		labelCache = cache.NewInMemoryCache()
		logger.Info("label cache backend: in_memory")
	}

	nominatim := geocode.NewNominatimProvider(cfg.NominatimURL, cfg.ForecastTimeout, cfg.NominatimRPS)

	var reverseProviders []geocode.ReverseProvider
	for _, name := range cfg.ReverseProviders {
		switch name {
		case "nominatim":
			reverseProviders = append(reverseProviders, nominatim)
		case "photon":
			reverseProviders = append(reverseProviders, geocode.NewPhotonProvider(cfg.PhotonURL, cfg.ForecastTimeout))
		case "google":
			if cfg.GoogleAPIKey == "" {
				logger.Info("google reverse geocoding skipped, no API key")
				continue
			}
			reverseProviders = append(reverseProviders, geocode.NewGoogleProvider(cfg.GoogleAPIKey))
		}
	}
	reverseChain := geocode.NewChain(reverseProviders, labelCache, cfg.CacheTTL, logger)

	var forwardProviders []geocode.ForwardProvider
	if cfg.OpenWeatherAPIKey != "" {
		forwardProviders = append(forwardProviders, geocode.NewOpenWeatherProvider(cfg.OpenWeatherGeoURL, cfg.OpenWeatherAPIKey, cfg.ForecastTimeout))
	}
	forwardProviders = append(forwardProviders,
		geocode.NewOpenMeteoProvider(cfg.OpenMeteoGeocodeURL, cfg.ForecastTimeout),
		nominatim,
	)
	forwardResolver := geocode.NewForwardResolver(forwardProviders, cfg.DebounceWindow, logger)

	orch := orchestrator.New(weatherService, reverseChain, forwardResolver, orchestrator.Options{
		Coordinates: models.Coordinates{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon},
		Label:       cfg.DefaultLabel,
		Units:       models.ParseUnits(cfg.DefaultUnits),
		PageSize:    cfg.PageSize,
	}, logger)

	return &deps{
		cfg:      cfg,
		logger:   logger,
		orch:     orch,
		weather:  weatherService,
		forward:  forwardResolver,
		memcache: memcacheCloser,
	}, nil
}

func runServe() error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	logger, cfg := d.logger, d.cfg
	defer func() { _ = logger.Sync() }()

	d.orch.Bootstrap()

	prefsStore := prefs.NewStore(cfg.PrefsPath)

	refresher := scheduler.New(d.orch, cfg.RefreshInterval, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	var cachePing func() error
	if d.memcache != nil {
		cachePing = d.memcache.Ping
	}
	handler := httphandler.NewHandler(d.orch, prefsStore, logger, cachePing)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	refresher.Stop()
	d.orch.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if d.memcache != nil {
		if err := d.memcache.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
	return nil
}

// runGet resolves a city and prints one snapshot. One-shot diagnostic path
// sharing the server's exact wiring.
func runGet(city, output string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer func() { _ = d.logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := d.forward.Resolve(ctx, city)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", city, err)
	}

	unitSystem := models.ParseUnits(d.cfg.DefaultUnits)
	snap, err := d.weather.Fetch(ctx, result.Coordinates, unitSystem)
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}

	if output == "json" {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Weather for %s\n", result.Label)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Condition:   %s (%s)\n", snap.Description, snap.Mood)
	fmt.Printf("Temperature: %.1f%s (feels like %.1f%s)\n",
		snap.Temperature, units.TempUnitLabel(unitSystem),
		snap.ApparentTemperature, units.TempUnitLabel(unitSystem))
	fmt.Printf("Humidity:    %.0f%%\n", snap.Humidity)
	fmt.Printf("Wind:        %.1f %s\n", snap.WindSpeed, units.WindUnitLabel(unitSystem))
	fmt.Printf("Pressure:    %.0f hPa\n", snap.SurfacePressure)
	if snap.AirQuality != nil {
		fmt.Printf("Air quality: %.0f (European AQI)\n", *snap.AirQuality)
	}
	fmt.Printf("Sunrise:     %s   Sunset: %s\n", snap.Sunrise, snap.Sunset)
	fmt.Printf("Timezone:    %s\n", snap.Timezone)
	return nil
}
