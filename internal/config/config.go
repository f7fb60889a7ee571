package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	ForecastURL     string
	AirQualityURL   string
	ForecastDays    int
	ForecastTimeout time.Duration

	// FallbackTimezone is used when the forecast provider reports an
	// ambiguous or auto timezone.
	FallbackTimezone string

	DefaultLat   float64
	DefaultLon   float64
	DefaultLabel string
	DefaultUnits string

	PageSize        int
	RefreshInterval time.Duration // 0 disables periodic refresh

	// Geocoding.
	DebounceWindow      time.Duration
	ReverseProviders    []string
	NominatimURL        string
	PhotonURL           string
	OpenMeteoGeocodeURL string
	OpenWeatherGeoURL   string
	OpenWeatherAPIKey   string
	GoogleAPIKey        string
	NominatimRPS        int

	// Geocode label cache.
	CacheBackend          string // "in_memory" or "memcached"
	CacheTTL              time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	// Circuit breaker around upstream weather calls.
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration

	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	PrefsPath string
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Forecast struct {
		URL           string `yaml:"url"`
		AirQualityURL string `yaml:"air_quality_url"`
		Days          int    `yaml:"days"`
		Timeout       string `yaml:"timeout"`
		FallbackTZ    string `yaml:"fallback_timezone"`
	} `yaml:"forecast"`

	Location struct {
		Lat   *float64 `yaml:"lat"`
		Lon   *float64 `yaml:"lon"`
		Label string   `yaml:"label"`
		Units string   `yaml:"units"`
	} `yaml:"location"`

	View struct {
		PageSize        int    `yaml:"page_size"`
		RefreshInterval string `yaml:"refresh_interval"`
	} `yaml:"view"`

	Geocode struct {
		Debounce         string   `yaml:"debounce"`
		ReverseProviders []string `yaml:"reverse_providers"`
		NominatimURL     string   `yaml:"nominatim_url"`
		PhotonURL        string   `yaml:"photon_url"`
		OpenMeteoURL     string   `yaml:"open_meteo_url"`
		OpenWeatherURL   string   `yaml:"openweather_url"`
		NominatimRPS     int      `yaml:"nominatim_rps"`
	} `yaml:"geocode"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Breaker struct {
		MaxRequests int    `yaml:"max_requests"`
		Interval    string `yaml:"interval"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"breaker"`

	Reliability struct {
		RequestTimeout string `yaml:"request_timeout"`
		RateLimitRPS   int    `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Prefs struct {
		Path string `yaml:"path"`
	} `yaml:"prefs"`
}

type secretsFile struct {
	OpenWeatherAPIKey string `yaml:"openweather_api_key"`
	GoogleAPIKey      string `yaml:"google_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. Geocoding API keys come from OPENWEATHER_API_KEY /
// GOOGLE_API_KEY env or the secrets file; both are optional, and key-gated
// providers are simply skipped when absent. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.ForecastURL = fc.Forecast.URL
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	cfg.AirQualityURL = fc.Forecast.AirQualityURL
	if cfg.AirQualityURL == "" {
		cfg.AirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	}
	cfg.ForecastDays = fc.Forecast.Days
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 10
	}
	cfg.ForecastTimeout = parseDuration(fc.Forecast.Timeout, 5*time.Second)
	cfg.FallbackTimezone = fc.Forecast.FallbackTZ
	if cfg.FallbackTimezone == "" {
		cfg.FallbackTimezone = "Europe/Rome"
	}

	cfg.DefaultLat = 41.9028
	cfg.DefaultLon = 12.4964
	if fc.Location.Lat != nil {
		cfg.DefaultLat = *fc.Location.Lat
	}
	if fc.Location.Lon != nil {
		cfg.DefaultLon = *fc.Location.Lon
	}
	cfg.DefaultLabel = fc.Location.Label
	if cfg.DefaultLabel == "" {
		cfg.DefaultLabel = "Roma"
	}
	cfg.DefaultUnits = strings.TrimSpace(strings.ToLower(fc.Location.Units))
	if cfg.DefaultUnits == "" {
		cfg.DefaultUnits = "metric"
	}

	cfg.PageSize = fc.View.PageSize
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	cfg.RefreshInterval = parseDurationOrZero(fc.View.RefreshInterval, 15*time.Minute)
	if cfg.RefreshInterval < 0 {
		cfg.RefreshInterval = 0
	}

	cfg.DebounceWindow = parseDuration(fc.Geocode.Debounce, 400*time.Millisecond)
	cfg.ReverseProviders = fc.Geocode.ReverseProviders
	if len(cfg.ReverseProviders) == 0 {
		cfg.ReverseProviders = []string{"nominatim", "photon", "google"}
	}
	cfg.NominatimURL = fc.Geocode.NominatimURL
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = "https://nominatim.openstreetmap.org"
	}
	cfg.PhotonURL = fc.Geocode.PhotonURL
	if cfg.PhotonURL == "" {
		cfg.PhotonURL = "https://photon.komoot.io"
	}
	cfg.OpenMeteoGeocodeURL = fc.Geocode.OpenMeteoURL
	if cfg.OpenMeteoGeocodeURL == "" {
		cfg.OpenMeteoGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	cfg.OpenWeatherGeoURL = fc.Geocode.OpenWeatherURL
	if cfg.OpenWeatherGeoURL == "" {
		cfg.OpenWeatherGeoURL = "https://api.openweathermap.org/geo/1.0/direct"
	}
	cfg.NominatimRPS = fc.Geocode.NominatimRPS
	if cfg.NominatimRPS <= 0 {
		cfg.NominatimRPS = 1
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	if cfg.OpenWeatherAPIKey == "" || cfg.GoogleAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			if cfg.OpenWeatherAPIKey == "" {
				cfg.OpenWeatherAPIKey = sec.OpenWeatherAPIKey
			}
			if cfg.GoogleAPIKey == "" {
				cfg.GoogleAPIKey = sec.GoogleAPIKey
			}
		}
	}

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 24*time.Hour)
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	if fc.Breaker.MaxRequests > 0 {
		cfg.BreakerMaxRequests = uint32(fc.Breaker.MaxRequests)
	} else {
		cfg.BreakerMaxRequests = 5
	}
	cfg.BreakerInterval = parseDuration(fc.Breaker.Interval, time.Minute)
	cfg.BreakerTimeout = parseDuration(fc.Breaker.Timeout, 2*time.Minute)

	cfg.RequestTimeout = parseDuration(fc.Reliability.RequestTimeout, 10*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.PrefsPath = fc.Prefs.Path
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = filepath.Join(cwd, "config", "prefs.yaml")
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty
// string or parse error. Zero and negative durations pass through as-is;
// view.refresh_interval uses "0" to disable periodic refresh.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// Auto-adjusts RequestTimeout to exceed the upstream timeout.
func validate(cfg *Config) error {
	if cfg.ForecastTimeout <= 0 {
		return fmt.Errorf("forecast.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.ForecastTimeout {
		cfg.RequestTimeout = cfg.ForecastTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	switch cfg.DefaultUnits {
	case "metric", "imperial":
		// valid
	default:
		return fmt.Errorf("location.units must be metric or imperial, got %q", cfg.DefaultUnits)
	}
	if cfg.DefaultLat < -90 || cfg.DefaultLat > 90 || cfg.DefaultLon < -180 || cfg.DefaultLon > 180 {
		return fmt.Errorf("location.lat/lon out of range: %v, %v", cfg.DefaultLat, cfg.DefaultLon)
	}
	for _, p := range cfg.ReverseProviders {
		switch p {
		case "nominatim", "photon", "google":
			// valid
		default:
			return fmt.Errorf("geocode.reverse_providers contains unknown provider %q", p)
		}
	}
	return nil
}
