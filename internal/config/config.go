// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, geocoding, wallet pricing, notifications and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-leads-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the store.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH, sqlite file
	URL    string // DATABASE_URL, postgres DSN
}

// GeoConfig drives the coordinate resolver.
type GeoConfig struct {
	GeocoderEnabled bool          // GEOCODER_ENABLED
	GeocoderURL     string        // GEOCODER_URL, Nominatim-compatible search endpoint
	Country         string        // GEOCODER_COUNTRY, ISO 3166-1 alpha-2 bias
	UserAgent       string        // GEOCODER_USER_AGENT
	Timeout         time.Duration // GEOCODER_TIMEOUT, per external lookup
	RatePerMin      int           // GEOCODER_RATE_PER_MIN, external lookups per minute
	CacheTTL        time.Duration // GEO_CACHE_TTL
	CacheSize       int           // GEO_CACHE_SIZE, in-process entries
	RedisURL        string        // REDIS_URL, optional shared cache
}

// LeadsConfig holds marketplace rules.
type LeadsConfig struct {
	DefaultRadiusKm float64         // DEFAULT_RADIUS_KM for new provider profiles
	MatchScanLimit  int             // MATCH_SCAN_LIMIT, candidate jobs per feed
	CoinRate        decimal.Decimal // COIN_RATE, currency units per coin
	Currency        string          // CURRENCY
}

// NotifyConfig configures the notification dispatcher.
type NotifyConfig struct {
	AMQPURL  string        // AMQP_URL; empty logs notifications only
	Exchange string        // AMQP_EXCHANGE
	Timeout  time.Duration // NOTIFY_TIMEOUT per delivery
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DBConfig

	// Domain
	Geo    GeoConfig
	Leads  LeadsConfig
	Notify NotifyConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "leads.db"),
			URL:    getenv("DATABASE_URL", ""),
		},

		// Domain
		Geo: GeoConfig{
			GeocoderEnabled: getbool("GEOCODER_ENABLED", false),
			GeocoderURL:     getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
			Country:         strings.ToLower(getenv("GEOCODER_COUNTRY", "ng")),
			UserAgent:       getenv("GEOCODER_USER_AGENT", "go-leads-backend/1.0"),
			Timeout:         getdur("GEOCODER_TIMEOUT", 5*time.Second),
			RatePerMin:      getint("GEOCODER_RATE_PER_MIN", 30),
			CacheTTL:        getdur("GEO_CACHE_TTL", 7*24*time.Hour),
			CacheSize:       getint("GEO_CACHE_SIZE", 10000),
			RedisURL:        getenv("REDIS_URL", ""),
		},
		Leads: LeadsConfig{
			DefaultRadiusKm: getfloat("DEFAULT_RADIUS_KM", 25),
			MatchScanLimit:  getint("MATCH_SCAN_LIMIT", 500),
			CoinRate:        getdecimal("COIN_RATE", decimal.NewFromInt(50)),
			Currency:        strings.ToUpper(getenv("CURRENCY", "NGN")),
		},
		Notify: NotifyConfig{
			AMQPURL:  getenv("AMQP_URL", ""),
			Exchange: getenv("AMQP_EXCHANGE", "leads.events"),
			Timeout:  getdur("NOTIFY_TIMEOUT", 5*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-leads-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.Geo.GeocoderEnabled && strings.TrimSpace(cfg.Geo.GeocoderURL) == "" {
		return cfg, errors.New("GEOCODER_URL must not be empty when the geocoder is enabled")
	}
	if cfg.Geo.Timeout <= 0 || cfg.Geo.CacheTTL <= 0 {
		return cfg, errors.New("GEOCODER_TIMEOUT and GEO_CACHE_TTL must be positive durations")
	}
	if cfg.Geo.RatePerMin < 1 {
		return cfg, errors.New("GEOCODER_RATE_PER_MIN must be >= 1")
	}
	if cfg.Geo.CacheSize < 1 {
		return cfg, errors.New("GEO_CACHE_SIZE must be >= 1")
	}
	if cfg.Leads.DefaultRadiusKm <= 0 {
		return cfg, errors.New("DEFAULT_RADIUS_KM must be > 0")
	}
	if cfg.Leads.MatchScanLimit < 1 {
		return cfg, errors.New("MATCH_SCAN_LIMIT must be >= 1")
	}
	if !cfg.Leads.CoinRate.IsPositive() {
		return cfg, errors.New("COIN_RATE must be a positive decimal")
	}
	if len(cfg.Leads.Currency) != 3 {
		return cfg, errors.New("CURRENCY must be a 3-letter code")
	}
	if cfg.Notify.Timeout <= 0 {
		return cfg, errors.New("NOTIFY_TIMEOUT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getdecimal(k string, def decimal.Decimal) decimal.Decimal {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
