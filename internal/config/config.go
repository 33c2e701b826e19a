package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Graph    GraphConfig
	Logging  LoggingConfig
	Tracing  TracingConfig
	Analysis AnalysisConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestTimeout    time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the Neo4j store holding family records.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	QueryTimeout   time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// TracingConfig toggles span export.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// AnalysisConfig tunes the family analysis service.
type AnalysisConfig struct {
	// CacheTTL bounds how long a built family graph is reused. Zero disables caching.
	CacheTTL      time.Duration
	BatchWorkers  int
	MaxBatchPairs int
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultServiceName      = "kintrace"
	defaultCacheTTL         = 5 * time.Minute
	defaultBatchWorkers     = 4
	defaultMaxBatchPairs    = 500
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			RequestTimeout:  defaultRequestTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Tracing: TracingConfig{
			Enabled:     parseBoolWithDefault("TRACING_ENABLED", false),
			ServiceName: valueOrDefault("TRACING_SERVICE_NAME", defaultServiceName),
		},
		Analysis: AnalysisConfig{
			CacheTTL:      defaultCacheTTL,
			BatchWorkers:  parseIntWithDefault("ANALYSIS_BATCH_WORKERS", defaultBatchWorkers),
			MaxBatchPairs: parseIntWithDefault("ANALYSIS_MAX_BATCH_PAIRS", defaultMaxBatchPairs),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"SERVER_REQUEST_TIMEOUT", &cfg.HTTP.RequestTimeout},
		{"GRAPH_QUERY_TIMEOUT", &cfg.Graph.QueryTimeout},
		{"ANALYSIS_CACHE_TTL", &cfg.Analysis.CacheTTL},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return Config{}, err
		}
	}

	if cfg.Analysis.BatchWorkers <= 0 {
		return Config{}, fmt.Errorf("ANALYSIS_BATCH_WORKERS must be positive, got %d", cfg.Analysis.BatchWorkers)
	}
	if cfg.Analysis.MaxBatchPairs <= 0 {
		return Config{}, fmt.Errorf("ANALYSIS_MAX_BATCH_PAIRS must be positive, got %d", cfg.Analysis.MaxBatchPairs)
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative, got %s", key, v)
	}
	*dst = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
