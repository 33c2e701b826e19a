package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.HTTP.Host)
	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, defaultReadTimeout, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "kintrace", cfg.Tracing.ServiceName)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.CacheTTL)
	assert.Equal(t, 4, cfg.Analysis.BatchWorkers)
	assert.Equal(t, 500, cfg.Analysis.MaxBatchPairs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("SERVER_WRITE_TIMEOUT", "3s")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "750ms")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("ANALYSIS_CACHE_TTL", "0")
	t.Setenv("ANALYSIS_BATCH_WORKERS", "8")
	t.Setenv("GRAPH_URI", "neo4j://graph:7687")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Zero(t, cfg.Analysis.CacheTTL)
	assert.Equal(t, 8, cfg.Analysis.BatchWorkers)
	assert.Equal(t, "neo4j://graph:7687", cfg.Graph.URI)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":            "70000",
		"SERVER_READ_TIMEOUT":    "soon",
		"ANALYSIS_CACHE_TTL":     "-1m",
		"ANALYSIS_BATCH_WORKERS": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
