package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(EnvMap{})
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultAlertTopic, cfg.AlertTopic)
	assert.Equal(t, DefaultAlertThreshold, cfg.AlertThreshold)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultPipelineInterval, cfg.PipelineInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.MemoryStorage(), "no DSN means memory storage")
	assert.False(t, cfg.AlertsEnabled())
}

func TestLoad_AllKeys(t *testing.T) {
	cfg, err := Load(EnvMap{
		"POSTGRES_DSN":                "postgres://u:p@db:5432/risk",
		"POSTGRES_MAX_CONNS":          "8",
		"CLICKHOUSE_DSN":              "clickhouse://ch:9000/risk",
		"REDIS_ADDR":                  "redis:6379",
		"CACHE_TTL":                   "10m",
		"KAFKA_BROKERS":               "k1:9092, k2:9092,,",
		"ALERT_TOPIC":                 "alerts",
		"ALERT_THRESHOLD":             "60.5",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel:4318",
		"HTTP_ADDR":                   ":9090",
		"OUTPUT_DIR":                  "/tmp/out",
		"PIPELINE_INTERVAL":           "1m",
		"INPUT_CSV":                   "data.csv",
		"POLICY_FILE":                 "policy.json",
		"LOG_LEVEL":                   "debug",
		"LOG_FORMAT":                  "json",
	})
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/risk", cfg.PostgresDSN)
	assert.Equal(t, int32(8), cfg.PostgresMaxConns)
	assert.Equal(t, "clickhouse://ch:9000/risk", cfg.ClickhouseDSN)
	assert.False(t, cfg.MemoryStorage())
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AlertsEnabled())
	assert.Equal(t, "alerts", cfg.AlertTopic)
	assert.InDelta(t, 60.5, cfg.AlertThreshold, 1e-9)
	assert.Equal(t, "otel:4318", cfg.OtelEndpoint)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, time.Minute, cfg.PipelineInterval)
	assert.Equal(t, "data.csv", cfg.InputCSV)
	assert.Equal(t, "policy.json", cfg.PolicyFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_UseMemoryOverridesDSN(t *testing.T) {
	cfg, err := Load(EnvMap{"POSTGRES_DSN": "postgres://x", "USE_MEMORY": "true"})
	require.NoError(t, err)
	assert.True(t, cfg.MemoryStorage())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  EnvMap
	}{
		{"bad bool", EnvMap{"USE_MEMORY": "maybe"}},
		{"bad ttl", EnvMap{"CACHE_TTL": "soon"}},
		{"bad interval", EnvMap{"PIPELINE_INTERVAL": "5"}},
		{"zero interval", EnvMap{"PIPELINE_INTERVAL": "0s"}},
		{"bad threshold", EnvMap{"ALERT_THRESHOLD": "high"}},
		{"threshold out of range", EnvMap{"ALERT_THRESHOLD": "101"}},
		{"bad log format", EnvMap{"LOG_FORMAT": "xml"}},
		{"negative max conns", EnvMap{"POSTGRES_MAX_CONNS": "-1"}},
		{"bad max conns", EnvMap{"POSTGRES_MAX_CONNS": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.env)
			assert.Error(t, err)
		})
	}
}

func TestLoad_NilSource(t *testing.T) {
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RISK_TEST_DOTENV_KEY=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RISK_TEST_DOTENV_KEY") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("RISK_TEST_DOTENV_KEY"))

	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))
}
