// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a key is unset or empty.
const (
	DefaultHTTPAddr         = ":8080"
	DefaultOutputDir        = "reports"
	DefaultAlertTopic       = "stablecoin-risk-alerts"
	DefaultAlertThreshold   = 75.0
	DefaultCacheTTL         = time.Hour
	DefaultPipelineInterval = 15 * time.Minute
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

type Config struct {
	PostgresDSN      string
	PostgresMaxConns int32
	ClickhouseDSN    string
	UseMemory        bool
	RedisAddr        string
	CacheTTL         time.Duration
	KafkaBrokers     []string
	AlertTopic       string
	AlertThreshold   float64
	OtelEndpoint     string
	HTTPAddr         string
	OutputDir        string
	PipelineInterval time.Duration
	InputCSV         string
	PolicyFile       string
	LogLevel         string
	LogFormat        string
}

// MemoryStorage reports whether stores should be in-memory.
// Without a Postgres DSN there is nothing durable to connect to.
func (c Config) MemoryStorage() bool {
	return c.UseMemory || c.PostgresDSN == ""
}

// AlertsEnabled reports whether a Kafka sink should be created.
func (c Config) AlertsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	useMemory, err := parseBoolEnv(source, "USE_MEMORY", false)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDurationEnv(source, "CACHE_TTL", DefaultCacheTTL)
	if err != nil {
		return Config{}, err
	}
	interval, err := parseDurationEnv(source, "PIPELINE_INTERVAL", DefaultPipelineInterval)
	if err != nil {
		return Config{}, err
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("PIPELINE_INTERVAL must be positive")
	}

	maxConns := int64(0)
	if raw, ok := source.Lookup("POSTGRES_MAX_CONNS"); ok && strings.TrimSpace(raw) != "" {
		maxConns, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil || maxConns < 0 {
			return Config{}, fmt.Errorf("invalid POSTGRES_MAX_CONNS: %q", raw)
		}
	}

	threshold := DefaultAlertThreshold
	if raw, ok := source.Lookup("ALERT_THRESHOLD"); ok && strings.TrimSpace(raw) != "" {
		threshold, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ALERT_THRESHOLD: %w", err)
		}
		if threshold < 0 || threshold > 100 {
			return Config{}, fmt.Errorf("ALERT_THRESHOLD must be within [0, 100], got %v", threshold)
		}
	}

	logFormat := lookupDefault(source, "LOG_FORMAT", DefaultLogFormat)
	if logFormat != "text" && logFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", logFormat)
	}

	return Config{
		PostgresDSN:      lookupDefault(source, "POSTGRES_DSN", ""),
		PostgresMaxConns: int32(maxConns),
		ClickhouseDSN:    lookupDefault(source, "CLICKHOUSE_DSN", ""),
		UseMemory:        useMemory,
		RedisAddr:        lookupDefault(source, "REDIS_ADDR", ""),
		CacheTTL:         cacheTTL,
		KafkaBrokers:     parseList(source, "KAFKA_BROKERS"),
		AlertTopic:       lookupDefault(source, "ALERT_TOPIC", DefaultAlertTopic),
		AlertThreshold:   threshold,
		OtelEndpoint:     lookupDefault(source, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		HTTPAddr:         lookupDefault(source, "HTTP_ADDR", DefaultHTTPAddr),
		OutputDir:        lookupDefault(source, "OUTPUT_DIR", DefaultOutputDir),
		PipelineInterval: interval,
		InputCSV:         lookupDefault(source, "INPUT_CSV", ""),
		PolicyFile:       lookupDefault(source, "POLICY_FILE", ""),
		LogLevel:         lookupDefault(source, "LOG_LEVEL", DefaultLogLevel),
		LogFormat:        logFormat,
	}, nil
}

func lookupDefault(source EnvSource, key, defaultValue string) string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	return strings.TrimSpace(raw)
}

func parseBoolEnv(source EnvSource, key string, defaultValue bool) (bool, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseList(source EnvSource, key string) []string {
	raw, ok := source.Lookup(key)
	if !ok {
		return nil
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	return values
}
