package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-idf/internal/idf"
	"github.com/couchcryptid/rainfall-idf/internal/series"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []series.Window{1, 2, 3, 6, 12, 24}, cfg.Windows)
	assert.Equal(t, []idf.ReturnPeriod{2, 5, 10, 25, 50, 100}, cfg.ReturnPeriods)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 16, cfg.ResultCacheSize)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.KafkaSinkTopic)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("WINDOWS", "1,6,24")
	t.Setenv("RETURN_PERIODS", "10,100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("RESULT_CACHE_SIZE", "4")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "idf-results")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []series.Window{1, 6, 24}, cfg.Windows)
	assert.Equal(t, []idf.ReturnPeriod{10, 100}, cfg.ReturnPeriods)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 4, cfg.ResultCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "idf-results", cfg.KafkaSinkTopic)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidWindows(t *testing.T) {
	t.Setenv("WINDOWS", "1,0,24")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WINDOWS")
}

func TestLoad_InvalidReturnPeriods(t *testing.T) {
	t.Setenv("RETURN_PERIODS", "1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETURN_PERIODS")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("RESULT_CACHE_SIZE", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESULT_CACHE_SIZE")
}

func TestLoad_ZeroCacheSizeDisables(t *testing.T) {
	t.Setenv("RESULT_CACHE_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ResultCacheSize)
}

func TestLoad_KafkaEnabledWithoutTopic(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_SINK_TOPIC")
}

func TestLoad_SinkTopicImpliesEnabled(t *testing.T) {
	t.Setenv("KAFKA_SINK_TOPIC", "idf-results")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_SINK_TOPIC", "idf-results")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
