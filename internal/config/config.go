package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-idf/internal/idf"
	"github.com/couchcryptid/rainfall-idf/internal/series"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Windows       []series.Window
	ReturnPeriods []idf.ReturnPeriod

	LogLevel        string
	LogFormat       string
	MetricsAddr     string // empty disables the metrics HTTP server
	ShutdownTimeout time.Duration
	ResultCacheSize int

	// Optional Kafka results publishing.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	windows, err := parseWindows(envOrDefault("WINDOWS", "1,2,3,6,12,24"))
	if err != nil {
		return nil, err
	}

	periods, err := parseReturnPeriods(envOrDefault("RETURN_PERIODS", "2,5,10,25,50,100"))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	sinkTopic := os.Getenv("KAFKA_SINK_TOPIC")
	kafkaEnabled := sinkTopic != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		Windows:         windows,
		ReturnPeriods:   periods,
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "text"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,
		ResultCacheSize: cacheSize,
		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  sinkTopic,
		KafkaEnabled:    kafkaEnabled,
	}

	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_SINK_TOPIC is set but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseWindows(s string) ([]series.Window, error) {
	var out []series.Window
	for _, part := range strings.Split(s, ",") {
		w, err := series.ParseWindow(part)
		if err != nil {
			return nil, fmt.Errorf("WINDOWS: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

func parseReturnPeriods(s string) ([]idf.ReturnPeriod, error) {
	var out []idf.ReturnPeriod
	for _, part := range strings.Split(s, ",") {
		p, err := idf.ParseReturnPeriod(part)
		if err != nil {
			return nil, fmt.Errorf("RETURN_PERIODS: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("RESULT_CACHE_SIZE")
	if s == "" {
		return 16, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid RESULT_CACHE_SIZE")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
