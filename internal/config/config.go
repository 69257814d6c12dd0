package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string       `yaml:"log_level"`
	HTTPAddr string       `yaml:"http_addr"`
	Window   WindowConfig `yaml:"window"`
	Sink     SinkConfig   `yaml:"sink"`
}

// WindowConfig sizes the rolling windows behind every meter: each slot
// lasts SlotSeconds and Slots expired slots are retained for aggregation.
type WindowConfig struct {
	SlotSeconds int `yaml:"slot_seconds"`
	Slots       int `yaml:"slots"`
}

type SinkConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DSN          string `yaml:"dsn"`
	FlushSeconds int    `yaml:"flush_seconds"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		HTTPAddr: ":8080",
		Window:   WindowConfig{SlotSeconds: 1, Slots: 10},
		Sink:     SinkConfig{Enabled: false, FlushSeconds: 30},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.Window.SlotSeconds <= 0 {
		return Config{}, errors.New("window slot_seconds must be positive")
	}
	if cfg.Window.Slots <= 0 {
		return Config{}, errors.New("window slots must be positive")
	}
	if cfg.Sink.Enabled && cfg.Sink.DSN == "" {
		return Config{}, errors.New("SINK_DSN is required when the sink is enabled")
	}
	if cfg.Sink.FlushSeconds <= 0 {
		cfg.Sink.FlushSeconds = 30
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = envString("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Window.SlotSeconds = envInt("WINDOW_SLOT_SECONDS", cfg.Window.SlotSeconds)
	cfg.Window.Slots = envInt("WINDOW_SLOTS", cfg.Window.Slots)
	cfg.Sink.Enabled = envBool("SINK_ENABLED", cfg.Sink.Enabled)
	cfg.Sink.DSN = envString("SINK_DSN", cfg.Sink.DSN)
	cfg.Sink.FlushSeconds = envInt("SINK_FLUSH_SECONDS", cfg.Sink.FlushSeconds)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
