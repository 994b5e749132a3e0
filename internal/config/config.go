package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Advisor AdvisorConfig
	History HistoryConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// AdvisorConfig selects the LLM provider behavior. Provider credentials are
// not configured here; they arrive with each request.
type AdvisorConfig struct {
	Provider       string
	OpenAIModel    string
	AnthropicModel string
	Timeout        time.Duration
}

// HistoryConfig controls where generation telemetry is kept. With no
// DatabaseURL the service falls back to a bounded in-memory store.
type HistoryConfig struct {
	DatabaseURL    string
	MemoryCapacity int
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 120 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultStaticDir       = "./web/static"

	defaultLogFormat = "json"

	defaultAdvisorProvider = "openai"
	defaultAdvisorTimeout  = 60 * time.Second
	defaultOpenAIModel     = "gpt-3.5-turbo"
	defaultAnthropicModel  = "claude-sonnet-4-20250514"

	defaultMemoryCapacity = 256
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			StaticDir:       getEnv("STATIC_DIR", defaultStaticDir),
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Advisor: AdvisorConfig{
			Provider:       defaultAdvisorProvider,
			OpenAIModel:    getEnv("OPENAI_MODEL", defaultOpenAIModel),
			AnthropicModel: getEnv("ANTHROPIC_MODEL", defaultAnthropicModel),
			Timeout:        defaultAdvisorTimeout,
		},
		History: HistoryConfig{
			DatabaseURL:    os.Getenv("DATABASE_URL"),
			MemoryCapacity: defaultMemoryCapacity,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("ADVISOR_PROVIDER"); v != "" {
		switch v {
		case "openai", "anthropic", "mock":
			cfg.Advisor.Provider = v
		default:
			return Config{}, fmt.Errorf("invalid ADVISOR_PROVIDER: must be 'openai', 'anthropic' or 'mock'")
		}
	}

	if v := os.Getenv("ADVISOR_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ADVISOR_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Advisor.Timeout = d
	}

	if v := os.Getenv("HISTORY_MEMORY_CAPACITY"); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil || capacity <= 0 {
			return Config{}, fmt.Errorf("invalid HISTORY_MEMORY_CAPACITY: must be a positive integer")
		}
		cfg.History.MemoryCapacity = capacity
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
