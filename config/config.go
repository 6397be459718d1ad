package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary Primary       `koanf:"primary"`
	Logger  LoggerConfig  `koanf:"logger"`
	Storage StorageConfig `koanf:"storage"`
	Retry   RetryConfig   `koanf:"retry"`
	Metrics MetricsConfig `koanf:"metrics"`
	Monitor MonitorConfig `koanf:"monitor"`
	BB      BBConfig      `koanf:"bb"`
	Itau    ItauConfig    `koanf:"itau"`
}

// MonitorConfig drives the connectivity probe worker. A zero interval
// disables probing.
type MonitorConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// MetricsConfig tunes the trend bookkeeping worker. A zero interval keeps
// the hourly default.
type MetricsConfig struct {
	Interval time.Duration `koanf:"interval"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type StorageConfig struct {
	Backend     string        `koanf:"backend" validate:"required,oneof=memory redis postgres"`
	RedisAddr   string        `koanf:"redis_addr"`
	RedisPass   string        `koanf:"redis_pass"`
	RedisDB     int           `koanf:"redis_db"`
	RedisPrefix string        `koanf:"redis_prefix"`
	PostgresDSN string        `koanf:"postgres_dsn"`
	Timeout     time.Duration `koanf:"timeout"`
}

type RetryConfig struct {
	Attempts  int           `koanf:"attempts"`
	BaseDelay time.Duration `koanf:"base_delay"`
}

type BBConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	ChaveJ       string        `koanf:"chave_j"`
	Certificado  string        `koanf:"certificado"`
	ContaMonitor string        `koanf:"conta_monitor"`
}

type ItauConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	AccessToken string        `koanf:"access_token"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("BANKCORE_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "BANKCORE_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// NewLogger builds the application logger from the configured level and
// format. Unknown values fall back to info-level text output.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
