package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corretorsys/bankcore/integration"
	"github.com/corretorsys/bankcore/storage"
	"github.com/redis/go-redis/v9"
)

// NewKV builds the persistence backend named by the configuration.
func (c StorageConfig) NewKV(ctx context.Context, logger *slog.Logger) (storage.KV, error) {
	switch c.Backend {
	case "memory":
		return storage.NewMemory(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPass,
			DB:       c.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		var opts []storage.RedisOption
		if c.RedisPrefix != "" {
			opts = append(opts, storage.WithRedisPrefix(c.RedisPrefix))
		}
		return storage.NewRedis(rdb, opts...), nil
	case "postgres":
		return storage.ConnectPostgres(ctx, c.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

// BBClientConfig assembles the integration settings for the Banco do
// Brasil client.
func (c *Config) BBClientConfig() (integration.Config, integration.BBCredentials) {
	return integration.Config{
		BaseURL:       c.BB.BaseURL,
		Timeout:       c.BB.Timeout,
		RetryAttempts: c.Retry.Attempts,
		RetryDelay:    c.Retry.BaseDelay,
	}, integration.BBCredentials{ChaveJ: c.BB.ChaveJ, Certificado: c.BB.Certificado}
}

// ItauClientConfig assembles the integration settings for the Itaú client.
func (c *Config) ItauClientConfig() (integration.Config, string) {
	return integration.Config{
		BaseURL:       c.Itau.BaseURL,
		Timeout:       c.Itau.Timeout,
		RetryAttempts: c.Retry.Attempts,
		RetryDelay:    c.Retry.BaseDelay,
	}, c.Itau.AccessToken
}
