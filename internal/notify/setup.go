package notify

import (
	"context"
	"fmt"
	"log/slog"

	"library_management/internal/config"

	"github.com/redis/go-redis/v9"
)

const lockPrefix = "library:lock:"

// GatewayFromConfig returns the Twilio gateway, or a nil Gateway when
// credentials are absent so callers can report the missing configuration.
func GatewayFromConfig(cfg config.TwilioConfig) Gateway {
	gw, err := NewTwilioGateway(cfg)
	if err != nil {
		slog.Warn("SMS reminders disabled", "reason", err)
		return nil
	}
	return gw
}

// LockerFromConfig connects to Redis when an address is configured and
// falls back to a process-local lock otherwise. The returned close func is
// never nil.
func LockerFromConfig(ctx context.Context, cfg config.RedisConfig) (Locker, func() error, error) {
	if cfg.Addr == "" {
		slog.Info("REDIS_ADDR not set, using in-process reminder lock")
		return NewLocalLocker(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	slog.Info("connected to Redis", "addr", cfg.Addr)
	return NewRedisLocker(client, lockPrefix), client.Close, nil
}
