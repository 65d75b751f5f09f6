package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/redis/go-redis/v9"
)

// FromConfig builds the configured history backend. The returned close func
// releases any connection the store owns.
func FromConfig(ctx context.Context, cfg config.Config) (HistoryStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.History.Backend)) {
	case "", "memory":
		return NewMemoryHistoryStore(), noop, nil
	case "redis":
		client := redis.NewClient(cfg.Queue.RedisOptions())
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		s := NewRedisHistoryStore(client, WithTTL(cfg.Session.TTL), WithPrefix(cfg.History.KeyPrefix))
		return s, client.Close, nil
	case "postgres":
		s, err := NewPostgresHistoryStore(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported history backend %q", cfg.History.Backend)
	}
}
