package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisHistoryStore keeps each session's log as a Redis list of JSON entries.
// The list expires together with the session.
type RedisHistoryStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type RedisOption func(*RedisHistoryStore)

// WithTTL sets how long an idle session log survives. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisHistoryStore) {
		s.ttl = ttl
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisHistoryStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedisHistoryStore(client *redis.Client, opts ...RedisOption) *RedisHistoryStore {
	s := &RedisHistoryStore{
		client: client,
		ttl:    24 * time.Hour,
		prefix: "pixelconvert:history",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisHistoryStore) Append(ctx context.Context, sessionID string, entry domain.HistoryEntry) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) List(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisHistoryStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}
