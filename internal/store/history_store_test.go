package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisHistoryStore(t *testing.T, opts ...RedisOption) (*RedisHistoryStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisHistoryStore(client, opts...), mr
}

func entry(n int, format string, files ...string) domain.HistoryEntry {
	return domain.HistoryEntry{
		Timestamp:    time.Date(2026, 10, 18, 12, 0, n, 0, time.UTC),
		FilesCount:   len(files),
		OutputFormat: format,
		Files:        files,
	}
}

// exerciseHistoryStore checks the log contract shared by every backend.
func exerciseHistoryStore(t *testing.T, s HistoryStore) {
	ctx := context.Background()

	list, err := s.List(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, list)

	want := []domain.HistoryEntry{
		entry(1, "png", "a.heic"),
		entry(2, "jpeg", "b.png", "c.gif"),
		entry(3, "png", "d.bmp"),
	}
	for _, e := range want {
		require.NoError(t, s.Append(ctx, "session-a", e))
	}
	require.NoError(t, s.Append(ctx, "session-b", entry(4, "jpeg", "other.png")))

	got, err := s.List(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, want[i].FilesCount, got[i].FilesCount)
		assert.Equal(t, want[i].OutputFormat, got[i].OutputFormat)
		assert.Equal(t, want[i].Files, got[i].Files)
	}

	require.NoError(t, s.Clear(ctx, "session-a"))
	got, err = s.List(ctx, "session-a")
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := s.List(ctx, "session-b")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	assert.ErrorIs(t, s.Append(ctx, "", want[0]), ErrInvalidSession)
	_, err = s.List(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, s.Clear(ctx, ""), ErrInvalidSession)
}

func TestMemoryHistoryStore(t *testing.T) {
	exerciseHistoryStore(t, NewMemoryHistoryStore())
}

func TestMemoryHistoryStoreListReturnsCopy(t *testing.T) {
	s := NewMemoryHistoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "s", entry(1, "png", "a.heic")))

	list, err := s.List(ctx, "s")
	require.NoError(t, err)
	list[0].FilesCount = 99

	again, err := s.List(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].FilesCount)
}

func TestRedisHistoryStore(t *testing.T) {
	s, _ := setupRedisHistoryStore(t)
	exerciseHistoryStore(t, s)
}

func TestRedisHistoryStoreExpiresWithSession(t *testing.T) {
	s, mr := setupRedisHistoryStore(t, WithTTL(time.Hour), WithPrefix("test:history"))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "s1", entry(1, "png", "a.heic")))
	assert.True(t, mr.Exists("test:history:s1"))
	assert.Equal(t, time.Hour, mr.TTL("test:history:s1"))

	mr.FastForward(2 * time.Hour)
	list, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisHistoryStoreNoExpiry(t *testing.T) {
	s, mr := setupRedisHistoryStore(t, WithTTL(0))
	require.NoError(t, s.Append(context.Background(), "s1", entry(1, "png", "a.heic")))
	assert.Zero(t, mr.TTL("pixelconvert:history:s1"))
}

func TestPostgresHistoryStore(t *testing.T) {
	dsn := os.Getenv("PIXELCONVERT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PIXELCONVERT_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := NewPostgresHistoryStore(ctx, dsn)
	require.NoError(t, err)
	reset := func() {
		for _, id := range []string{"fresh", "session-a", "session-b"} {
			_ = s.Clear(ctx, id)
		}
	}
	reset()
	t.Cleanup(func() {
		reset()
		_ = s.Close()
	})

	exerciseHistoryStore(t, s)
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	var cfg config.Config
	s, closeFn, err := FromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryHistoryStore{}, s)
	assert.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	cfg.History.Backend = "redis"
	cfg.Queue.RedisAddr = mr.Addr()
	cfg.Session.TTL = time.Hour
	s, closeFn, err = FromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &RedisHistoryStore{}, s)
	assert.NoError(t, closeFn())

	cfg.History.Backend = "cassandra"
	_, _, err = FromConfig(ctx, cfg)
	assert.Error(t, err)
}
