package store

import (
	"context"
	"errors"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

var ErrInvalidSession = errors.New("invalid session id")

// HistoryStore is the session-scoped, append-only conversion log.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, entry domain.HistoryEntry) error
	List(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error)
	Clear(ctx context.Context, sessionID string) error
}
