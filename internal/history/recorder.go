// Package history records successful batch conversions per session.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/store"
)

type Recorder struct {
	store store.HistoryStore
	now   func() time.Time
}

func NewRecorder(s store.HistoryStore) *Recorder {
	return &Recorder{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one entry for a batch. Callers only record batches with at least one output.
func (r *Recorder) Record(ctx context.Context, sessionID string, count int, format domain.OutputFormat, filenames []string) (domain.HistoryEntry, error) {
	files := make([]string, len(filenames))
	copy(files, filenames)

	entry := domain.HistoryEntry{
		Timestamp:    r.now(),
		FilesCount:   count,
		OutputFormat: format.Label(),
		Files:        files,
	}
	if err := r.store.Append(ctx, sessionID, entry); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("record history: %w", err)
	}
	return entry, nil
}

func (r *Recorder) List(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	return r.store.List(ctx, sessionID)
}

func (r *Recorder) Clear(ctx context.Context, sessionID string) error {
	return r.store.Clear(ctx, sessionID)
}
