package store

import (
	"context"
	"sync"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

type MemoryHistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.HistoryEntry
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		sessions: make(map[string][]domain.HistoryEntry),
	}
}

func (s *MemoryHistoryStore) Append(_ context.Context, sessionID string, entry domain.HistoryEntry) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], entry)
	return nil
}

func (s *MemoryHistoryStore) List(_ context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.sessions[sessionID]
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryHistoryStore) Clear(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
