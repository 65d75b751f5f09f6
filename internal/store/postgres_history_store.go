package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/lib/pq"
)

const historySchemaSQL = `
CREATE TABLE IF NOT EXISTS conversion_history (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	converted_at TIMESTAMPTZ NOT NULL,
	files_count INTEGER NOT NULL,
	output_format TEXT NOT NULL,
	files TEXT[] NOT NULL
);
CREATE INDEX IF NOT EXISTS conversion_history_session_idx ON conversion_history (session_id, id);
`

type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(ctx context.Context, dsn string) (*PostgresHistoryStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresHistoryStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresHistoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, historySchemaSQL); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) Close() error {
	return s.db.Close()
}

func (s *PostgresHistoryStore) Append(ctx context.Context, sessionID string, entry domain.HistoryEntry) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO conversion_history (session_id, converted_at, files_count, output_format, files)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID,
		entry.Timestamp.UTC(),
		entry.FilesCount,
		entry.OutputFormat,
		pq.Array(entry.Files),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) List(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT converted_at, files_count, output_format, files
		 FROM conversion_history
		 WHERE session_id = $1
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			entry domain.HistoryEntry
			at    time.Time
		)
		if err := rows.Scan(&at, &entry.FilesCount, &entry.OutputFormat, pq.Array(&entry.Files)); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.Timestamp = at
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (s *PostgresHistoryStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversion_history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
