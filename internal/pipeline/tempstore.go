package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TempHandle identifies one staged upload.
type TempHandle string

// TempStore stages upload bytes on disk for the decoders. Release must be
// safe to call more than once.
type TempStore interface {
	Save(data []byte) (TempHandle, error)
	Path(h TempHandle) string
	Release(h TempHandle) error
}

const tempPrefix = "temp_"

type DirTempStore struct {
	dir string
}

func NewDirTempStore(dir string) (*DirTempStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("temp directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &DirTempStore{dir: dir}, nil
}

func (s *DirTempStore) Dir() string {
	return s.dir
}

func (s *DirTempStore) Save(data []byte) (TempHandle, error) {
	f, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return TempHandle(f.Name()), nil
}

func (s *DirTempStore) Path(h TempHandle) string {
	return string(h)
}

func (s *DirTempStore) Release(h TempHandle) error {
	if h == "" {
		return nil
	}
	if err := os.Remove(string(h)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}

// Sweep removes staged files older than maxAge, left behind by crashed requests.
func (s *DirTempStore) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list temp dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
