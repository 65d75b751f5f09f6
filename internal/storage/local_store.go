package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type LocalOutputStore struct {
	dir string
}

func NewLocalOutputStore(dir string) (*LocalOutputStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &LocalOutputStore{dir: dir}, nil
}

func (s *LocalOutputStore) Dir() string {
	return s.dir
}

func (s *LocalOutputStore) Put(_ context.Context, name string, data []byte, _ string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	tmp, err := os.CreateTemp(s.dir, ".put_*")
	if err != nil {
		return fmt.Errorf("create output %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write output %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close output %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish output %s: %w", name, err)
	}
	return nil
}

func (s *LocalOutputStore) Open(_ context.Context, name string) (Object, error) {
	if !ValidName(name) {
		return Object{}, ErrObjectNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, ErrObjectNotFound
		}
		return Object{}, fmt.Errorf("open output %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Object{}, fmt.Errorf("stat output %s: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return Object{}, ErrObjectNotFound
	}

	return Object{
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Body:    f,
	}, nil
}

func (s *LocalOutputStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), OutputNamePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
