package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// OutputNamePrefix starts every converted file and archive name.
const OutputNamePrefix = "converted_"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid object name")
)

// Object is an opened output. The caller closes Body.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Body        io.ReadCloser
}

// OutputStore holds converted files until they are downloaded or swept.
type OutputStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (Object, error)
	// Sweep removes outputs last modified before cutoff and reports how many went.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// ValidName accepts bare converted_* names only.
func ValidName(name string) bool {
	if !strings.HasPrefix(name, OutputNamePrefix) || len(name) == len(OutputNamePrefix) {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
