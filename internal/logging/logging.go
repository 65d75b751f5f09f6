// Package logging builds the zerolog loggers shared by the binaries.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/rs/zerolog"
)

func New(cfg config.LogConfig, component string) zerolog.Logger {
	return NewWithWriter(os.Stdout, cfg, component)
}

func NewWithWriter(w io.Writer, cfg config.LogConfig, component string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
