package pipeline

import (
	"errors"
	"strings"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrRedundantConversion = errors.New("already in target format")
	ErrFileTooLarge        = errors.New("file too large")
)

// Classify maps the text after the last dot of filename to a supported input format.
func Classify(filename string) (domain.InputFormat, error) {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 || dot == len(filename)-1 {
		return "", ErrUnsupportedFormat
	}

	ext := domain.InputFormat(strings.ToLower(filename[dot+1:]))
	for _, f := range domain.InputFormats {
		if f == ext {
			return f, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// IsRedundant reports a no-op conversion: jpg/jpeg to jpeg, or png to png.
func IsRedundant(in domain.InputFormat, out domain.OutputFormat) bool {
	switch out {
	case domain.OutputJPEG:
		return in == domain.InputJPG || in == domain.InputJPEG
	case domain.OutputPNG:
		return in == domain.InputPNG
	default:
		return false
	}
}
