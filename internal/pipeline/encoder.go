package pipeline

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/id"
)

const JPEGQuality = 95

// EncodeError means the normalizer handed the encoder something it cannot write.
// It signals a bug rather than bad input.
type EncodeError struct {
	Reason string
}

func (e *EncodeError) Error() string { return e.Reason }

// Encoded is one converted file held in memory.
type Encoded struct {
	Name string
	Data []byte
}

// OutputName returns converted_<8 hex>.<ext> with a fresh random token per call.
func OutputName(target domain.OutputFormat) string {
	return fmt.Sprintf("converted_%s.%s", id.Short(), target.Extension())
}

func Encode(img DecodedImage, target domain.OutputFormat) (Encoded, error) {
	var buf bytes.Buffer

	switch target {
	case domain.OutputJPEG:
		if img.Mode != ModeRGB && img.Mode != ModeGray {
			return Encoded{}, &EncodeError{Reason: fmt.Sprintf("cannot write mode %s as JPEG", img.Mode)}
		}
		if err := jpeg.Encode(&buf, img.Pixels, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return Encoded{}, &EncodeError{Reason: fmt.Sprintf("encode jpeg: %v", err)}
		}
	case domain.OutputPNG:
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		if err := encoder.Encode(&buf, img.Pixels); err != nil {
			return Encoded{}, &EncodeError{Reason: fmt.Sprintf("encode png: %v", err)}
		}
	default:
		return Encoded{}, &EncodeError{Reason: fmt.Sprintf("unsupported output format: %s", target)}
	}

	return Encoded{Name: OutputName(target), Data: buf.Bytes()}, nil
}
