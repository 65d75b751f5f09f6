package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}
	return img
}

func encodeAs(t *testing.T, img image.Image, format domain.InputFormat) []byte {
	t.Helper()

	var (
		buf bytes.Buffer
		err error
	)
	switch format {
	case domain.InputPNG:
		err = png.Encode(&buf, img)
	case domain.InputJPG, domain.InputJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case domain.InputGIF:
		err = gif.Encode(&buf, img, nil)
	case domain.InputBMP:
		err = bmp.Encode(&buf, img)
	case domain.InputTIFF:
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no test encoder for %s", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func decodeBytes(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img, format
}
