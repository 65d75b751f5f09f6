package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/dunamismax/pixelconvert/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrHeicUnavailable = errors.New("HEIC support not available")

// DecodeError wraps every failure to turn an input file into pixels.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string { return e.Reason }
func (e *DecodeError) Unwrap() error { return e.Err }

func asDecodeError(err error) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	return &DecodeError{Reason: err.Error(), Err: err}
}

type heicDecodeFunc func(path string) (DecodedImage, error)

// Decoder turns files on disk into DecodedImages. HEIC files go through the
// strategy bound to the capability resolved at startup.
type Decoder struct {
	capability HeicCapability
	heic       map[HeicCapability]heicDecodeFunc
}

func NewDecoder(capability HeicCapability) *Decoder {
	return newDecoder(capability, nativeHeicDecode, readHeicArray)
}

func newDecoder(capability HeicCapability, native func(string) (image.Image, error), readArray arrayReader) *Decoder {
	return &Decoder{
		capability: capability,
		heic: map[HeicCapability]heicDecodeFunc{
			HeicNative: func(path string) (DecodedImage, error) {
				img, err := native(path)
				if err != nil {
					return DecodedImage{}, err
				}
				return DecodedImage{Pixels: img, Mode: modeOf(img)}, nil
			},
			HeicFallbackArray: func(path string) (DecodedImage, error) {
				arr, err := readArray(path)
				if err != nil {
					return DecodedImage{}, err
				}
				return imageFromArray(arr)
			},
			HeicNone: func(string) (DecodedImage, error) {
				return DecodedImage{}, &DecodeError{Reason: ErrHeicUnavailable.Error(), Err: ErrHeicUnavailable}
			},
		},
	}
}

func (d *Decoder) Capability() HeicCapability {
	return d.capability
}

func (d *Decoder) Decode(path string, format domain.InputFormat) (out DecodedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = DecodedImage{}, &DecodeError{Reason: fmt.Sprintf("decode panic: %v", r)}
		}
	}()

	if format.IsHEIC() {
		decode, ok := d.heic[d.capability]
		if !ok {
			decode = d.heic[HeicNone]
		}
		out, err = decode(path)
	} else {
		out, err = decodeStandard(path)
	}
	if err != nil {
		return DecodedImage{}, asDecodeError(err)
	}
	return out, nil
}

func decodeStandard(path string) (DecodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DecodedImage{}, fmt.Errorf("read input file: %w", err)
	}

	img, codec, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return DecodedImage{}, err
	}

	mode := modeOf(img)
	if codec == "png" && pngColorType(data) == pngColorGrayAlpha {
		mode = ModeGrayAlpha
	}
	return DecodedImage{Pixels: img, Mode: mode}, nil
}

const pngColorGrayAlpha = 4

// pngColorType reads the IHDR color type byte. The image package widens
// gray+alpha PNGs to NRGBA, so the mode has to come from the header.
func pngColorType(data []byte) int {
	const offset = 8 + 4 + 4 + 4 + 4 + 1
	if len(data) <= offset || string(data[12:16]) != "IHDR" {
		return -1
	}
	return int(data[offset])
}
