package pipeline

import (
	"image"
)

// ColorMode is the channel layout of a decoded image.
type ColorMode int

const (
	ModeRGB ColorMode = iota
	ModeRGBA
	ModeGray
	ModeGrayAlpha
	ModePalette
)

func (m ColorMode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	case ModeGray:
		return "L"
	case ModeGrayAlpha:
		return "LA"
	case ModePalette:
		return "P"
	default:
		return "unknown"
	}
}

// HasTransparency is true for the modes that must be flattened before JPEG encoding.
func (m ColorMode) HasTransparency() bool {
	return m == ModeRGBA || m == ModeGrayAlpha || m == ModePalette
}

// DecodedImage is one in-memory image. It belongs to a single batch item.
type DecodedImage struct {
	Pixels image.Image
	Mode   ColorMode
}

func (d DecodedImage) Width() int  { return d.Pixels.Bounds().Dx() }
func (d DecodedImage) Height() int { return d.Pixels.Bounds().Dy() }

// modeOf infers the color mode from the concrete pixel buffer the codec produced.
func modeOf(img image.Image) ColorMode {
	switch p := img.(type) {
	case *image.Paletted:
		return ModePalette
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return ModeRGBA
	case *image.RGBA:
		if p.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	case *image.RGBA64:
		if p.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	default:
		return ModeRGB
	}
}
