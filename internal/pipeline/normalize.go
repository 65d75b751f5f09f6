package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

// Normalize flattens transparency onto white when the target cannot store it.
// PNG targets and images without transparency pass through untouched.
func Normalize(img DecodedImage, target domain.OutputFormat) DecodedImage {
	if target != domain.OutputJPEG || !img.Mode.HasTransparency() {
		return img
	}
	return flatten(img)
}

func flatten(img DecodedImage) (out DecodedImage) {
	bounds := img.Pixels.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	defer func() {
		if r := recover(); r != nil {
			out = DecodedImage{Pixels: opaqueCopy(img.Pixels), Mode: ModeRGB}
		}
	}()

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	src := img.Pixels
	if p, ok := src.(*image.Paletted); ok {
		src = expandPalette(p)
	}
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)

	return DecodedImage{Pixels: dst, Mode: ModeRGB}
}

// expandPalette keeps the source bounds so callers can keep drawing from bounds.Min.
func expandPalette(p *image.Paletted) *image.NRGBA {
	dst := image.NewNRGBA(p.Bounds())
	draw.Draw(dst, dst.Bounds(), p, p.Bounds().Min, draw.Src)
	return dst
}

// opaqueCopy pastes src as-is and discards whatever alpha it carried.
// Rows that cannot be read are left white.
func opaqueCopy(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for y := 0; y < b.Dy(); y++ {
		copyRowOpaque(dst, src, y)
	}
	return dst
}

func copyRowOpaque(dst *image.RGBA, src image.Image, y int) {
	defer func() { _ = recover() }()

	b := src.Bounds()
	for x := 0; x < b.Dx(); x++ {
		c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
		dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	}
}
