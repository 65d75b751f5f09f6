package pipeline

import (
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/heic"
	"gorgonia.org/tensor"
)

// arrayReader decodes a file into a raw H×W×C or H×W uint8 array.
type arrayReader func(path string) (*tensor.Dense, error)

func readHeicArray(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open heic file: %w", err)
	}
	defer f.Close()

	img, err := heic.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("array HEIC conversion failed: %w", err)
	}
	return pixelsToArray(img), nil
}

// pixelsToArray lays img out row-major: H×W for gray sources, H×W×3 otherwise.
func pixelsToArray(img image.Image) *tensor.Dense {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()

	if gray, ok := img.(*image.Gray); ok {
		buf := make([]uint8, 0, h*w)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := gray.Pix[gray.PixOffset(b.Min.X, y):]
			buf = append(buf, row[:w]...)
		}
		return tensor.New(tensor.WithShape(h, w), tensor.WithBacking(buf))
	}

	buf := make([]uint8, 0, h*w*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			buf = append(buf, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return tensor.New(tensor.WithShape(h, w, 3), tensor.WithBacking(buf))
}

// imageFromArray reinterprets a three-dimensional array as RGB and a
// two-dimensional one as grayscale. Any other layout is a decode failure.
func imageFromArray(arr *tensor.Dense) (DecodedImage, error) {
	if arr == nil {
		return DecodedImage{}, &DecodeError{Reason: "array HEIC conversion failed: empty array"}
	}

	shape := arr.Shape()
	var data []uint8
	switch v := arr.Data().(type) {
	case []uint8:
		data = v
	case uint8:
		data = []uint8{v}
	default:
		return DecodedImage{}, &DecodeError{Reason: fmt.Sprintf("array HEIC conversion failed: unsupported element type %T", v)}
	}

	switch {
	case len(shape) == 3 && shape[2] == 3:
		h, w := shape[0], shape[1]
		if len(data) != h*w*3 {
			return DecodedImage{}, shapeMismatch(shape, len(data))
		}
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
			img.Pix[j] = data[i]
			img.Pix[j+1] = data[i+1]
			img.Pix[j+2] = data[i+2]
			img.Pix[j+3] = 0xff
		}
		return DecodedImage{Pixels: img, Mode: ModeRGB}, nil
	case len(shape) == 2:
		h, w := shape[0], shape[1]
		if len(data) != h*w {
			return DecodedImage{}, shapeMismatch(shape, len(data))
		}
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, data)
		return DecodedImage{Pixels: img, Mode: ModeGray}, nil
	default:
		return DecodedImage{}, &DecodeError{Reason: fmt.Sprintf("array HEIC conversion failed: cannot interpret array of shape %v", shape)}
	}
}

func shapeMismatch(shape tensor.Shape, n int) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf("array HEIC conversion failed: shape %v does not match %d values", shape, n)}
}
