package pipeline

import (
	"errors"
	"image"
	"testing"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestResolveHeicCapability(t *testing.T) {
	tests := []struct {
		preference string
		native     bool
		fallback   bool
		want       HeicCapability
	}{
		{"auto", true, true, HeicNative},
		{"auto", false, true, HeicFallbackArray},
		{"auto", false, false, HeicNone},
		{"", true, false, HeicNative},
		{"native", false, true, HeicFallbackArray},
		{"fallback", true, true, HeicFallbackArray},
		{"fallback", true, false, HeicNone},
		{"none", true, true, HeicNone},
		{"NONE", true, true, HeicNone},
	}

	for _, tt := range tests {
		got := resolveHeicCapability(tt.preference, tt.native, tt.fallback)
		assert.Equalf(t, tt.want, got, "preference=%q native=%v fallback=%v", tt.preference, tt.native, tt.fallback)
	}
}

func TestHeicCapabilityStrings(t *testing.T) {
	assert.Equal(t, "native", HeicNative.String())
	assert.Equal(t, "fallback-array", HeicFallbackArray.String())
	assert.Equal(t, "none", HeicNone.String())
	assert.Empty(t, HeicNone.Method())
}

func staticArray(arr *tensor.Dense, err error) arrayReader {
	return func(string) (*tensor.Dense, error) {
		return arr, err
	}
}

func noNative(string) (image.Image, error) {
	return nil, errors.New("native decoder not expected")
}

func TestDecodeHeicFallbackRGB(t *testing.T) {
	data := make([]uint8, 2*3*3)
	for i := range data {
		data[i] = uint8(i * 10)
	}
	arr := tensor.New(tensor.WithShape(2, 3, 3), tensor.WithBacking(data))

	d := newDecoder(HeicFallbackArray, noNative, staticArray(arr, nil))
	img, err := d.Decode("IMG.HEIC", domain.InputHEIC)
	require.NoError(t, err)

	assert.Equal(t, ModeRGB, img.Mode)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())

	r, g, b, a := img.Pixels.At(1, 0).RGBA()
	assert.Equal(t, uint32(30), r>>8)
	assert.Equal(t, uint32(40), g>>8)
	assert.Equal(t, uint32(50), b>>8)
	assert.Equal(t, uint32(0xff), a>>8)
}

func TestDecodeHeicFallbackGray(t *testing.T) {
	arr := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]uint8{0, 64, 128, 255}))

	d := newDecoder(HeicFallbackArray, noNative, staticArray(arr, nil))
	img, err := d.Decode("IMG.heif", domain.InputHEIF)
	require.NoError(t, err)

	assert.Equal(t, ModeGray, img.Mode)
	gray, ok := img.Pixels.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(128), gray.GrayAt(0, 1).Y)
}

func TestDecodeHeicFallbackRejectsOtherShapes(t *testing.T) {
	shapes := map[string]*tensor.Dense{
		"four channels": tensor.New(tensor.WithShape(1, 2, 4), tensor.WithBacking(make([]uint8, 8))),
		"four dims":     tensor.New(tensor.WithShape(1, 1, 2, 3), tensor.WithBacking(make([]uint8, 6))),
		"one dim":       tensor.New(tensor.WithShape(6), tensor.WithBacking(make([]uint8, 6))),
		"float values":  tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float32{0, 1, 2, 3})),
	}

	for name, arr := range shapes {
		t.Run(name, func(t *testing.T) {
			d := newDecoder(HeicFallbackArray, noNative, staticArray(arr, nil))
			_, err := d.Decode("x.heic", domain.InputHEIC)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Contains(t, de.Reason, "array HEIC conversion failed")
		})
	}
}

func TestDecodeHeicFallbackReaderErrorIsWrapped(t *testing.T) {
	d := newDecoder(HeicFallbackArray, noNative, staticArray(nil, errors.New("bad box")))
	_, err := d.Decode("x.heic", domain.InputHEIC)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "bad box", de.Reason)
}

func TestDecodeHeicNative(t *testing.T) {
	native := func(string) (image.Image, error) {
		return gradient(4, 3), nil
	}
	d := newDecoder(HeicNative, native, staticArray(nil, errors.New("array decoder not expected")))

	img, err := d.Decode("x.heic", domain.InputHEIC)
	require.NoError(t, err)
	assert.Equal(t, ModeRGB, img.Mode)
	assert.Equal(t, 4, img.Width())
}

func TestDecodeHeicWithoutCapability(t *testing.T) {
	d := newDecoder(HeicNone, noNative, staticArray(nil, nil))

	_, err := d.Decode("x.heic", domain.InputHEIC)
	require.ErrorIs(t, err, ErrHeicUnavailable)
	assert.EqualError(t, err, "HEIC support not available")
}

func TestPixelsToArrayRoundTrip(t *testing.T) {
	src := gradient(5, 4)

	img, err := imageFromArray(pixelsToArray(src))
	require.NoError(t, err)
	assert.Equal(t, ModeRGB, img.Mode)

	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			wr, wg, wb, _ := src.At(x, y).RGBA()
			gr, gg, gb, _ := img.Pixels.At(x, y).RGBA()
			require.Equal(t, [3]uint32{wr >> 8, wg >> 8, wb >> 8}, [3]uint32{gr >> 8, gg >> 8, gb >> 8})
		}
	}

	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.Pix = []uint8{1, 2, 3, 4, 5, 6}
	arr := pixelsToArray(gray)
	assert.Equal(t, tensor.Shape{2, 3}, arr.Shape())
}
