package domain

import "strings"

// InputFormat is a supported upload format, derived from the filename extension.
type InputFormat string

const (
	InputHEIC InputFormat = "heic"
	InputHEIF InputFormat = "heif"
	InputJPG  InputFormat = "jpg"
	InputJPEG InputFormat = "jpeg"
	InputPNG  InputFormat = "png"
	InputBMP  InputFormat = "bmp"
	InputGIF  InputFormat = "gif"
	InputTIFF InputFormat = "tiff"
	InputWEBP InputFormat = "webp"
)

// InputFormats lists every accepted upload extension in display order.
var InputFormats = []InputFormat{
	InputHEIC, InputHEIF, InputJPG, InputJPEG, InputPNG, InputBMP, InputGIF, InputTIFF, InputWEBP,
}

func (f InputFormat) IsHEIC() bool {
	return f == InputHEIC || f == InputHEIF
}

// OutputFormat is a conversion target.
type OutputFormat string

const (
	OutputPNG  OutputFormat = "png"
	OutputJPEG OutputFormat = "jpeg"
)

var OutputFormats = []OutputFormat{OutputPNG, OutputJPEG}

// ParseOutputFormat lower-cases and trims raw. ok is false for anything but png or jpeg.
func ParseOutputFormat(raw string) (OutputFormat, bool) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case OutputPNG:
		return OutputPNG, true
	case OutputJPEG:
		return OutputJPEG, true
	default:
		return "", false
	}
}

// Extension is the file extension used for converted outputs, without the dot.
func (f OutputFormat) Extension() string {
	return string(f)
}

func (f OutputFormat) ContentType() string {
	if f == OutputJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Label is the upper-case name recorded in history entries.
func (f OutputFormat) Label() string {
	return strings.ToUpper(string(f))
}
