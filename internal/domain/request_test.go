package domain

import (
	"errors"
	"testing"
)

func TestConvertRequestValidate(t *testing.T) {
	valid := NewConvertRequest("JPEG", []string{"photo.heic"})
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}
	if valid.OutputFormat() != OutputJPEG {
		t.Fatalf("expected jpeg output, got %s", valid.OutputFormat())
	}

	defaulted := NewConvertRequest("", []string{"photo.heic"})
	if defaulted.OutputFormat() != OutputPNG {
		t.Fatalf("expected png default, got %s", defaulted.OutputFormat())
	}

	if err := NewConvertRequest("png", nil).Validate(); !errors.Is(err, ErrNoFilesUploaded) {
		t.Fatalf("expected ErrNoFilesUploaded, got %v", err)
	}

	if err := NewConvertRequest("png", []string{"", " "}).Validate(); !errors.Is(err, ErrNoFilesSelected) {
		t.Fatalf("expected ErrNoFilesSelected, got %v", err)
	}

	if err := NewConvertRequest("gif", []string{"a.png"}).Validate(); !errors.Is(err, ErrInvalidOutputFormat) {
		t.Fatalf("expected ErrInvalidOutputFormat, got %v", err)
	}
}

func TestParseOutputFormat(t *testing.T) {
	cases := map[string]bool{
		"png":   true,
		" PNG ": true,
		"jpeg":  true,
		"jpg":   false,
		"webp":  false,
		"":      false,
	}
	for raw, want := range cases {
		if _, ok := ParseOutputFormat(raw); ok != want {
			t.Fatalf("ParseOutputFormat(%q) ok=%v, want %v", raw, ok, want)
		}
	}
}
