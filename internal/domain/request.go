package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNoFilesUploaded     = errors.New("No files uploaded")
	ErrNoFilesSelected     = errors.New("No files selected")
	ErrInvalidOutputFormat = errors.New("Invalid output format")
)

var validate = validator.New()

// ConvertRequest is the form-level part of a POST /convert call.
type ConvertRequest struct {
	Format    string   `validate:"required,oneof=png jpeg"`
	Filenames []string `validate:"required,min=1"`
}

// NewConvertRequest applies the form defaults: format falls back to png and is lower-cased.
func NewConvertRequest(format string, filenames []string) ConvertRequest {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = string(OutputPNG)
	}
	return ConvertRequest{Format: format, Filenames: filenames}
}

func (r ConvertRequest) Validate() error {
	if len(r.Filenames) == 0 {
		return ErrNoFilesUploaded
	}
	selected := false
	for _, name := range r.Filenames {
		if strings.TrimSpace(name) != "" {
			selected = true
			break
		}
	}
	if !selected {
		return ErrNoFilesSelected
	}
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Format" {
			return ErrInvalidOutputFormat
		}
		return err
	}
	return nil
}

// OutputFormat returns the parsed target. Call Validate first.
func (r ConvertRequest) OutputFormat() OutputFormat {
	f, _ := ParseOutputFormat(r.Format)
	return f
}
