package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Bundle is what a batch hands back for download: the lone output itself,
// or a zip of all outputs.
type Bundle struct {
	Name   string
	Data   []byte
	Single bool
	Count  int
}

func (b Bundle) ContentType() string {
	if b.Single {
		return ContentTypeForName(b.Name)
	}
	return "application/zip"
}

func ArchiveName(now time.Time) string {
	return fmt.Sprintf("converted_images_%s.zip", now.Format("20060102_150405"))
}

// Package passes a single output through and zips two or more, keeping order.
func Package(outputs []Encoded, now time.Time) (Bundle, error) {
	switch len(outputs) {
	case 0:
		return Bundle{}, errors.New("nothing to package")
	case 1:
		return Bundle{Name: outputs[0].Name, Data: outputs[0].Data, Single: true, Count: 1}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, out := range outputs {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     out.Name,
			Method:   zip.Store,
			Modified: now,
		})
		if err != nil {
			return Bundle{}, fmt.Errorf("add %s to archive: %w", out.Name, err)
		}
		if _, err := w.Write(out.Data); err != nil {
			return Bundle{}, fmt.Errorf("write %s to archive: %w", out.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return Bundle{}, fmt.Errorf("finalize archive: %w", err)
	}

	return Bundle{Name: ArchiveName(now), Data: buf.Bytes(), Count: len(outputs)}, nil
}

// ContentTypeForName maps a stored output name to its media type.
func ContentTypeForName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpeg", ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
