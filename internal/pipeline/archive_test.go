package pipeline

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageSingleOutputPassesThrough(t *testing.T) {
	out := Encoded{Name: "converted_0a1b2c3d.png", Data: []byte("png-bytes")}

	bundle, err := Package([]Encoded{out}, time.Now())
	require.NoError(t, err)
	assert.True(t, bundle.Single)
	assert.Equal(t, out.Name, bundle.Name)
	assert.Equal(t, out.Data, bundle.Data)
	assert.Equal(t, "image/png", bundle.ContentType())
}

func TestPackageMultipleOutputsBuildsZip(t *testing.T) {
	outputs := []Encoded{
		{Name: "converted_00000001.jpeg", Data: []byte("first")},
		{Name: "converted_00000002.jpeg", Data: []byte("second")},
		{Name: "converted_00000003.jpeg", Data: []byte("third")},
	}
	now := time.Date(2026, 10, 18, 9, 5, 7, 0, time.UTC)

	bundle, err := Package(outputs, now)
	require.NoError(t, err)
	assert.False(t, bundle.Single)
	assert.Equal(t, 3, bundle.Count)
	assert.Equal(t, "converted_images_20261018_090507.zip", bundle.Name)
	assert.Equal(t, "application/zip", bundle.ContentType())

	zr, err := zip.NewReader(bytes.NewReader(bundle.Data), int64(len(bundle.Data)))
	require.NoError(t, err)
	require.Len(t, zr.File, len(outputs))
	for i, f := range zr.File {
		assert.Equal(t, outputs[i].Name, f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, outputs[i].Data, body)
	}
}

func TestPackageNothing(t *testing.T) {
	_, err := Package(nil, time.Now())
	assert.Error(t, err)
}

func TestContentTypeForName(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForName("converted_1.jpeg"))
	assert.Equal(t, "image/png", ContentTypeForName("converted_1.PNG"))
	assert.Equal(t, "application/zip", ContentTypeForName("converted_images_1.zip"))
	assert.Equal(t, "application/octet-stream", ContentTypeForName("notes"))
}
