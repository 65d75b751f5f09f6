package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 60), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func outputsIn(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConvertSingleFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writePNG(t, in, "photo.png")

	stdout, err := run(t, "convert", "--heic", "none", "--format", "jpeg", "--out", out, src)
	require.NoError(t, err)

	names := outputsIn(t, out)
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "converted_"))
	assert.True(t, strings.HasSuffix(names[0], ".jpeg"))

	data, err := os.ReadFile(filepath.Join(out, names[0]))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	assert.Contains(t, stdout, "JPEG")
	assert.Contains(t, stdout, names[0])
}

func TestConvertBatchWritesArchiveAndReportsSkipped(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	a := writePNG(t, in, "a.png")
	b := writePNG(t, in, "b.png")
	notes := filepath.Join(in, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))

	stdout, err := run(t, "convert", "--heic", "none", "-f", "jpeg", "-w", "2", "-o", out, a, notes, b)
	require.NoError(t, err)

	names := outputsIn(t, out)
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "converted_images_"))
	assert.True(t, strings.HasSuffix(names[0], ".zip"))

	zr, err := zip.OpenReader(filepath.Join(out, names[0]))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	for _, f := range zr.File {
		assert.True(t, strings.HasSuffix(f.Name, ".jpeg"), f.Name)
	}

	assert.Contains(t, stdout, "skipped: notes.txt: unsupported file format")
}

func TestConvertNothingConverted(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	notes := filepath.Join(in, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))

	stdout, err := run(t, "convert", "--heic", "none", "-o", out, notes)
	require.ErrorIs(t, err, ErrNothingConverted)
	assert.Empty(t, outputsIn(t, out))
	assert.Contains(t, stdout, "skipped: notes.txt")
}

func TestConvertRejectsOversizedFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writePNG(t, in, "big.png")

	stdout, err := run(t, "convert", "--heic", "none", "--max-file-bytes", "8", "-o", out, src)
	require.ErrorIs(t, err, ErrNothingConverted)
	assert.Contains(t, stdout, "big.png: file too large (max 8 bytes)")
}

func TestConvertInvalidFormat(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png")

	_, err := run(t, "convert", "--format", "gif", "-o", t.TempDir(), src)
	require.EqualError(t, err, "Invalid output format")
}

func TestConvertMissingInput(t *testing.T) {
	_, err := run(t, "convert", "-o", t.TempDir(), filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCapabilitiesWithoutHeic(t *testing.T) {
	stdout, err := run(t, "capabilities", "--heic", "none")
	require.NoError(t, err)

	assert.Contains(t, stdout, "not available")
	assert.Contains(t, stdout, "PNG")
	assert.NotContains(t, stdout, "HEIC,")
}

func TestCapabilitiesWithFallback(t *testing.T) {
	stdout, err := run(t, "capabilities", "--heic", "fallback")
	require.NoError(t, err)

	assert.Contains(t, stdout, "HEIC")
	assert.NotContains(t, stdout, "not available")
}
