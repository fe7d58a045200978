package imageprocessor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/imageprocessor"
	"imgcompare/testutil"
)

func TestRegistryLoadsPNG(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSolidPNG(t, dir, "red.PNG", 30, 20, testutil.Red)

	registry := imageprocessor.NewImageLoaderRegistry()
	require.True(t, registry.CanLoadFile(path))

	img, err := registry.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestRegistryReportsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "broken.jpg", []byte("definitely not a jpeg"))

	_, err := imageprocessor.NewImageLoaderRegistry().LoadImage(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.jpg")
}

func TestRegistryReportsMissingFile(t *testing.T) {
	_, err := imageprocessor.NewImageLoaderRegistry().LoadImage("/nonexistent/a.png")
	require.Error(t, err)
}

func TestIsImageFile(t *testing.T) {
	for _, path := range []string{"a.jpg", "b.JPEG", "c.png", "d.Avif", "e.webp"} {
		assert.True(t, imageprocessor.IsImageFile(path), path)
	}
	for _, path := range []string{"a.gif", "b.txt", "noext", "c.png.bak"} {
		assert.False(t, imageprocessor.IsImageFile(path), path)
	}
}

func TestGetFileFormat(t *testing.T) {
	assert.Equal(t, imageprocessor.FormatJPEG, imageprocessor.GetFileFormat("x.JPG"))
	assert.Equal(t, imageprocessor.FormatWEBP, imageprocessor.GetFileFormat("x.webp"))
	assert.Equal(t, imageprocessor.FormatUnknown, imageprocessor.GetFileFormat("x.cr3"))
}

func TestSupportedExtensionsReturnsCopy(t *testing.T) {
	exts := imageprocessor.SupportedExtensions()
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".avif", ".webp"}, exts)

	exts[0] = ".bogus"
	assert.False(t, imageprocessor.IsImageFile("x.bogus"))
}
