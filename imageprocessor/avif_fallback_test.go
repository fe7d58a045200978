//go:build !opencv

package imageprocessor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/imageprocessor"
	"imgcompare/testutil"
)

func TestRegistryRefusesAVIFWithoutDecoder(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "photo.avif", []byte("\x00\x00\x00\x1cftypavif"))

	registry := imageprocessor.NewImageLoaderRegistry()
	assert.False(t, registry.CanLoadFile(path))

	_, err := registry.LoadImage(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable loader found")
	assert.Contains(t, err.Error(), "photo.avif")
}
