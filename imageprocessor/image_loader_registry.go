package imageprocessor

import (
	"image"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// extraLoaders are registered by optional build-tagged loaders.
var (
	extraMu      sync.Mutex
	extraLoaders []func(*ImageLoaderRegistry)
)

func registerExtraLoader(fn func(*ImageLoaderRegistry)) {
	extraMu.Lock()
	defer extraMu.Unlock()
	extraLoaders = append(extraLoaders, fn)
}

// ImageLoaderRegistry maintains a registry of image loaders keyed by extension
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry with the
// standard loaders and any loaders compiled in through build tags.
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standardLoader := NewStandardImageLoader()
	for ext, format := range formatExtensions {
		if slices.Contains(standardLoader.SupportedFormats, format) {
			registry.RegisterLoader(ext, standardLoader)
		}
	}
	// AVIF has no pure Go decoder. Without the opencv loader it falls through
	// to the standard loader, which refuses it in LoadImage.
	registry.defaultLoader = standardLoader

	extraMu.Lock()
	defer extraMu.Unlock()
	for _, register := range extraLoaders {
		register(registry)
	}
	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}
	return r.defaultLoader
}

// CanLoadFile reports whether the loader chosen for path accepts its format
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	loader := r.GetLoader(path)
	return loader != nil && loader.CanLoad(path)
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	if !fileExists(path) {
		return nil, newImageLoadError("image not found", path, nil)
	}
	if !r.CanLoadFile(path) {
		return nil, newImageLoadError("no suitable loader found", path, nil)
	}
	return r.GetLoader(path).LoadImage(path)
}
