// Package imageprocessor decodes source images and normalizes them into the
// fixed-size grayscale grids that the similarity metric compares.
package imageprocessor

import "image"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file into an image
	LoadImage(path string) (image.Image, error)
}
