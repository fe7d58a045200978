//go:build opencv

package imageprocessor

import (
	"image"

	"gocv.io/x/gocv"
)

func init() {
	registerExtraLoader(func(r *ImageLoaderRegistry) {
		r.RegisterLoader(".avif", NewCVImageLoader())
	})
}

// CVImageLoader decodes through OpenCV, which covers formats without a pure
// Go decoder when the OpenCV build was compiled with the matching codec.
type CVImageLoader struct {
	BaseImageLoader
}

// NewCVImageLoader creates a new OpenCV backed loader
func NewCVImageLoader() *CVImageLoader {
	return &CVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatAVIF},
		},
	}
}

// LoadImage reads the file in color so that luminance is computed the same
// way as for the standard loader.
func (l *CVImageLoader) LoadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, newImageLoadError("failed to load image with opencv", path, nil)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, newImageLoadError("failed to convert opencv image", path, err)
	}
	return img, nil
}
