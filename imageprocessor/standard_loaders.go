package imageprocessor

import (
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// StandardImageLoader handles formats with a pure Go decoder. JPEG, PNG,
// GIF, BMP and TIFF come through imaging; WebP through golang.org/x/image.
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// LoadImage decodes the file, applying the EXIF orientation so that rotated
// camera images keep their displayed aspect ratio.
func (l *StandardImageLoader) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newImageLoadError("failed to decode image", path, err)
	}
	return img, nil
}
