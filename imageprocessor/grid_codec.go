package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrCorruptGrid is returned when a serialized grid does not decode to a
// single-channel image of the normalized size. Such data is never coerced.
var ErrCorruptGrid = errors.New("stored grid is not a normalized grayscale image")

// EncodeGrid serializes a grid as an 8-bit grayscale PNG, which round-trips
// the pixels exactly.
func EncodeGrid(gray *image.Gray) ([]byte, error) {
	if gray == nil {
		return nil, errors.New("nil grid")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode grid: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeGrid parses a PNG produced by EncodeGrid. Any other pixel format or
// size yields ErrCorruptGrid.
func DecodeGrid(data []byte) (*image.Gray, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptGrid, err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("%w: pixel format %T", ErrCorruptGrid, img)
	}
	if b := gray.Bounds(); b.Dx() != TargetWidth || b.Dy() != TargetHeight {
		return nil, fmt.Errorf("%w: size %dx%d", ErrCorruptGrid, b.Dx(), b.Dy())
	}
	return gray, nil
}
