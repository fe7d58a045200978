package imageprocessor

import (
	"path/filepath"
	"slices"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatAVIF    FormatType = "avif"
	FormatWEBP    FormatType = "webp"
	FormatGIF     FormatType = "gif"
	FormatBMP     FormatType = "bmp"
	FormatTIFF    FormatType = "tiff"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".avif": FormatAVIF,
	".webp": FormatWEBP,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// scanExtensions is the fixed set of extensions picked up by directory traversal.
var scanExtensions = []string{".jpg", ".jpeg", ".png", ".avif", ".webp"}

// IsImageFile checks if a path has one of the scanned image extensions,
// case-insensitively.
func IsImageFile(path string) bool {
	return slices.Contains(scanExtensions, strings.ToLower(filepath.Ext(path)))
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// SupportedExtensions returns the extensions picked up by directory traversal
func SupportedExtensions() []string {
	return slices.Clone(scanExtensions)
}
