package imageprocessor

import (
	"path/filepath"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatBMP     FormatType = "bmp"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// rasterFormats are read and written directly by OpenCV
var rasterFormats = map[FormatType]bool{
	FormatJPEG: true,
	FormatPNG:  true,
	FormatBMP:  true,
}

// DefaultLegacyFormats lists the extensions the normalizer converts by default
var DefaultLegacyFormats = []string{".gif"}

// CanonicalExtension is the extension of every normalized image
const CanonicalExtension = ".jpg"

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// IsRasterFile reports whether the path is a raster the pipeline stages read
func IsRasterFile(path string) bool {
	return rasterFormats[GetFileFormat(path)]
}

// IsLegacyFile reports whether the path needs normalization before use
func IsLegacyFile(path string) bool {
	format := GetFileFormat(path)
	return format == FormatGIF || format == FormatTIFF
}

// HasExtension reports whether path ends in one of exts, ignoring case
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range exts {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}
