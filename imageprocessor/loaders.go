package imageprocessor

import (
	"fmt"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)

	for _, supported := range l.SupportedFormats {
		if format == supported {
			return fileExists(path)
		}
	}

	return false
}

// StandardImageLoader reads rasters through OpenCV in BGR color
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard raster formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJPEG, FormatPNG, FormatBMP},
		},
	}
}

// LoadImage loads a standard image format
func (l *StandardImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), newImageLoadError("failed to load image", path)
	}
	return img, nil
}

// LegacyImageLoader decodes animated or indexed formats that OpenCV builds
// often lack. Only the first frame is kept and the result is single-channel.
type LegacyImageLoader struct {
	BaseImageLoader
}

// NewLegacyImageLoader creates a loader for GIF and TIFF files
func NewLegacyImageLoader() *LegacyImageLoader {
	return &LegacyImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatGIF, FormatTIFF},
		},
	}
}

// LoadImage decodes the first frame and returns it as an 8-bit gray Mat
func (l *LegacyImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode %s: %w", path, err)
	}

	mat, err := gocvMatFromGoImage(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert %s: %w", path, err)
	}
	return mat, nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
