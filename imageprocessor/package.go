// Package imageprocessor loads images, converts legacy formats into the
// canonical grayscale raster and wraps the OpenCV primitives shared by the
// preprocessing and feature stages.
package imageprocessor

import "gocv.io/x/gocv"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads and returns the image. The caller must Close it.
	LoadImage(path string) (gocv.Mat, error)
}
