package imageprocessor

import (
	"fmt"
	"image"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder

	"gocv.io/x/gocv"
)

// Convert a Go image to a single-channel OpenCV Mat. Palette and color
// images are flattened with the standard luma weights.
func gocvMatFromGoImage(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	if b.Empty() {
		return gocv.NewMat(), fmt.Errorf("image has no pixels")
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	return gocv.ImageGrayToMatGray(gray)
}

// Check if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
