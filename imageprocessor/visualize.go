package imageprocessor

import (
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// OverlaySize is the default edge length of rendered overlays
const OverlaySize = 500

var contourColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// RenderContourOverlay draws the external contours found at the mid
// threshold onto the image at src and saves the result to dst. When size
// is positive, larger images are scaled down to fit a size x size box.
func RenderContourOverlay(src, dst string, size int) (int, error) {
	img := gocv.IMRead(src, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return 0, newImageLoadError("failed to load image", src)
	}
	defer img.Close()

	binary, err := Binarize(img, MidThreshold)
	if err != nil {
		return 0, err
	}
	defer binary.Close()

	contours := FindExternalContours(binary)
	defer contours.Close()

	if err := gocv.DrawContours(&img, contours, -1, contourColor, 2); err != nil {
		return 0, fmt.Errorf("failed to draw contours: %w", err)
	}

	rendered, err := img.ToImage()
	if err != nil {
		return 0, fmt.Errorf("failed to convert overlay: %w", err)
	}

	if size > 0 {
		rendered = imaging.Fit(rendered, size, size, imaging.Lanczos)
	}

	if err := imaging.Save(rendered, dst); err != nil {
		return 0, fmt.Errorf("failed to save overlay %s: %w", dst, err)
	}
	return contours.Size(), nil
}
