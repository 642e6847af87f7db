// Package preprocess cleans up images before feature extraction. Each
// operation is a batch filter over a working directory.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"shapefinder/imageprocessor"

	"gocv.io/x/gocv"
)

// Operation is one of the closed set of preprocessing filters
type Operation int

// The order of the constants is the order of the full chain
const (
	NoiseRemoval Operation = iota
	HoleFilling
	HistogramEqualization
	ContourAreaFiltering
)

// AllOperations lists every operation in chain order
var AllOperations = []Operation{
	NoiseRemoval,
	HoleFilling,
	HistogramEqualization,
	ContourAreaFiltering,
}

// ErrUnknownOperation is returned for values outside the known operations
var ErrUnknownOperation = errors.New("unknown preprocessing operation")

// DefaultMinContourArea is the area below which contours count as speckle
const DefaultMinContourArea = 300.0

// noiseKernel is the Gaussian kernel used for noise removal
var noiseKernel = image.Pt(5, 5)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	black = color.RGBA{R: 0, G: 0, B: 0, A: 0}
)

// DirName is the subdirectory an operation writes its outputs to
func (op Operation) DirName() string {
	switch op {
	case NoiseRemoval:
		return "noiseremoval"
	case HoleFilling:
		return "holefilling"
	case HistogramEqualization:
		return "histogramequalization"
	case ContourAreaFiltering:
		return "contour_area_filtering"
	default:
		return fmt.Sprintf("operation%d", int(op))
	}
}

// String returns a human readable operation name
func (op Operation) String() string {
	switch op {
	case NoiseRemoval:
		return "Noise Removal"
	case HoleFilling:
		return "Hole Filling"
	case HistogramEqualization:
		return "Histogram Equalization"
	case ContourAreaFiltering:
		return "Contour Area Filtering"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}

// ParseOperation accepts the short flag names and the directory names
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noise", "noiseremoval":
		return NoiseRemoval, nil
	case "holes", "holefilling":
		return HoleFilling, nil
	case "equalize", "histogramequalization":
		return HistogramEqualization, nil
	case "area", "contour_area_filtering":
		return ContourAreaFiltering, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownOperation, s)
	}
}

// Valid reports whether op is one of the known operations
func (op Operation) Valid() bool {
	return op >= NoiseRemoval && op <= ContourAreaFiltering
}

// Apply runs op on img in place
func (op Operation) Apply(img *gocv.Mat, minContourArea float64) error {
	switch op {
	case NoiseRemoval:
		return ApplyNoiseRemoval(img)
	case HoleFilling:
		return ApplyHoleFilling(img)
	case HistogramEqualization:
		return ApplyHistogramEqualization(img)
	case ContourAreaFiltering:
		return ApplyContourAreaFiltering(img, minContourArea)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
}

// ApplyNoiseRemoval smooths high-frequency noise with a small Gaussian kernel
func ApplyNoiseRemoval(img *gocv.Mat) error {
	if err := gocv.GaussianBlur(*img, img, noiseKernel, 0, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("noise removal failed: %w", err)
	}
	return nil
}

// ApplyHoleFilling fills every external contour found at a low threshold,
// so each silhouette becomes one solid region
func ApplyHoleFilling(img *gocv.Mat) error {
	binary, err := imageprocessor.Binarize(*img, imageprocessor.LowThreshold)
	if err != nil {
		return err
	}
	defer binary.Close()

	contours := imageprocessor.FindExternalContours(binary)
	defer contours.Close()

	if err := gocv.DrawContours(img, contours, -1, white, -1); err != nil {
		return fmt.Errorf("hole filling failed: %w", err)
	}
	return nil
}

// ApplyHistogramEqualization grays img and stretches its histogram.
// img is single-channel afterwards.
func ApplyHistogramEqualization(img *gocv.Mat) error {
	gray, err := imageprocessor.ToGray(*img)
	if err != nil {
		return err
	}
	defer gray.Close()

	equalized := gocv.NewMat()
	if err := gocv.EqualizeHist(gray, &equalized); err != nil {
		equalized.Close()
		return fmt.Errorf("histogram equalization failed: %w", err)
	}

	img.Close()
	*img = equalized
	return nil
}

// ApplyContourAreaFiltering erases every external contour, found at the
// mid threshold, whose area is below minContourArea
func ApplyContourAreaFiltering(img *gocv.Mat, minContourArea float64) error {
	binary, err := imageprocessor.Binarize(*img, imageprocessor.MidThreshold)
	if err != nil {
		return err
	}
	defer binary.Close()

	contours := imageprocessor.FindExternalContours(binary)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		if gocv.ContourArea(contours.At(i)) >= minContourArea {
			continue
		}
		if err := gocv.DrawContours(img, contours, i, black, -1); err != nil {
			return fmt.Errorf("contour area filtering failed: %w", err)
		}
	}
	return nil
}
