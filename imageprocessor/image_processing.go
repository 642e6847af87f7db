package imageprocessor

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Threshold levels shared by the stages
const (
	// MidThreshold separates silhouette from background for contour work
	MidThreshold float32 = 128
	// LowThreshold treats any non-black pixel as foreground
	LowThreshold float32 = 1
)

// ToGray returns a single-channel copy of img. The caller must Close it.
func ToGray(img gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()

	var err error
	switch img.Channels() {
	case 1:
		err = img.CopyTo(&gray)
	case 4:
		err = gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		err = gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}
	if err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("failed to convert to grayscale: %w", err)
	}

	return gray, nil
}

// Binarize grays img and applies a binary threshold at level
func Binarize(img gocv.Mat, level float32) (gocv.Mat, error) {
	gray, err := ToGray(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, level, 255, gocv.ThresholdBinary)
	return binary, nil
}

// FindExternalContours traces the outer boundary of every foreground
// region in a binary image. The caller must Close the result.
func FindExternalContours(binary gocv.Mat) gocv.PointsVector {
	return gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
}

// ContourMoments computes the spatial, central and normalized central
// moments of a contour polygon. Keys follow OpenCV naming (m00, mu20, nu11...).
func ContourMoments(contour gocv.PointVector) map[string]float64 {
	points := contour.ToPoints()
	if len(points) == 0 {
		return map[string]float64{}
	}

	// An Nx2 CV_32S matrix is read by OpenCV as a point set, not as pixels
	mat := gocv.NewMatWithSize(len(points), 2, gocv.MatTypeCV32S)
	defer mat.Close()

	for i, p := range points {
		mat.SetIntAt(i, 0, int32(p.X))
		mat.SetIntAt(i, 1, int32(p.Y))
	}

	return gocv.Moments(mat, false)
}
