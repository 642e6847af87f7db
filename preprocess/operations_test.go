package preprocess

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

var testWhite = color.RGBA{R: 255, G: 255, B: 255, A: 0}

func blankGray(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
}

func TestApplyContourAreaFiltering(t *testing.T) {
	img := blankGray(200, 200)
	defer img.Close()

	small := image.Rect(20, 20, 29, 29)
	large := image.Rect(100, 100, 149, 149)
	gocv.Rectangle(&img, small, testWhite, -1)
	gocv.Rectangle(&img, large, testWhite, -1)

	before := img.Clone()
	defer before.Close()

	if err := ApplyContourAreaFiltering(&img, DefaultMinContourArea); err != nil {
		t.Fatalf("ApplyContourAreaFiltering() error = %v", err)
	}

	// The 10x10 speckle is gone
	for y := small.Min.Y; y <= small.Max.Y; y++ {
		for x := small.Min.X; x <= small.Max.X; x++ {
			if v := img.GetUCharAt(y, x); v != 0 {
				t.Fatalf("pixel (%d,%d) = %d, speckle not erased", x, y, v)
			}
		}
	}

	// The 50x50 square is untouched
	for y := large.Min.Y; y <= large.Max.Y; y++ {
		for x := large.Min.X; x <= large.Max.X; x++ {
			if img.GetUCharAt(y, x) != before.GetUCharAt(y, x) {
				t.Fatalf("pixel (%d,%d) of the large square changed", x, y)
			}
		}
	}

	if n := gocv.CountNonZero(img); n != 50*50 {
		t.Errorf("CountNonZero = %d, want %d", n, 50*50)
	}
}

func TestApplyContourAreaFilteringOnColor(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(5, 5, 9, 9), testWhite, -1)

	if err := ApplyContourAreaFiltering(&img, DefaultMinContourArea); err != nil {
		t.Fatalf("ApplyContourAreaFiltering() error = %v", err)
	}

	if img.Channels() != 3 {
		t.Errorf("Channels() = %d, want 3", img.Channels())
	}
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	if n := gocv.CountNonZero(gray); n != 0 {
		t.Errorf("CountNonZero = %d, want 0", n)
	}
}

func TestApplyHoleFilling(t *testing.T) {
	img := blankGray(120, 120)
	defer img.Close()

	// A 60x60 ring with a 20x20 hole
	gocv.Rectangle(&img, image.Rect(30, 30, 89, 89), testWhite, -1)
	gocv.Rectangle(&img, image.Rect(50, 50, 69, 69), color.RGBA{}, -1)
	if n := gocv.CountNonZero(img); n != 60*60-20*20 {
		t.Fatalf("setup: CountNonZero = %d", n)
	}

	if err := ApplyHoleFilling(&img); err != nil {
		t.Fatalf("ApplyHoleFilling() error = %v", err)
	}

	if n := gocv.CountNonZero(img); n != 60*60 {
		t.Errorf("CountNonZero = %d, want %d", n, 60*60)
	}
	if v := img.GetUCharAt(60, 60); v != 255 {
		t.Errorf("hole center = %d, want 255", v)
	}
}

func TestApplyHistogramEqualization(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 40, 40, 0), 64, 64, gocv.MatTypeCV8UC3)
	defer func() { img.Close() }()
	gocv.Rectangle(&img, image.Rect(0, 0, 31, 63), color.RGBA{R: 60, G: 60, B: 60}, -1)

	if err := ApplyHistogramEqualization(&img); err != nil {
		t.Fatalf("ApplyHistogramEqualization() error = %v", err)
	}

	if img.Empty() {
		t.Fatal("equalized image is empty")
	}
	if img.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", img.Channels())
	}
	if img.Rows() != 64 || img.Cols() != 64 {
		t.Errorf("size = %dx%d, want 64x64", img.Cols(), img.Rows())
	}
	// Two gray levels are spread to the full range
	if v := img.GetUCharAt(10, 10); v != 255 {
		t.Errorf("brighter half = %d, want 255", v)
	}
}

func TestApplyNoiseRemoval(t *testing.T) {
	img := blankGray(21, 21)
	defer img.Close()
	img.SetUCharAt(10, 10, 255)

	if err := ApplyNoiseRemoval(&img); err != nil {
		t.Fatalf("ApplyNoiseRemoval() error = %v", err)
	}

	center := img.GetUCharAt(10, 10)
	if center == 0 || center == 255 {
		t.Errorf("center = %d, want a blurred value", center)
	}
	if img.GetUCharAt(10, 11) == 0 {
		t.Error("neighbour was not blurred")
	}
	if img.GetUCharAt(0, 0) != 0 {
		t.Error("far corner changed")
	}
}

func TestApplyUnknownOperation(t *testing.T) {
	img := blankGray(10, 10)
	defer img.Close()

	err := Operation(9).Apply(&img, DefaultMinContourArea)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("Apply() error = %v, want ErrUnknownOperation", err)
	}
}
