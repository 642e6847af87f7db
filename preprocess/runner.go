package preprocess

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shapefinder/imageprocessor"
	"shapefinder/logging"
	"shapefinder/scanner"

	"gocv.io/x/gocv"
)

// Options configures a preprocessing run
type Options struct {
	// MinContourArea is the speckle cutoff for contour area filtering.
	// Zero means DefaultMinContourArea.
	MinContourArea   float64
	AllowComposition bool
	DebugMode        bool
}

func (o Options) minArea() float64 {
	if o.MinContourArea <= 0 {
		return DefaultMinContourArea
	}
	return o.MinContourArea
}

// Report describes a finished run
type Report struct {
	Mode       Mode
	Operations Selection
	// OutputDir is where the filtered images now live. In ModeAll it is the
	// source directory itself.
	OutputDir string
	Stats     scanner.BatchStats
}

// Run resolves sel and applies it to every raster directly inside dir.
// A refused selection is logged as a warning and touches no file.
func Run(dir string, sel Selection, options Options) (Report, error) {
	plan, err := Plan(sel, options.AllowComposition)
	if err != nil {
		logging.LogWarning("Preprocessing skipped for %s: %v", dir, err)
		return Report{}, err
	}

	if options.DebugMode {
		logging.DebugLog("Preprocessing %s in %s mode with %s", dir, plan.Mode, plan.Operations.DirName())
	}

	switch plan.Mode {
	case ModeAll:
		return ApplyAllToDirectory(dir, options)
	case ModeSingle:
		return ApplyToDirectory(dir, plan.Operations[0], options)
	default:
		return applyChain(dir, plan, filepath.Join(dir, plan.Operations.DirName()), options)
	}
}

// ApplyToDirectory writes op applied to each raster in dir into
// dir/<op.DirName()>. Source images are left untouched.
func ApplyToDirectory(dir string, op Operation, options Options) (Report, error) {
	plan := Resolved{Mode: ModeSingle, Operations: Selection{op}}
	return applyChain(dir, plan, filepath.Join(dir, op.DirName()), options)
}

// ApplyAllToDirectory runs the full chain over each raster in dir and
// overwrites it
func ApplyAllToDirectory(dir string, options Options) (Report, error) {
	plan := Resolved{Mode: ModeAll, Operations: Selection(AllOperations)}
	return applyChain(dir, plan, dir, options)
}

func applyChain(dir string, plan Resolved, outDir string, options Options) (Report, error) {
	files, err := scanner.ListImages(dir, imageprocessor.IsRasterFile)
	if err != nil {
		logging.LogError("Preprocessing aborted for %s: %v", dir, err)
		return Report{}, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return Report{}, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	stage := "Preprocessing (" + plan.Operations.DirName() + ")"
	stats := scanner.ProcessFiles(stage, files, func(path string) error {
		return applyFile(path, filepath.Join(outDir, filepath.Base(path)), plan.Operations, options.minArea())
	})

	return Report{
		Mode:       plan.Mode,
		Operations: plan.Operations,
		OutputDir:  outDir,
		Stats:      stats,
	}, nil
}

// applyFile loads src, runs ops in order and writes the result to dst.
// src and dst may be the same file.
func applyFile(src, dst string, ops Selection, minArea float64) error {
	img, err := imageprocessor.LoadImage(src)
	if err != nil {
		return err
	}
	defer func() { img.Close() }()

	for _, op := range ops {
		if err := op.Apply(&img, minArea); err != nil {
			return fmt.Errorf("%s on %s: %w", op, src, err)
		}
	}

	if img.Empty() {
		return errors.New("operation chain produced an empty image")
	}
	if ok := gocv.IMWrite(dst, img); !ok {
		return fmt.Errorf("failed to write %s", dst)
	}
	return nil
}
