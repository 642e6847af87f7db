// Package features computes Hu-moment shape descriptors for images and
// keeps them in an ordered store that can be persisted as flat text.
package features

import (
	"fmt"
	"path/filepath"

	"shapefinder/imageprocessor"
	"shapefinder/logging"
	"shapefinder/scanner"
	"shapefinder/types"

	"gocv.io/x/gocv"
)

// ExtractOne computes one shape descriptor per external contour of img
func ExtractOne(img gocv.Mat) (types.FeatureData, error) {
	binary, err := imageprocessor.Binarize(img, imageprocessor.MidThreshold)
	if err != nil {
		return types.FeatureData{}, err
	}
	defer binary.Close()

	contours := imageprocessor.FindExternalContours(binary)
	defer contours.Close()

	data := types.FeatureData{Shapes: make([]types.ShapeVector, 0, contours.Size())}
	for i := 0; i < contours.Size(); i++ {
		moments := imageprocessor.ContourMoments(contours.At(i))
		data.Append(ShapeVectorFromMoments(moments))
	}
	return data, nil
}

// ExtractFile loads path and extracts its features
func ExtractFile(path string) (types.FeatureData, error) {
	img, err := imageprocessor.LoadImage(path)
	if err != nil {
		return types.FeatureData{}, err
	}
	defer img.Close()

	return ExtractOne(img)
}

// ExtractDirectory rebuilds store from every raster directly inside dir,
// keyed by file stem, then writes dir/feature-extraction/output_features.dat.
// It returns the feature-extraction directory and the batch stats.
// store is only replaced once the snapshot is on disk; on error it keeps
// its previous contents.
func ExtractDirectory(dir string, store *Store) (string, scanner.BatchStats, error) {
	files, err := scanner.ListImages(dir, imageprocessor.IsRasterFile)
	if err != nil {
		return "", scanner.BatchStats{}, err
	}

	fresh := NewStore()
	stats := scanner.ProcessFiles("Feature extraction", files, func(path string) error {
		id := scanner.FileStem(path)
		if !ValidIdentifier(id) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
		if _, exists := fresh.Get(id); exists {
			return fmt.Errorf("identifier %s already extracted from another file", id)
		}

		data, err := ExtractFile(path)
		if err != nil {
			return err
		}

		fresh.Put(id, data)
		logging.DebugLog("Extracted %d shapes from %s", data.NumShapes, path)
		return nil
	})

	outDir := filepath.Join(dir, FeatureDirName)
	if err := SaveFile(filepath.Join(outDir, FeatureFileName), fresh); err != nil {
		return "", stats, err
	}

	*store = *fresh
	return outDir, stats, nil
}
