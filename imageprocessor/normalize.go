package imageprocessor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shapefinder/logging"
	"shapefinder/scanner"

	"gocv.io/x/gocv"
)

// PreprocessingDirName is the subdirectory the normalizer writes into
const PreprocessingDirName = "pre-processing"

// ErrDirectoryNotFound is returned when the normalizer root is unusable
var ErrDirectoryNotFound = errors.New("directory not found")

// ConvertOptions controls which files the normalizer picks up
type ConvertOptions struct {
	// LegacyFormats lists the extensions to convert. Empty means DefaultLegacyFormats.
	LegacyFormats []string
	// IncludeRasters also copies files that are already rasters, as grayscale
	IncludeRasters bool
	DebugMode      bool
}

// ConvertResult summarizes one normalization run
type ConvertResult struct {
	OutputDir string
	Stats     scanner.BatchStats
}

// ConvertLegacyImage decodes path, flattens it to gray and writes
// <outDir>/<stem>.jpg
func ConvertLegacyImage(path string, outDir string) error {
	img, err := LoadImage(path)
	if err != nil {
		return err
	}
	defer img.Close()

	gray, err := ToGray(img)
	if err != nil {
		return err
	}
	defer gray.Close()

	outPath := filepath.Join(outDir, scanner.FileStem(path)+CanonicalExtension)
	if ok := gocv.IMWrite(outPath, gray); !ok {
		return fmt.Errorf("failed to write %s", outPath)
	}

	logging.DebugLog("Converted %s -> %s", path, outPath)
	return nil
}

// ConvertDirectory converts every legacy image directly inside dir into
// dir/pre-processing. Per-file failures and stem collisions are skipped;
// only an unusable root directory aborts the stage.
func ConvertDirectory(dir string, options ConvertOptions) (ConvertResult, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logging.LogError("Normalization aborted, directory unusable: %s", dir)
		return ConvertResult{}, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	outDir := filepath.Join(dir, PreprocessingDirName)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return ConvertResult{}, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	formats := options.LegacyFormats
	if len(formats) == 0 {
		formats = DefaultLegacyFormats
	}

	files, err := scanner.ListImages(dir, func(path string) bool {
		if HasExtension(path, formats) {
			return true
		}
		return options.IncludeRasters && IsRasterFile(path)
	})
	if err != nil {
		return ConvertResult{}, fmt.Errorf("%w: %v", ErrDirectoryNotFound, err)
	}

	if options.DebugMode {
		logging.DebugLog("Normalizing %d files from %s into %s", len(files), dir, outDir)
	}

	// Every output is <stem>.jpg, so the first file of a stem wins
	written := make(map[string]string)
	stats := scanner.ProcessFiles("Normalization", files, func(path string) error {
		stem := scanner.FileStem(path)
		if first, exists := written[stem]; exists {
			return fmt.Errorf("%s would overwrite the output of %s", path, first)
		}
		if err := ConvertLegacyImage(path, outDir); err != nil {
			return err
		}
		written[stem] = path
		return nil
	})

	return ConvertResult{OutputDir: outDir, Stats: stats}, nil
}
