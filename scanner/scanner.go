// Package scanner walks a working directory and runs a per-image function
// over every matching file, one at a time, counting successes and failures.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"shapefinder/logging"
)

// FileFilter reports whether a path should be part of a batch
type FileFilter func(path string) bool

// ProcessImageResult holds the result of processing an image
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
}

// ErrNotDirectory is returned when a batch root is missing or is a regular file
var ErrNotDirectory = errors.New("not a directory")

// ListImages returns the regular files directly inside dir that pass filter,
// sorted by name. Subdirectories are never descended into, so stage outputs
// written below dir do not feed back into the next run.
func ListImages(dir string, filter FileFilter) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if filter == nil || filter(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ProcessFiles runs fn over paths in order. A failing or panicking file is
// logged and counted, and the batch moves on to the next one.
func ProcessFiles(stage string, paths []string, fn func(path string) error) BatchStats {
	stats := BatchStats{Stage: stage, Total: len(paths)}
	startTime := time.Now()

	logging.DebugLog("Starting %s on %d files", stage, len(paths))

	for _, path := range paths {
		stats.Record(processOne(path, fn))
	}

	stats.Elapsed = time.Since(startTime)
	logging.DebugLog("%s completed in %v. Processed: %d, Errors: %d",
		stage, stats.Elapsed, stats.Processed, stats.Errors)
	return stats
}

// processOne shields the batch from panics raised inside the C bindings
func processOne(path string, fn func(path string) error) (result ProcessImageResult) {
	result.Path = path

	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic while processing %s: %v\nStack trace: %s", path, r, string(debug.Stack()))
			result.Success = false
			result.Error = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()

	if err := fn(path); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}

// FileStem returns the file name without directory and extension
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
