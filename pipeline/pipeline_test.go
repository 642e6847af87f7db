package pipeline

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"shapefinder/database"
	"shapefinder/features"
	"shapefinder/imageprocessor"
	"shapefinder/preprocess"
	"shapefinder/types"

	"gocv.io/x/gocv"
)

func writeShape(t *testing.T, path string, r image.Rectangle) {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 160, 160, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, r, color.RGBA{R: 255, G: 255, B: 255}, -1)
	if !gocv.IMWrite(path, img) {
		t.Fatalf("failed to write %s", path)
	}
}

func TestPreconditionsLeaveStateUntouched(t *testing.T) {
	session := NewSession(Options{})
	session.Store.Put("kept", types.FeatureData{})

	if _, err := session.Preprocess(preprocess.Selection{preprocess.NoiseRemoval}); !errors.Is(err, ErrNotNormalized) {
		t.Errorf("Preprocess() error = %v, want ErrNotNormalized", err)
	}
	if _, err := session.Extract(""); !errors.Is(err, ErrNotNormalized) {
		t.Errorf("Extract() error = %v, want ErrNotNormalized", err)
	}
	if _, err := session.Retrieve("kept", 1); !errors.Is(err, ErrNotExtracted) {
		t.Errorf("Retrieve() error = %v, want ErrNotExtracted", err)
	}

	if session.State != (State{}) {
		t.Errorf("State changed: %+v", session.State)
	}
	if _, ok := session.Store.Get("kept"); !ok || session.Store.Len() != 1 {
		t.Error("store changed by a refused stage")
	}
}

func TestNormalizeFailureKeepsState(t *testing.T) {
	session := NewSession(Options{})
	session.State.PreprocessingDir = "/previous"

	_, err := session.Normalize(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, imageprocessor.ErrDirectoryNotFound) {
		t.Fatalf("Normalize() error = %v", err)
	}
	if session.State.PreprocessingDir != "/previous" {
		t.Errorf("PreprocessingDir = %s", session.State.PreprocessingDir)
	}
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeShape(t, filepath.Join(dir, "A.jpg"), image.Rect(20, 20, 120, 120))
	writeShape(t, filepath.Join(dir, "B.jpg"), image.Rect(40, 30, 140, 80))
	writeShape(t, filepath.Join(dir, "C.jpg"), image.Rect(60, 10, 90, 150))

	db, err := database.InitDatabase(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	session := NewSession(Options{DB: db})

	// No GIFs: the working directory is still recorded
	result, err := session.Normalize(dir)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if result.Stats.Total != 0 {
		t.Errorf("converted %d files, want 0", result.Stats.Total)
	}
	if session.State.PreprocessingDir != filepath.Join(dir, imageprocessor.PreprocessingDirName) {
		t.Errorf("PreprocessingDir = %s", session.State.PreprocessingDir)
	}

	stats, err := session.Extract(dir)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if stats.Processed != 3 {
		t.Errorf("extracted %d images, want 3", stats.Processed)
	}
	if session.State.FeatureExtractionDir != filepath.Join(dir, features.FeatureDirName) {
		t.Errorf("FeatureExtractionDir = %s", session.State.FeatureExtractionDir)
	}
	if _, err := os.Stat(filepath.Join(dir, features.FeatureDirName, features.FeatureFileName)); err != nil {
		t.Errorf("feature file missing: %v", err)
	}

	matches, err := session.Retrieve("A", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != "A" || matches[0].Distance != 0 {
		t.Errorf("first match = %+v, want A at 0", matches[0])
	}

	mirrored, err := database.LoadFeatures(db, dir)
	if err != nil {
		t.Fatalf("LoadFeatures() error = %v", err)
	}
	if mirrored.Len() != 3 {
		t.Errorf("database holds %d images, want 3", mirrored.Len())
	}
}

func TestFullPipelineOverPreprocessingDir(t *testing.T) {
	dir := t.TempDir()
	writeShape(t, filepath.Join(dir, "A.png"), image.Rect(20, 20, 120, 120))
	writeShape(t, filepath.Join(dir, "B.png"), image.Rect(30, 30, 90, 130))

	session := NewSession(Options{
		Convert: imageprocessor.ConvertOptions{IncludeRasters: true},
	})

	if _, err := session.Normalize(dir); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	report, err := session.Preprocess(preprocess.Selection(preprocess.AllOperations))
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	if report.OutputDir != session.State.PreprocessingDir {
		t.Errorf("all mode wrote to %s, want %s", report.OutputDir, session.State.PreprocessingDir)
	}

	// Extraction defaults to the pre-processing directory
	if _, err := session.Extract(""); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if session.Store.Len() != 2 {
		t.Errorf("store holds %d images, want 2", session.Store.Len())
	}

	matches, err := session.Retrieve("B", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "B" || matches[0].Distance != 0 {
		t.Errorf("matches = %+v", matches)
	}

	if _, err := session.Retrieve("nope", 1); err == nil {
		t.Error("unknown query should fail")
	}
}

func TestFailedExtractionKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeShape(t, filepath.Join(dir, "A.jpg"), image.Rect(20, 20, 120, 120))
	writeShape(t, filepath.Join(dir, "B.jpg"), image.Rect(40, 30, 140, 80))

	session := NewSession(Options{})
	if _, err := session.Normalize(dir); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if _, err := session.Extract(dir); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	before := session.State

	if _, err := session.Extract(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("Extract() of a missing directory should fail")
	}

	if session.State != before {
		t.Errorf("State = %+v, want %+v", session.State, before)
	}
	if session.Store.Len() != 2 {
		t.Errorf("store holds %d images, want 2", session.Store.Len())
	}

	matches, err := session.Retrieve("A", 2)
	if err != nil {
		t.Fatalf("Retrieve() after a failed extraction error = %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "A" || matches[0].Distance != 0 {
		t.Errorf("matches = %+v", matches)
	}
}
