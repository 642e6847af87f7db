// Package pipeline threads the working directories and the feature store
// between the normalize, preprocess, extract and retrieve stages.
package pipeline

import (
	"database/sql"
	"errors"
	"fmt"

	"shapefinder/database"
	"shapefinder/features"
	"shapefinder/imageprocessor"
	"shapefinder/logging"
	"shapefinder/preprocess"
	"shapefinder/retrieval"
	"shapefinder/scanner"
	"shapefinder/types"
)

var (
	// ErrNotNormalized is returned when a stage needs the pre-processing directory
	ErrNotNormalized = errors.New("please apply pre-processing first")
	// ErrNotExtracted is returned when retrieval runs before extraction
	ErrNotExtracted = errors.New("please apply feature extraction first")
)

// State is the hand-off between stages. Empty fields mean the stage has
// not run yet.
type State struct {
	PreprocessingDir     string
	FeatureExtractionDir string
}

// Options configures a session
type Options struct {
	Convert    imageprocessor.ConvertOptions
	Preprocess preprocess.Options
	Retrieval  retrieval.Options
	// DB mirrors the feature store after each extraction when set
	DB        *sql.DB
	DebugMode bool
}

// Session owns the pipeline state and the feature store. It is not safe
// for concurrent use; stages run one at a time.
type Session struct {
	State   State
	Store   *features.Store
	Options Options
}

// NewSession creates a session with an empty store
func NewSession(options Options) *Session {
	return &Session{
		Store:   features.NewStore(),
		Options: options,
	}
}

// Normalize converts the legacy images in dir and records dir/pre-processing
// as the working directory
func (s *Session) Normalize(dir string) (imageprocessor.ConvertResult, error) {
	opts := s.Options.Convert
	opts.DebugMode = opts.DebugMode || s.Options.DebugMode

	result, err := imageprocessor.ConvertDirectory(dir, opts)
	if err != nil {
		return result, err
	}

	s.State.PreprocessingDir = result.OutputDir
	logging.LogInfo("Pre-processing directory set to %s", result.OutputDir)
	return result, nil
}

// Preprocess applies sel to the pre-processing directory
func (s *Session) Preprocess(sel preprocess.Selection) (preprocess.Report, error) {
	if s.State.PreprocessingDir == "" {
		logging.LogWarning("Preprocessing refused: %v", ErrNotNormalized)
		return preprocess.Report{}, ErrNotNormalized
	}

	opts := s.Options.Preprocess
	opts.DebugMode = opts.DebugMode || s.Options.DebugMode
	return preprocess.Run(s.State.PreprocessingDir, sel, opts)
}

// Extract rebuilds the store from dir, or from the pre-processing
// directory when dir is empty, and records the feature-extraction directory
func (s *Session) Extract(dir string) (scanner.BatchStats, error) {
	if dir == "" {
		if s.State.PreprocessingDir == "" {
			logging.LogWarning("Feature extraction refused: %v", ErrNotNormalized)
			return scanner.BatchStats{}, ErrNotNormalized
		}
		dir = s.State.PreprocessingDir
	}

	outDir, stats, err := features.ExtractDirectory(dir, s.Store)
	if err != nil {
		return stats, fmt.Errorf("feature extraction failed for %s: %w", dir, err)
	}
	s.State.FeatureExtractionDir = outDir
	logging.LogInfo("Feature extraction directory set to %s", outDir)

	if s.Options.DB != nil {
		if err := database.StoreFeatures(s.Options.DB, dir, s.Store); err != nil {
			logging.LogError("Failed to mirror features to database: %v", err)
		}
	}

	return stats, nil
}

// Retrieve ranks the store against queryID
func (s *Session) Retrieve(queryID string, k int) ([]types.Match, error) {
	if s.State.FeatureExtractionDir == "" {
		logging.LogWarning("Retrieval refused: %v", ErrNotExtracted)
		return nil, ErrNotExtracted
	}

	opts := s.Options.Retrieval
	opts.DebugMode = opts.DebugMode || s.Options.DebugMode
	return retrieval.Retrieve(s.Store, queryID, k, opts)
}
