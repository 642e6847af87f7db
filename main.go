package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"shapefinder/database"
	"shapefinder/features"
	"shapefinder/imageprocessor"
	"shapefinder/logging"
	"shapefinder/pipeline"
	"shapefinder/preprocess"
	"shapefinder/retrieval"
	"shapefinder/scanner"
	"shapefinder/signalhandler"
	"shapefinder/types"
	"shapefinder/utils"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	// Parse command line arguments into a map
	args := utils.ParseArguments()

	command, hasCommand := args["command"]

	// Set default database path
	dbPath := utils.GetDefaultDatabasePath()
	if customDB, ok := args["database"]; ok && customDB != "" {
		dbPath = customDB
	} else if customDB, ok := args["db"]; ok && customDB != "" {
		// Allow --db as an alias for --database
		dbPath = customDB
	}

	// Setup debug logging if enabled
	debugMode := false
	if _, ok := args["debug"]; ok {
		debugMode = true
		logPath := "shapefinder.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
	}
	defer logging.CloseLogger()

	// Check if required arguments are missing
	showUsage := !hasCommand
	switch command {
	case "normalize", "preprocess", "extract", "run":
		showUsage = showUsage || args["folder"] == ""
	case "search":
		showUsage = showUsage || args["query"] == ""
	case "inspect":
		showUsage = showUsage || args["image"] == ""
	}

	if command == "run" && args["query"] == "" {
		showUsage = true
	}

	// Show usage if required arguments are missing
	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	var err error
	switch command {
	case "normalize":
		err = handleNormalizeCommand(args, debugMode)
	case "preprocess":
		err = handlePreprocessCommand(args, debugMode)
	case "extract":
		err = handleExtractCommand(args, dbPath, debugMode)
	case "search":
		err = handleSearchCommand(args, dbPath, debugMode)
	case "run":
		err = handleRunCommand(args, dbPath, debugMode)
	case "inspect":
		err = handleInspectCommand(args)
	}

	if err != nil {
		logging.CloseLogger()
		log.Fatalf("Error: %v", err)
	}
}

func convertOptions(args map[string]string, debugMode bool) imageprocessor.ConvertOptions {
	opts := imageprocessor.ConvertOptions{DebugMode: debugMode}
	if formats, ok := args["formats"]; ok {
		opts.LegacyFormats = utils.ParseExtensions(formats)
	}
	if _, ok := args["include-rasters"]; ok {
		opts.IncludeRasters = true
	}
	return opts
}

func preprocessOptions(args map[string]string, debugMode bool) preprocess.Options {
	opts := preprocess.Options{
		MinContourArea: preprocess.DefaultMinContourArea,
		DebugMode:      debugMode,
	}
	if areaStr, ok := args["min-area"]; ok {
		area, err := utils.ParseMinArea(areaStr)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		opts.MinContourArea = area
	}
	if _, ok := args["allow-composition"]; ok {
		opts.AllowComposition = true
	}
	return opts
}

func retrievalOptions(args map[string]string, debugMode bool) (retrieval.Options, int, error) {
	opts := retrieval.Options{DebugMode: debugMode}

	pairing, err := retrieval.ParsePairing(args["pairing"])
	if err != nil {
		return opts, 0, err
	}
	opts.Pairing = pairing

	topK := retrieval.DefaultTopK
	if topStr, ok := args["top"]; ok {
		k, err := utils.ParseTopK(topStr)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		topK = k
	}
	return opts, topK, nil
}

func handleNormalizeCommand(args map[string]string, debugMode bool) error {
	session := pipeline.NewSession(pipeline.Options{
		Convert:   convertOptions(args, debugMode),
		DebugMode: debugMode,
	})

	result, err := session.Normalize(args["folder"])
	if err != nil {
		return err
	}

	scanner.PrintCompletionStats(os.Stdout, result.Stats)
	fmt.Printf("Pre-processing directory: %s\n", session.State.PreprocessingDir)
	return nil
}

// handlePreprocessCommand works on the folder given, which is normally the
// pre-processing directory written by normalize
func handlePreprocessCommand(args map[string]string, debugMode bool) error {
	sel, err := utils.ParseOperations(args["ops"])
	if err != nil {
		return err
	}

	report, err := preprocess.Run(args["folder"], sel, preprocessOptions(args, debugMode))
	if errors.Is(err, preprocess.ErrNothingSelected) || errors.Is(err, preprocess.ErrAmbiguousSelection) {
		fmt.Printf("Warning: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	printPreprocessReport(report)
	return nil
}

func handleExtractCommand(args map[string]string, dbPath string, debugMode bool) error {
	db, err := openMirror(args, dbPath)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	session := pipeline.NewSession(pipeline.Options{DB: db, DebugMode: debugMode})
	stats, err := session.Extract(args["folder"])
	if err != nil {
		return err
	}

	scanner.PrintCompletionStats(os.Stdout, stats)
	fmt.Printf("Features written to: %s\n", filepath.Join(session.State.FeatureExtractionDir, features.FeatureFileName))
	if db != nil {
		printStoreStats(db, args["folder"])
	}
	return nil
}

func handleSearchCommand(args map[string]string, dbPath string, debugMode bool) error {
	opts, topK, err := retrievalOptions(args, debugMode)
	if err != nil {
		return err
	}

	var store *features.Store
	if featurePath, ok := args["features"]; ok && featurePath != "" {
		store, err = features.LoadFile(featurePath)
		if err != nil {
			return err
		}
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database does not exist: %s. Run extract with --database first", dbPath)
		}
		db, err := database.OpenDatabase(dbPath)
		if err != nil {
			return fmt.Errorf("error opening database: %w", err)
		}
		defer db.Close()

		sourceDir, err := database.ResolveSource(db, args["folder"])
		if err != nil {
			return err
		}
		fmt.Printf("Searching features recorded for: %s\n", sourceDir)

		store, err = database.LoadFeatures(db, sourceDir)
		if err != nil {
			return err
		}
	}

	startTime := time.Now()
	matches, err := retrieval.Retrieve(store, args["query"], topK, opts)
	if err != nil {
		return err
	}

	printMatches(matches)
	fmt.Printf("\nTotal search time: %v\n", time.Since(startTime))
	return nil
}

// handleRunCommand drives every stage in one process
func handleRunCommand(args map[string]string, dbPath string, debugMode bool) error {
	retrievalOpts, topK, err := retrievalOptions(args, debugMode)
	if err != nil {
		return err
	}

	db, err := openMirror(args, dbPath)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	session := pipeline.NewSession(pipeline.Options{
		Convert:    convertOptions(args, debugMode),
		Preprocess: preprocessOptions(args, debugMode),
		Retrieval:  retrievalOpts,
		DB:         db,
		DebugMode:  debugMode,
	})

	startTime := time.Now()

	result, err := session.Normalize(args["folder"])
	if err != nil {
		return err
	}
	scanner.PrintCompletionStats(os.Stdout, result.Stats)

	totals := scanner.BatchStats{Stage: "Pipeline"}
	totals.Merge(result.Stats)

	extractDir := ""
	if opsStr, ok := args["ops"]; ok {
		sel, err := utils.ParseOperations(opsStr)
		if err != nil {
			return err
		}

		report, err := session.Preprocess(sel)
		switch {
		case errors.Is(err, preprocess.ErrNothingSelected), errors.Is(err, preprocess.ErrAmbiguousSelection):
			fmt.Printf("Warning: %v\n", err)
		case err != nil:
			return err
		default:
			printPreprocessReport(report)
			totals.Merge(report.Stats)
			extractDir = report.OutputDir
		}
	}

	stats, err := session.Extract(extractDir)
	if err != nil {
		return err
	}
	scanner.PrintCompletionStats(os.Stdout, stats)
	totals.Merge(stats)

	matches, err := session.Retrieve(args["query"], topK)
	if err != nil {
		return err
	}

	printMatches(matches)
	fmt.Printf("\nAll stages: %d files handled, %d errors\n", totals.Total, totals.Errors)
	fmt.Printf("Total execution time: %v\n", time.Since(startTime))
	return nil
}

func handleInspectCommand(args map[string]string) error {
	imagePath := args["image"]

	details, err := imageprocessor.GetImageDetails(imagePath)
	if err != nil {
		return err
	}

	metadata, err := imageprocessor.ReadMetadata(imagePath)
	if err != nil {
		logging.LogWarning("Metadata unavailable for %s: %v", imagePath, err)
	} else {
		details.Metadata = metadata
	}

	printImageDetails(details)

	data, err := features.ExtractFile(imagePath)
	if err != nil {
		return err
	}
	fmt.Printf("Shapes:   %d\n", data.NumShapes)
	for i, shape := range data.Shapes {
		fmt.Printf("  %d:", i+1)
		for _, v := range shape {
			fmt.Printf(" %s", features.FormatMoment(v))
		}
		fmt.Println()
	}

	if overlayPath, ok := args["overlay"]; ok && overlayPath != "" {
		count, err := imageprocessor.RenderContourOverlay(imagePath, overlayPath, imageprocessor.OverlaySize)
		if err != nil {
			return err
		}
		fmt.Printf("Overlay with %d contours written to: %s\n", count, overlayPath)
	}
	return nil
}

// openMirror opens the sqlite mirror when --database or --db was given
func openMirror(args map[string]string, dbPath string) (*sql.DB, error) {
	if args["database"] == "" && args["db"] == "" {
		return nil, nil
	}

	db, err := database.InitDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database %s: %w", dbPath, err)
	}
	return db, nil
}

func printPreprocessReport(report preprocess.Report) {
	scanner.PrintCompletionStats(os.Stdout, report.Stats)
	fmt.Printf("Mode: %s, output directory: %s\n", report.Mode, report.OutputDir)
}

func printStoreStats(db *sql.DB, sourceDir string) {
	stats, err := database.GetStoreStats(db, sourceDir)
	if err != nil || stats == nil {
		return
	}
	fmt.Printf("\nSummary:\n")
	fmt.Printf("- Images stored: %d\n", stats.TotalImages)
	fmt.Printf("- Shapes stored: %d\n", stats.TotalShapes)
	fmt.Printf("- Images without shapes: %d\n", stats.EmptyImages)
}

func printMatches(matches []types.Match) {
	fmt.Println("\nTop Matches:")
	if len(matches) == 0 {
		fmt.Println("No matches found.")
		return
	}
	for i, m := range matches {
		fmt.Printf("%d. %s  distance: %s\n", i+1, m.ID, features.FormatMoment(m.Distance))
	}
}

func printImageDetails(details types.ImageDetails) {
	fmt.Printf("Image:    %s\n", details.Path)
	fmt.Printf("Type:     %s\n", details.Type)
	fmt.Printf("Size:     %dx%d\n", details.Width, details.Height)

	if len(details.Metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(details.Metadata))
	for k := range details.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("Metadata:")
	for _, k := range keys {
		fmt.Printf("  %-16s %s\n", k, details.Metadata[k])
	}
}
