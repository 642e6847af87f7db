package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shapefinder/preprocess"
	"shapefinder/retrieval"
)

// Commands lists the sub-commands the CLI understands
var Commands = []string{"normalize", "preprocess", "extract", "search", "run", "inspect"}

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	return ParseArgumentList(os.Args[1:])
}

// ParseArgumentList does the work of ParseArguments on an explicit list
func ParseArgumentList(argv []string) map[string]string {
	args := make(map[string]string)

	// First, identify the command
	commandIndex := -1
	for i, arg := range argv {
		if isCommand(arg) {
			args["command"] = arg
			commandIndex = i
			break
		}
	}

	// Process all arguments, skipping the command
	for i := 0; i < len(argv); i++ {
		if i == commandIndex {
			continue
		}

		arg := argv[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") || i+1 == commandIndex {
				args[flagName] = "true"
			} else {
				// The next argument is the value
				args[flagName] = argv[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

func isCommand(arg string) bool {
	for _, c := range Commands {
		if arg == c {
			return true
		}
	}
	return false
}

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "features.db"
	}

	return filepath.Join(filepath.Dir(exePath), "features.db")
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s normalize --folder=PATH [--formats=.gif,.tif] [--include-rasters] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s preprocess --folder=PATH --ops=noise,holes,equalize,area [--min-area=300] [--allow-composition]\n", os.Args[0])
	fmt.Printf("  %s extract --folder=PATH [--database=PATH]\n", os.Args[0])
	fmt.Printf("  %s search --query=ID (--features=FILE | --database=PATH --folder=PATH) [--top=5] [--pairing=literal]\n", os.Args[0])
	fmt.Printf("  %s run --folder=PATH --query=ID [--ops=...] [--top=5] [--database=PATH]\n", os.Args[0])
	fmt.Printf("  %s inspect --image=PATH [--overlay=OUT.png]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --folder            : Working directory holding the images\n")
	fmt.Printf("  --formats           : Legacy extensions to convert (default: .gif)\n")
	fmt.Printf("  --include-rasters   : Also copy jpg/png/bmp files into pre-processing as grayscale\n")
	fmt.Printf("  --ops               : Preprocessing operations, one or all of noise,holes,equalize,area\n")
	fmt.Printf("  --min-area          : Contours smaller than this are erased (default: %g)\n", preprocess.DefaultMinContourArea)
	fmt.Printf("  --allow-composition : Allow two or three operations, written to a combined directory\n")
	fmt.Printf("  --features          : Path to an output_features.dat file\n")
	fmt.Printf("  --database          : Path to database file (default: %s)\n", GetDefaultDatabasePath())
	fmt.Printf("  --query             : Identifier (file name without extension) of the query image\n")
	fmt.Printf("  --top               : Number of results (default: %d)\n", retrieval.DefaultTopK)
	fmt.Printf("  --pairing           : Distance aggregation, literal or positional (default: literal)\n")
	fmt.Printf("  --image             : Image to inspect\n")
	fmt.Printf("  --overlay           : Write a contour overlay of the inspected image\n")
	fmt.Printf("  --debug             : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile           : Specify custom log file path (default: shapefinder.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s run --folder=/path/to/shapes --ops=noise,holes,equalize,area --query=apple-1 --top=10\n", os.Args[0])
	fmt.Printf("  %s search --features=/path/to/shapes/pre-processing/feature-extraction/output_features.dat --query=apple-1\n", os.Args[0])
}

// ParseTopK parses the number of results to return
func ParseTopK(topStr string) (int, error) {
	k, err := strconv.Atoi(strings.TrimSpace(topStr))
	if err != nil || k < 0 {
		return retrieval.DefaultTopK, fmt.Errorf("Invalid result count '%s', using default (%d)", topStr, retrieval.DefaultTopK)
	}
	return k, nil
}

// ParseMinArea parses the contour area cutoff
func ParseMinArea(areaStr string) (float64, error) {
	area, err := strconv.ParseFloat(strings.TrimSpace(areaStr), 64)
	if err != nil || area <= 0 {
		return preprocess.DefaultMinContourArea, fmt.Errorf("Invalid minimum area '%s', using default (%g)",
			areaStr, preprocess.DefaultMinContourArea)
	}
	return area, nil
}

// ParseOperations parses a comma separated operation list. "all" selects
// every operation.
func ParseOperations(opsStr string) (preprocess.Selection, error) {
	var sel preprocess.Selection
	for _, name := range strings.Split(opsStr, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			sel = append(sel, preprocess.AllOperations...)
			continue
		}
		op, err := preprocess.ParseOperation(name)
		if err != nil {
			return nil, err
		}
		sel = append(sel, op)
	}
	return sel, nil
}

// ParseExtensions parses a comma separated extension list, adding the
// leading dot where missing
func ParseExtensions(extStr string) []string {
	var exts []string
	for _, ext := range strings.Split(extStr, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}
