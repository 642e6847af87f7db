package scanner

import (
	"fmt"
	"io"
	"time"

	"shapefinder/logging"
)

// BatchStats tracks the outcome of one directory batch
type BatchStats struct {
	Stage     string
	Total     int
	Processed int
	Errors    int
	Elapsed   time.Duration
}

// Record updates the stats with one result and logs it
func (s *BatchStats) Record(result ProcessImageResult) {
	if !result.Success {
		s.Errors++
		errMsg := "unknown error"
		if result.Error != nil {
			errMsg = result.Error.Error()
		}
		logging.LogImageProcessed(result.Path, false, errMsg)
		logging.LogWarning("Skipping %s: %s", result.Path, errMsg)
		return
	}

	s.Processed++
	logging.LogImageProcessed(result.Path, true, "")
}

// Merge folds another batch into s, keeping s's stage name
func (s *BatchStats) Merge(other BatchStats) {
	s.Total += other.Total
	s.Processed += other.Processed
	s.Errors += other.Errors
	s.Elapsed += other.Elapsed
}

// PrintCompletionStats displays statistics after a batch completes
func PrintCompletionStats(w io.Writer, stats BatchStats) {
	fmt.Fprintf(w, "%s complete.\n", stats.Stage)
	fmt.Fprintf(w, "Processed %d/%d images in %v.\n", stats.Processed, stats.Total, stats.Elapsed.Round(time.Millisecond))

	if stats.Errors > 0 {
		fmt.Fprintf(w, "Encountered %d errors.\n", stats.Errors)
		fmt.Fprintln(w, "Check the log file for details.")
	}
}
