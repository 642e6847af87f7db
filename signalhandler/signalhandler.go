package signalhandler

import (
	"os"
	"os/signal"
	"syscall"

	"shapefinder/logging"
)

// SetupHandler configures signal handling for safer interaction with C libraries.
// On SIGINT or SIGTERM the debug log is flushed and closed before exiting.
func SetupHandler() {
	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 1)

	// Register for specific signals
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Handle signals in a separate goroutine
	go func() {
		sig := <-sigChan
		logging.LogWarning("Received %v, shutting down", sig)
		logging.CloseLogger()
		os.Exit(exitCode(sig))
	}()
}

// exitCode follows the shell convention of 128 plus the signal number
func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
