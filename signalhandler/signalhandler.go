package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"imageprep/logging"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM.
// The walk stops before the next file, so a file being rewritten is
// always finished. A second signal exits immediately.
func SetupHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %v, stopping after the current file", sig)
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}

		// Clean shutdown already requested; a second signal forces it
		<-sigChan
		os.Exit(1)
	}()

	return ctx, cancel
}
