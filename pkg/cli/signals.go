package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ShutdownSignals are the signals that trigger a graceful shutdown.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context that is cancelled on SIGINT or
// SIGTERM. A second signal exits the process immediately. Call stop to
// release the signal handler.
func SetupSignalHandler(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	stopped := make(chan struct{})

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, ShutdownSignals...)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-stopped:
			return
		}
		select {
		case <-sigChan:
			os.Exit(1)
		case <-stopped:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(stopped)
			cancel()
		})
	}
}
