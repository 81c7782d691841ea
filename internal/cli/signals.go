// internal/cli/signals.go
package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/law-makers/extract/internal/fatal"
)

// WatchSignals turns SIGINT and SIGTERM into a fatal runtime error. There is
// no graceful cancellation. The report goes through a stderr logger built
// here, since the global logger is swapped while logging is active.
func WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()
	go reportSignal(sigCh, logger)
}

func reportSignal(sigCh <-chan os.Signal, logger zerolog.Logger) {
	sig, ok := <-sigCh
	if !ok {
		return
	}
	fatal.Report(logger, fatal.Runtime(errors.New(sig.String()), "Interrupt received, aborting extraction"))
}
