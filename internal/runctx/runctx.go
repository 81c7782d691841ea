// Package runctx carries the identity of one extraction run through
// context.Context.
package runctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// Run identifies one extraction run in log lines.
type Run struct {
	ID        string
	StartTime time.Time
}

// WithRun returns ctx carrying a new Run.
func WithRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey, &Run{
		ID:        generateID(),
		StartTime: time.Now(),
	})
}

// FromContext returns the Run in ctx, or a placeholder when there is none.
func FromContext(ctx context.Context) *Run {
	if r, ok := ctx.Value(runKey).(*Run); ok {
		return r
	}
	return &Run{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the current global logger tagged with the run ID. It is
// resolved on every call because the logging lifecycle swaps the global
// logger.
func Logger(ctx context.Context) zerolog.Logger {
	return log.Logger.With().Str("run_id", FromContext(ctx).ID).Logger()
}

// Elapsed returns the time since the run started.
func Elapsed(ctx context.Context) time.Duration {
	return time.Since(FromContext(ctx).StartTime)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
