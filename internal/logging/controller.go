// Package logging owns the process log output and its asynchronous
// activate/deactivate protocol.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/extract/internal/lifecycle"
)

// Config selects where and how log lines are written. It is passed down
// explicitly; there is no package-level default.
type Config struct {
	// Path of the log file. Empty means stderr.
	Path  string
	Level string
	JSON  bool

	// Stderr is the fallback writer. Nil means os.Stderr.
	Stderr io.Writer
}

// Controller implements lifecycle.Facility on top of zerolog.
//
// Activating with no Path completes inline. Activating with a Path opens the
// file on a separate goroutine and completes later. Deactivation mirrors
// this: closing a file is deferred, detaching from stderr is inline.
type Controller struct {
	cfg Config

	mu       sync.Mutex
	file     *os.File
	previous *zerolog.Logger
	active   bool
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Controller{cfg: cfg}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Activate installs the configured logger as zerolog's global logger.
func (c *Controller) Activate() *lifecycle.Completion {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return lifecycle.Completed(fmt.Errorf("logging already active"))
	}
	c.mu.Unlock()

	if c.cfg.Path == "" {
		c.install(c.cfg.Stderr, nil)
		return lifecycle.Completed(nil)
	}

	done := lifecycle.NewCompletion()
	go func() {
		f, err := os.OpenFile(c.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			done.Complete(fmt.Errorf("failed to open log file: %w", err))
			return
		}
		c.install(f, f)
		done.Complete(nil)
	}()
	return done
}

func (c *Controller) install(w io.Writer, f *os.File) {
	var out io.Writer = w
	if !c.cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    f != nil,
		}
	}
	logger := zerolog.New(out).
		Level(ParseLevel(c.cfg.Level)).
		With().
		Timestamp().
		Logger()

	c.mu.Lock()
	prev := log.Logger
	c.previous = &prev
	c.file = f
	c.active = true
	log.Logger = logger
	c.mu.Unlock()

	logger.Debug().
		Str("path", c.cfg.Path).
		Str("level", c.cfg.Level).
		Bool("json", c.cfg.JSON).
		Msg("Logger activated")
}

// Deactivate restores the logger that was in place before Activate and
// closes the log file, if any.
func (c *Controller) Deactivate() *lifecycle.Completion {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return lifecycle.Completed(fmt.Errorf("logging not active"))
	}
	log.Debug().Msg("Logger deactivating")
	f := c.file
	if c.previous != nil {
		log.Logger = *c.previous
	}
	c.previous = nil
	c.file = nil
	c.active = false
	c.mu.Unlock()

	if f == nil {
		return lifecycle.Completed(nil)
	}

	done := lifecycle.NewCompletion()
	go func() {
		if err := f.Sync(); err != nil {
			f.Close()
			done.Complete(fmt.Errorf("failed to flush log file: %w", err))
			return
		}
		if err := f.Close(); err != nil {
			done.Complete(fmt.Errorf("failed to close log file: %w", err))
			return
		}
		done.Complete(nil)
	}()
	return done
}

// Active reports whether the controller's logger is installed.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
