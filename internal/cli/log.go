// Package cli implements the lovecontract command-line interface.
//
// # Commands
//
//   - serve: run the HTTP API with browser signing sessions
//   - show: print who has signed and whether the proposal was accepted
//   - sign: sign a slot from a strokes file or an image
//   - clear: wipe a slot
//   - accept: accept the proposal
//   - export: write the printable contract as PNG
//   - open: interactive terminal session
//   - config: inspect the effective configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging; otherwise the
// configured log.level applies. The logger is a field of [CLI] and handed to
// the session coordinator and HTTP server.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered contract (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
