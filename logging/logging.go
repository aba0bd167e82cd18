// Package logging provides the structured logger shared by every component
// of the context and streaming core, grounded on intelligencedev-manifold's
// use of github.com/rs/zerolog for component-scoped structured logs.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Component names used as the "component" field across the core.
const (
	ComponentCache   = "cache"
	ComponentPersist = "persist"
	ComponentStream  = "stream"
	ComponentSpine   = "spine"
	ComponentTool    = "tool"
	ComponentState   = "state"
	ComponentCleaner = "cleaner"
)

// New builds a zerolog.Logger writing human-readable console output to w
// (or os.Stderr if w is nil), tagged with the given component.
func New(w io.Writer, component string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).With().
		Timestamp().
		Str("component", component).
		Logger()
}

// Nop returns a logger that discards all output, used in tests that don't
// care about log assertions.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithPanel returns a child logger scoped to a panel local ID.
func WithPanel(l zerolog.Logger, localID string) zerolog.Logger {
	return l.With().Str("panel", localID).Logger()
}

// WithStream returns a child logger scoped to a stream ID.
func WithStream(l zerolog.Logger, streamID string) zerolog.Logger {
	return l.With().Str("stream_id", streamID).Logger()
}
