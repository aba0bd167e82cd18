// Package coreerr defines the error taxonomy shared across the context and
// streaming core: sentinel errors per §7 of SPEC_FULL.md plus a contextual
// wrapper for attaching panel/stream identity to a failure.
package coreerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers should compare with errors.Is, not equality.
// No package in this module returns or wraps these sentinels; each one
// names the failure condition described on it, and the components that
// meet those conditions report them with their own errors or log lines.
var (
	// ErrInvalidConfig names a component constructed with an invalid
	// Config.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPanelNotFound names a tool or cache request that references a
	// panel local ID or UID that does not exist.
	ErrPanelNotFound = errors.New("panel not found")

	// ErrUnknownPanelType names a panel whose type tag has no registered
	// vtable entry.
	ErrUnknownPanelType = errors.New("unknown panel type")

	// ErrCacheInFlight names a second refresh submitted for a panel that
	// already has one outstanding (violates §4.2's
	// single-outstanding-request invariant).
	ErrCacheInFlight = errors.New("cache refresh already in flight")

	// ErrWaitTimeout names the wait-for-loaded protocol (§4.2.4) reaching
	// its hard timeout with panels still dirty; Orchestrator.waitForPanels
	// logs that case and proceeds without returning an error.
	ErrWaitTimeout = errors.New("timed out waiting for panels to load")

	// ErrToolNotFound names a tool call that references an unregistered
	// tool name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolExecutionFailed names a tool's Execute failure.
	ErrToolExecutionFailed = errors.New("tool execution failed")

	// ErrStreamRetriesExhausted names a stream that has failed on its
	// first attempt and on every one of its MaxAPIRetries retries.
	ErrStreamRetriesExhausted = errors.New("stream retries exhausted")

	// ErrGuardRailBlocked is a non-error control signal: a guard rail
	// vetoed an otherwise-eligible auto-continuation.
	ErrGuardRailBlocked = errors.New("auto-continuation blocked by guard rail")

	// ErrOwnershipLost names the event loop detecting that a foreign PID
	// has taken over config.json (§4.3 ownership handoff).
	ErrOwnershipLost = errors.New("ownership handed off to another process")

	// ErrSchemaIncompatible is the only class of persistence error that
	// should terminate the process per §7's propagation rule.
	ErrSchemaIncompatible = errors.New("on-disk schema is incompatible")
)

// CoreError wraps an underlying error with the operation that failed and
// identifiers useful for diagnostics, mirroring the teacher's AgentError
// but keyed on panel/stream identity instead of a database session ID.
type CoreError struct {
	Op       string
	Err      error
	PanelID  string
	StreamID string
	Context  map[string]any
}

func (e *CoreError) Error() string {
	switch {
	case e.PanelID != "" && e.StreamID != "":
		return fmt.Sprintf("%s (panel=%s stream=%s): %v", e.Op, e.PanelID, e.StreamID, e.Err)
	case e.PanelID != "":
		return fmt.Sprintf("%s (panel=%s): %v", e.Op, e.PanelID, e.Err)
	case e.StreamID != "":
		return fmt.Sprintf("%s (stream=%s): %v", e.Op, e.StreamID, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *CoreError) Unwrap() error { return e.Err }

// WithContext attaches a diagnostic key/value pair, returning the receiver
// for chaining.
func (e *CoreError) WithContext(key string, value any) *CoreError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a CoreError for the given operation.
func New(op string, err error) *CoreError {
	return &CoreError{Op: op, Err: err}
}

// ForPanel creates a CoreError scoped to a panel.
func ForPanel(op, panelID string, err error) *CoreError {
	return &CoreError{Op: op, Err: err, PanelID: panelID}
}

// ForStream creates a CoreError scoped to a stream.
func ForStream(op, streamID string, err error) *CoreError {
	return &CoreError{Op: op, Err: err, StreamID: streamID}
}
