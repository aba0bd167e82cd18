package compaction

import "errors"

// Sentinel errors for context-cleaning operations.
var (
	// ErrInvalidConfig indicates invalid cleaning configuration.
	ErrInvalidConfig = errors.New("invalid cleaning configuration")

	// ErrCleaningInProgress indicates a cleaning sub-turn is already running.
	ErrCleaningInProgress = errors.New("context cleaning already in progress")
)
