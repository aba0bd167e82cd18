// Package persist implements the Persistence Writer of §4.3: a single
// background writer that serializes state-changing actions without
// blocking the event loop, under the on-disk layout of §6.
package persist

import (
	"path/filepath"
	"strconv"
)

// Layout resolves the well-known paths under a single state directory
// (e.g. ".context-pilot/"), per §6's on-disk layout table.
type Layout struct {
	Root string
}

// NewLayout roots a Layout at dir.
func NewLayout(dir string) Layout {
	return Layout{Root: dir}
}

// ConfigPath is the shared config.json: schema version, owner PID, UI
// draft, global UID counter, per-module global payloads.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.Root, "config.json")
}

// WorkerStatePath is states/<worker>.json.
func (l Layout) WorkerStatePath(workerID string) string {
	return filepath.Join(l.Root, "states", workerID+".json")
}

// StatesDir is the directory holding all worker state files, used for
// enumerating known workers at startup.
func (l Layout) StatesDir() string {
	return filepath.Join(l.Root, "states")
}

// PanelPath is panels/<uid>.json.
func (l Layout) PanelPath(uid string) string {
	return filepath.Join(l.Root, "panels", uid+".json")
}

// PanelsDir is the directory holding all panel files, used for orphan scans.
func (l Layout) PanelsDir() string {
	return filepath.Join(l.Root, "panels")
}

// MessagePath is messages/<uid>.yaml.
func (l Layout) MessagePath(uid string) string {
	return filepath.Join(l.Root, "messages", uid+".yaml")
}

// MessagesDir is the directory holding all message files.
func (l Layout) MessagesDir() string {
	return filepath.Join(l.Root, "messages")
}

// LogChunkPath is logs/<chunk_id>.json.
func (l Layout) LogChunkPath(chunkID string) string {
	return filepath.Join(l.Root, "logs", chunkID+".json")
}

// LogsDir is the directory holding chunked log files.
func (l Layout) LogsDir() string {
	return filepath.Join(l.Root, "logs")
}

// ConsoleDir is the directory holding opaque console session log files.
func (l Layout) ConsoleDir() string {
	return filepath.Join(l.Root, "console")
}

// ErrorPath is errors/error_<n>.txt, the serially-numbered failure dump
// referenced by assistant messages per §7's "[Error occurred. See details
// in <path>]" convention.
func (l Layout) ErrorPath(n int) string {
	return filepath.Join(l.Root, "errors", errorFileName(n))
}

// ErrorsDir is the directory holding numbered failure dumps.
func (l Layout) ErrorsDir() string {
	return filepath.Join(l.Root, "errors")
}

func errorFileName(n int) string {
	return "error_" + strconv.Itoa(n) + ".txt"
}
