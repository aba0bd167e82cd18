package state

import (
	"strings"
	"sync"

	"github.com/bigmoostache/tui-sub000/spine"
)

// Module substate keys, the names panel.ModuleStore.Module/SetModule are
// addressed by.
const (
	ModuleTodo  = "todo"
	ModuleSpine = "spine"
	ModuleGit   = "git"
)

// TodoItem is one entry in the Todo panel's module substate.
type TodoItem struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Done    bool   `json:"done" yaml:"done"`
	AddedAt int64  `json:"added_at" yaml:"added_at"`
}

// TodoState is the Todo panel's module substate: a flat checklist rendered
// directly from State (needs_cache: false per §4.1).
type TodoState struct {
	Items []TodoItem
}

// Incomplete reports whether any item is still undone, feeding the
// TodosAutomatic continuation's snapshot input.
func (t TodoState) Incomplete() bool {
	for _, item := range t.Items {
		if !item.Done {
			return true
		}
	}
	return false
}

// Todo returns the current Todo module substate, defaulting to empty.
func (s *State) Todo() TodoState {
	if v, ok := s.Module(ModuleTodo).(TodoState); ok {
		return v
	}
	return TodoState{}
}

// SetTodo replaces the Todo module substate.
func (s *State) SetTodo(t TodoState) {
	s.SetModule(ModuleTodo, t)
}

// SpineState is the Spine panel's module substate: the pending
// notification log plus the autonomy counters §4.5 tracks.
type SpineState struct {
	Pending               *spine.Pending
	AutoContinuationCount int
	AutonomousStartMs     int64
	AutonomousMode        bool
}

// Spine returns the current Spine module substate, lazily initializing its
// Pending log on first access.
func (s *State) Spine() SpineState {
	if v, ok := s.Module(ModuleSpine).(SpineState); ok {
		return v
	}
	fresh := SpineState{Pending: &spine.Pending{}}
	s.SetModule(ModuleSpine, fresh)
	return fresh
}

// SetSpine replaces the Spine module substate.
func (s *State) SetSpine(sp SpineState) {
	s.SetModule(ModuleSpine, sp)
}

// consoleRingCapacity bounds each console session's retained output so a
// long-lived process cannot grow a panel's cached_content unboundedly.
const consoleRingCapacity = 8000

// ConsoleRing is one Console panel's captured process output, appended to
// by a process watcher and read back by consoleHooks.ApplyCacheUpdate via
// the "console:<uid>" module key.
type ConsoleRing struct {
	mu  sync.Mutex
	buf strings.Builder
}

// Append adds chunk to the ring, truncating the oldest bytes once the
// buffer exceeds consoleRingCapacity.
func (r *ConsoleRing) Append(chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(chunk)
	if r.buf.Len() > consoleRingCapacity {
		trimmed := r.buf.String()[r.buf.Len()-consoleRingCapacity:]
		r.buf.Reset()
		r.buf.WriteString(trimmed)
	}
}

// String returns the ring's current contents.
func (r *ConsoleRing) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// ConsoleRingFor returns the ring for a Console panel's UID string,
// creating one if absent.
func (s *State) ConsoleRingFor(uid string) *ConsoleRing {
	key := "console:" + uid
	if v, ok := s.Module(key).(*ConsoleRing); ok {
		return v
	}
	ring := &ConsoleRing{}
	s.SetModule(key, ring)
	return ring
}

// LogsState tracks the append-only log chunk range for the Logs panel
// family (§6's logs/<chunk_id>.json), incremented each time the
// orchestrator appends a diagnostic entry (e.g. the §5.1 async-wait
// timeout fallback).
type LogsState struct {
	NextChunkID int
}

// Logs returns the current Logs module substate.
func (s *State) Logs() LogsState {
	if v, ok := s.Module("logs").(LogsState); ok {
		return v
	}
	return LogsState{}
}

// SetLogs replaces the Logs module substate.
func (s *State) SetLogs(l LogsState) {
	s.SetModule("logs", l)
}

// AllocateLogChunk returns the next chunk ID and advances the counter.
func (s *State) AllocateLogChunk() int {
	l := s.Logs()
	id := l.NextChunkID
	l.NextChunkID++
	s.SetLogs(l)
	return id
}
