// Package state owns the central in-memory data model of §3: the panel
// vector, the message transcript, and the type-keyed module substate map.
// It implements panel.ModuleStore and cache.PanelSet so the cache engine
// and scheduler can drive it without importing it directly.
package state

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
)

// State is the single in-process owner of every panel and message. All
// mutation goes through its exported methods, which take the internal
// lock; panel hooks reach it only through the narrower ModuleStore and
// PanelSet interfaces to avoid reentrant locking from within a refresh.
type State struct {
	mu sync.RWMutex

	panels   []*panel.Element
	messages []*message.Message
	modules  map[string]any

	counter  *hashid.Counter
	workerID string
	repoPath string

	nowFn func() int64
}

// New constructs an empty State rooted at repoPath (used to resolve
// relative filesystem panel paths) owned by workerID, with uidSeed
// restored from the persisted config counter.
func New(workerID, repoPath string, uidSeed uint64) *State {
	return &State{
		modules:  map[string]any{},
		counter:  hashid.NewCounter(uidSeed),
		workerID: workerID,
		repoPath: repoPath,
		nowFn:    func() int64 { return time.Now().UnixMilli() },
	}
}

// WithClock overrides the wall-clock source, for deterministic tests.
func (s *State) WithClock(fn func() int64) *State {
	s.nowFn = fn
	return s
}

// NowMs implements panel.ModuleStore.
func (s *State) NowMs() int64 {
	return s.nowFn()
}

// Module implements panel.ModuleStore.
func (s *State) Module(name string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modules[name]
}

// SetModule implements panel.ModuleStore.
func (s *State) SetModule(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[name] = v
}

// Panels implements cache.PanelSet. The returned slice is a snapshot
// pointer copy; elements are shared, not cloned, since panel.Element
// mutation is confined to the scheduler goroutine.
func (s *State) Panels() []*panel.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*panel.Element, len(s.panels))
	copy(out, s.panels)
	return out
}

// PathsFor implements cache.PanelSet: the filesystem paths a panel's
// metadata references, used to match fsnotify events to panels.
func (s *State) PathsFor(e *panel.Element) []string {
	switch e.Type {
	case panel.TypeFile:
		if p, ok := e.Metadata["file_path"].(string); ok && p != "" {
			return []string{s.resolve(p)}
		}
	case panel.TypeTree:
		base, _ := e.Metadata["base_path"].(string)
		if base == "" {
			base = "."
		}
		return []string{s.resolve(base)}
	case panel.TypeMemory:
		if p, ok := e.Metadata["memory_path"].(string); ok && p != "" {
			return []string{s.resolve(p)}
		}
	case panel.TypeSkill:
		if p, ok := e.Metadata["skill_path"].(string); ok && p != "" {
			return []string{s.resolve(p)}
		}
	}
	return nil
}

func (s *State) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.repoPath, p)
}

// RepoPath returns the root directory panel metadata paths resolve
// against.
func (s *State) RepoPath() string {
	return s.repoPath
}

// WorkerID returns the identifier this process's state/<worker>.json is
// persisted under.
func (s *State) WorkerID() string {
	return s.workerID
}

// AllocateUID mints a fresh durable identifier.
func (s *State) AllocateUID() hashid.UID {
	return s.counter.Next()
}

// UIDCounterValue returns the current counter value for persisting into
// config.json's global UID counter.
func (s *State) UIDCounterValue() uint64 {
	return s.counter.Value()
}

// AddPanel appends a freshly constructed panel.
func (s *State) AddPanel(e *panel.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = append(s.panels, e)
}

// panelLocalIDPrefix is the single local-ID namespace every panel type
// shares per §3 ("Panels use P<n>"), independent of panel type.
const panelLocalIDPrefix = "p"

// OpenPanel allocates identifiers and appends a new panel of type t,
// implementing the generic "open" mutating operation every panel type
// gets per SPEC_FULL.md §4.2. System panels have no UID per §3's
// invariant; every other type gets a fresh counter-backed UID.
func (s *State) OpenPanel(t panel.Type, name string, metadata map[string]any) *panel.Element {
	localID := hashid.NextLocalID(s.UsedLocalIDs(), panelLocalIDPrefix)
	var uid hashid.UID
	if panel.Meta(t).HasUID {
		uid = s.AllocateUID()
	}
	e := panel.New(localID, uid, t, name, metadata)
	s.AddPanel(e)
	return e
}

// RemovePanel deletes the panel with the given UID, returning true if one
// was found.
func (s *State) RemovePanel(uid hashid.UID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.panels {
		if e.UID == uid {
			s.panels = append(s.panels[:i], s.panels[i+1:]...)
			return true
		}
	}
	return false
}

// PanelByUID looks up a panel by its durable UID.
func (s *State) PanelByUID(uid hashid.UID) (*panel.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.panels {
		if e.UID == uid {
			return e, true
		}
	}
	return nil, false
}

// PanelByLocalID looks up a panel by its display-oriented local ID.
func (s *State) PanelByLocalID(localID string) (*panel.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.panels {
		if e.LocalID == localID {
			return e, true
		}
	}
	return nil, false
}

// PanelsByType returns every panel of the given type, in insertion order.
func (s *State) PanelsByType(t panel.Type) []*panel.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*panel.Element
	for _, e := range s.panels {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// UsedLocalIDs returns the set of currently assigned local IDs, suitable
// for hashid.NextLocalID's existing set.
func (s *State) UsedLocalIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.panels))
	for _, e := range s.panels {
		out[e.LocalID] = struct{}{}
	}
	return out
}

// AddMessage appends m to the transcript.
func (s *State) AddMessage(m *message.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Messages returns a snapshot of the full transcript in order.
func (s *State) Messages() []*message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*message.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastMessage returns the most recent message, or nil if the transcript is
// empty.
func (s *State) LastMessage() *message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1]
}

// MessageByUID looks up a message by its durable UID.
func (s *State) MessageByUID(uid hashid.UID) (*message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.UID == uid {
			return m, true
		}
	}
	return nil, false
}
