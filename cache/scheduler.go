package cache

import (
	"time"

	"github.com/bigmoostache/tui-sub000/metrics"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/fsnotify/fsnotify"
)

// PanelSet is the narrow view of State the scheduler needs: enumerate
// panels and look up the module store for ApplyCacheUpdate. Kept separate
// from panel.ModuleStore so the scheduler can be tested against a fake
// without pulling in the state package.
type PanelSet interface {
	panel.ModuleStore
	Panels() []*panel.Element
	// PathsFor returns the filesystem paths a panel's metadata references,
	// used to match watcher events to panels in step 1.
	PathsFor(e *panel.Element) []string
}

// Scheduler drives the five-step tick of §4.2.1 against an Engine and a
// PanelSet. It owns the fsnotify watcher (step 1) but is otherwise pure
// with respect to wall-clock state beyond what PanelSet.NowMs reports.
type Scheduler struct {
	engine   *Engine
	watcher  *fsnotify.Watcher
	watched  map[string]struct{}
	maxTicks int // bound on replies drained per tick, 0 = unbounded

	// Metrics is optional; a nil Metrics disables dispatch instrumentation.
	Metrics *metrics.Metrics
}

// NewScheduler wires a Scheduler to engine and creates its fsnotify watcher;
// paths are added to it by Watch. A Scheduler with no watched paths still runs timer- and
// dispatch-driven ticks correctly (watcher events are simply empty).
func NewScheduler(engine *Engine) (*Scheduler, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		engine:  engine,
		watcher: w,
		watched: map[string]struct{}{},
	}, nil
}

// Watch registers path with the underlying fsnotify watcher, idempotently.
func (s *Scheduler) Watch(path string) error {
	if _, ok := s.watched[path]; ok {
		return nil
	}
	if err := s.watcher.Add(path); err != nil {
		return err
	}
	s.watched[path] = struct{}{}
	return nil
}

// Close releases the fsnotify watcher. The engine's own lifecycle is
// managed independently by its owner.
func (s *Scheduler) Close() error {
	return s.watcher.Close()
}

// Tick runs the five steps of §4.2.1 once against ps.
func (s *Scheduler) Tick(ps PanelSet) {
	s.consumeWatcherEvents(ps)
	s.applyTimerDeprecation(ps)
	s.markInitialPopulation(ps)
	s.dispatch(ps)
	s.drainReplies(ps)
}

// consumeWatcherEvents implements step 1: drain any pending fsnotify events
// non-blockingly and mark every panel whose metadata path matches dirty.
func (s *Scheduler) consumeWatcherEvents(ps PanelSet) {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.markByPath(ps, ev.Name)
		case err, ok := <-s.watcher.Errors:
			if !ok || err == nil {
				continue
			}
		default:
			return
		}
	}
}

func (s *Scheduler) markByPath(ps PanelSet, changed string) {
	for _, e := range ps.Panels() {
		for _, p := range ps.PathsFor(e) {
			if p == changed {
				e.MarkDeprecated()
				break
			}
		}
	}
}

// applyTimerDeprecation implements step 2: types with a non-nil
// RefreshInterval become deprecated once their interval has elapsed.
func (s *Scheduler) applyTimerDeprecation(ps PanelSet) {
	now := ps.NowMs()
	for _, e := range ps.Panels() {
		meta := panel.Meta(e.Type)
		if meta.RefreshInterval == nil {
			continue
		}
		intervalMs := int64(*meta.RefreshInterval / time.Millisecond)
		if now-e.LastRefreshMs >= intervalMs {
			e.MarkDeprecated()
		}
	}
}

// markInitialPopulation implements step 3: a cache-needing panel that has
// never loaded content is treated as deprecated so it gets an initial fetch.
func (s *Scheduler) markInitialPopulation(ps PanelSet) {
	for _, e := range ps.Panels() {
		meta := panel.Meta(e.Type)
		if meta.NeedsCache && !e.ContentLoaded {
			e.MarkDeprecated()
		}
	}
}

// dispatch implements step 4: submit a request for every deprecated,
// not-in-flight, cache-needing panel.
func (s *Scheduler) dispatch(ps PanelSet) {
	for _, e := range ps.Panels() {
		meta := panel.Meta(e.Type)
		if !meta.NeedsCache {
			continue
		}
		if !e.CacheDeprecated || e.CacheInFlight {
			continue
		}
		hooks, ok := panel.Get(e.Type)
		if !ok {
			continue
		}
		req, ok := hooks.BuildRequest(e)
		if !ok {
			continue
		}
		e.CacheInFlight = true
		s.engine.Submit(req)
		if s.Metrics != nil {
			s.Metrics.CacheDispatches.WithLabelValues(string(e.Type)).Inc()
		}
	}
}

// drainReplies implements step 5: non-blockingly drain every update
// currently sitting on the reply channel and apply it to the matching panel.
func (s *Scheduler) drainReplies(ps PanelSet) {
	panels := ps.Panels()
	drained := 0
	for {
		if s.maxTicks > 0 && drained >= s.maxTicks {
			return
		}
		select {
		case u := <-s.engine.Replies():
			s.apply(u, panels, ps)
			drained++
		default:
			return
		}
	}
}

func (s *Scheduler) apply(u panel.Update, panels []*panel.Element, ps PanelSet) {
	for _, e := range panels {
		if e.UID.String() != u.ContextID {
			continue
		}
		hooks, ok := panel.Get(e.Type)
		if !ok {
			e.CacheInFlight = false
			return
		}
		hooks.ApplyCacheUpdate(u, e, ps)
		return
	}
}
