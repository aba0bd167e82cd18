// Package cache implements the Panel Cache Engine of §4.2: a bounded worker
// pool that keeps every panel's cached content eventually consistent with
// its underlying source without blocking the event loop.
package cache

import (
	"sync"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/rs/zerolog"
)

// job pairs a submitted request with the context its reply should be tagged
// with; the reply itself always flows back over Engine.replies.
type job struct {
	req panel.Request
}

// Engine owns the job channel, the N-worker pool, and the reply channel
// drained once per event-loop tick (§4.2's three structural pieces).
type Engine struct {
	jobs    chan job
	replies chan panel.Update
	log     zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// DefaultWorkers is N in §4.2 ("a fixed pool of N workers (default N = 6)").
const DefaultWorkers = 6

// New starts an Engine with the given worker count (DefaultWorkers if n<=0).
// The job and reply channels are generously buffered so Submit never
// blocks the event-loop tick that calls it.
func New(n int, log zerolog.Logger) *Engine {
	if n <= 0 {
		n = DefaultWorkers
	}
	e := &Engine{
		jobs:    make(chan job, 256),
		replies: make(chan panel.Update, 256),
		log:     log,
		stop:    make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	return e
}

// worker pulls jobs from the shared channel until Close is called, dispatches
// each to the panel type's registered refresh hook, and posts the resulting
// update to the reply channel. Workers share the job channel through Go's
// native MPMC channel semantics rather than an explicit mutex-guarded
// receiver, which is the idiomatic Go rendering of §4.2's "workers share the
// job channel through a mutex-guarded receiver".
func (e *Engine) worker(id int) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case j, ok := <-e.jobs:
			if !ok {
				return
			}
			e.process(j)
		}
	}
}

func (e *Engine) process(j job) {
	hooks, ok := panel.Get(j.req.Type)
	if !ok {
		e.log.Warn().Str("type", string(j.req.Type)).Msg("cache: no hooks registered for panel type")
		return
	}
	update := func() (u panel.Update) {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error().Interface("panic", r).Str("context_id", j.req.ContextID).Msg("cache: refresh hook panicked")
				u = panel.Update{Kind: panel.UpdateUnchanged, ContextID: j.req.ContextID}
			}
		}()
		return hooks.Refresh(j.req)
	}()
	select {
	case e.replies <- update:
	case <-e.stop:
	}
}

// Submit enqueues req for background refresh. Non-blocking under normal
// load; callers on the event-loop thread must never call this from inside
// a reply-drain loop that could deadlock on a full channel (the buffer size
// above is chosen so ordinary panel counts never approach it).
func (e *Engine) Submit(req panel.Request) {
	select {
	case e.jobs <- job{req: req}:
	case <-e.stop:
	}
}

// Replies exposes the reply channel for the event loop's drain step
// (§4.2.1 step 5). Callers should drain non-blockingly with a select/default
// or a bounded-count loop each tick.
func (e *Engine) Replies() <-chan panel.Update {
	return e.replies
}

// Close stops all workers. Safe to call multiple times.
func (e *Engine) Close() {
	e.stopOnce.Do(func() {
		close(e.stop)
	})
	e.wg.Wait()
}
