package cache

import (
	"testing"
	"time"

	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/logging"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFixture struct {
	*fakeModuleStore
	panels []*panel.Element
}

func (f *schedulerFixture) Panels() []*panel.Element { return f.panels }

func (f *schedulerFixture) PathsFor(e *panel.Element) []string {
	if p, ok := e.Metadata["file_path"].(string); ok {
		return []string{p}
	}
	return nil
}

func TestSchedulerDispatchAndDrainAppliesUpdate(t *testing.T) {
	const fakeType panel.Type = "test_sched_fake"
	panel.Register(fakeType, fakeHooks{content: "refreshed"})

	engine := New(2, logging.Nop())
	defer engine.Close()

	sched, err := NewScheduler(engine)
	require.NoError(t, err)
	defer sched.Close()

	e := panel.New("P0", hashid.UID{Seq: 1, Token: "a"}, fakeType, "fake", nil)
	e.CacheDeprecated = true

	fixture := &schedulerFixture{fakeModuleStore: newFakeModuleStore(), panels: []*panel.Element{e}}

	sched.dispatch(fixture)
	assert.True(t, e.CacheInFlight)

	require.Eventually(t, func() bool {
		sched.drainReplies(fixture)
		return e.ContentLoaded
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "refreshed", e.CachedContent)
	assert.False(t, e.CacheDeprecated)
	assert.False(t, e.CacheInFlight)
}

func TestSchedulerTimerDeprecationRespectsInterval(t *testing.T) {
	e := panel.New("P1", hashid.UID{Seq: 2, Token: "b"}, panel.TypeTmux, "pane", nil)
	e.ContentLoaded = true
	e.LastRefreshMs = 1000

	fixture := &schedulerFixture{fakeModuleStore: newFakeModuleStore(), panels: []*panel.Element{e}}
	fixture.now = 1500 // under the 2s tmux interval

	sched := &Scheduler{}
	sched.applyTimerDeprecation(fixture)
	assert.False(t, e.CacheDeprecated)

	fixture.now = 3100 // past the 2s interval
	sched.applyTimerDeprecation(fixture)
	assert.True(t, e.CacheDeprecated)
}

func TestSchedulerMarksInitialPopulation(t *testing.T) {
	e := panel.New("P2", hashid.UID{Seq: 3, Token: "c"}, panel.TypeFile, "f", nil)
	e.CacheDeprecated = false

	fixture := &schedulerFixture{fakeModuleStore: newFakeModuleStore(), panels: []*panel.Element{e}}
	sched := &Scheduler{}
	sched.markInitialPopulation(fixture)
	assert.True(t, e.CacheDeprecated)
}
