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

type fakeHooks struct {
	content string
}

func (h fakeHooks) BuildRequest(e *panel.Element) (panel.Request, bool) {
	return panel.Request{ContextID: e.UID.String(), Type: e.Type}, true
}

func (h fakeHooks) Refresh(req panel.Request) panel.Update {
	return panel.Update{Kind: panel.UpdateContent, ContextID: req.ContextID, HasContent: true, Content: h.content}
}

func (h fakeHooks) ApplyCacheUpdate(u panel.Update, e *panel.Element, mods panel.ModuleStore) bool {
	if u.Kind == panel.UpdateUnchanged || !u.HasContent {
		e.CacheInFlight = false
		return false
	}
	e.CachedContent = u.Content
	e.ContentLoaded = true
	e.CacheDeprecated = false
	e.CacheInFlight = false
	return true
}

type fakeModuleStore struct {
	modules map[string]any
	now     int64
}

func newFakeModuleStore() *fakeModuleStore {
	return &fakeModuleStore{modules: map[string]any{}}
}

func (f *fakeModuleStore) Module(name string) any       { return f.modules[name] }
func (f *fakeModuleStore) SetModule(name string, v any) { f.modules[name] = v }
func (f *fakeModuleStore) NowMs() int64                 { return f.now }

func TestEngineRefreshDeliversContent(t *testing.T) {
	const fakeType panel.Type = "test_fake"
	panel.Register(fakeType, fakeHooks{content: "hello world"})

	e := panel.New("P0", hashid.UID{Seq: 1, Token: "a"}, fakeType, "fake", nil)
	e.CacheDeprecated = true

	engine := New(2, logging.Nop())
	defer engine.Close()

	hooks, ok := panel.Get(fakeType)
	require.True(t, ok)
	req, ok := hooks.BuildRequest(e)
	require.True(t, ok)
	e.CacheInFlight = true
	engine.Submit(req)

	select {
	case u := <-engine.Replies():
		mods := newFakeModuleStore()
		changed := hooks.ApplyCacheUpdate(u, e, mods)
		assert.True(t, changed)
		assert.Equal(t, "hello world", e.CachedContent)
		assert.False(t, e.CacheInFlight)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cache reply")
	}
}
