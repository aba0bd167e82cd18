package stream

import (
	"testing"

	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/spine"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConversationSumsEffectiveTokenCounts(t *testing.T) {
	st := newTestState()
	conv := st.OpenPanel(panel.TypeConversation, "conversation", nil)

	st.AddMessage(&message.Message{LocalID: "u0", Role: message.RoleUser, Kind: message.KindText, Content: "hi", Status: message.StatusFull, ContentTokenCount: 1})
	st.AddMessage(&message.Message{
		LocalID: "a0", Role: message.RoleAssistant, Kind: message.KindText,
		Content: "very long original", TlDr: "short", Status: message.StatusSummarized,
		ContentTokenCount: 20, TlDrTokenCount: 2,
	})
	st.AddMessage(&message.Message{LocalID: "u1", Role: message.RoleUser, Kind: message.KindText, Content: "deleted", Status: message.StatusDeleted, ContentTokenCount: 99})

	RenderDerivedPanels(st)

	assert.Equal(t, 3, conv.TokenCount)
	assert.Contains(t, conv.CachedContent, "hi")
	assert.Contains(t, conv.CachedContent, "short")
	assert.NotContains(t, conv.CachedContent, "deleted")
	assert.NotEmpty(t, conv.ContentHash)
}

func TestRenderTodoListsItemsWithCheckboxes(t *testing.T) {
	st := newTestState()
	todo := st.OpenPanel(panel.TypeTodo, "todo", nil)
	st.SetTodo(state.TodoState{Items: []state.TodoItem{
		{ID: "t0", Text: "write tests", Done: true},
		{ID: "t1", Text: "ship it", Done: false},
	}})

	RenderDerivedPanels(st)

	assert.Contains(t, todo.CachedContent, "[x] (t0) write tests")
	assert.Contains(t, todo.CachedContent, "[ ] (t1) ship it")
	assert.True(t, todo.ContentLoaded)
}

func TestRenderOverviewProducesMarkdownAndSideRenderedHTML(t *testing.T) {
	st := newTestState()
	overview := st.OpenPanel(panel.TypeOverview, "overview", nil)
	st.OpenPanel(panel.TypeFile, "main.go", map[string]any{"file_path": "main.go"})

	RenderDerivedPanels(st)

	assert.Contains(t, overview.CachedContent, "# Overview")
	assert.Contains(t, overview.CachedContent, "### file")
	html, ok := overview.Metadata["rendered_html"].(string)
	require.True(t, ok)
	assert.Contains(t, html, "<h1>")
}

func TestRenderScratchpadCopiesMetadataContentVerbatim(t *testing.T) {
	st := newTestState()
	pad := st.OpenPanel(panel.TypeScratchpad, "scratch", map[string]any{"content": "raw notes"})

	RenderDerivedPanels(st)

	assert.Equal(t, "raw notes", pad.CachedContent)
}

func TestRenderSpineListsUnprocessedNotifications(t *testing.T) {
	st := newTestState()
	spinePanel := st.OpenPanel(panel.TypeSpine, "spine", nil)

	sp := st.Spine()
	sp.Pending.Add(spine.Notification{SourceTag: "guardrail_cost_cap", Message: "cost cap reached"})
	st.SetSpine(sp)

	RenderDerivedPanels(st)

	assert.Contains(t, spinePanel.CachedContent, "auto_continuation_count: 0")
	assert.Contains(t, spinePanel.CachedContent, "cost cap reached")
}
