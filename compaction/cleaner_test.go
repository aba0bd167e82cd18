package compaction

import (
	"testing"

	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *state.State {
	return state.New("worker-1", "/repo", 0)
}

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateRejectsTargetAboveTrigger(t *testing.T) {
	cfg := Config{ContextBudget: 1000, Trigger: 0.5, Target: 0.9}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestUsageSumsPanelAndMessageTokens(t *testing.T) {
	st := newTestState()
	e := st.OpenPanel(panel.TypeScratchpad, "notes", nil)
	e.TokenCount = 100
	st.AddMessage(&message.Message{LocalID: "u0", Role: message.RoleUser, Status: message.StatusFull, ContentTokenCount: 50})
	st.AddMessage(&message.Message{LocalID: "u1", Role: message.RoleUser, Status: message.StatusDeleted, ContentTokenCount: 999})

	assert.Equal(t, 150, Usage(st))
}

func TestShouldCleanTriggersAtThreshold(t *testing.T) {
	st := newTestState()
	e := st.OpenPanel(panel.TypeScratchpad, "notes", nil)
	cfg := Config{ContextBudget: 100, Trigger: 0.5, Target: 0.2}

	e.TokenCount = 40
	assert.False(t, ShouldClean(st, cfg))

	e.TokenCount = 60
	assert.True(t, ShouldClean(st, cfg))
}

func TestToolsOnlyExposesTheRestrictedSet(t *testing.T) {
	registry, err := Tools()
	require.NoError(t, err)

	assert.True(t, registry.Has("close_panel"))
	assert.True(t, registry.Has("message_status"))
	assert.True(t, registry.Has("todo_add"))
	assert.True(t, registry.Has("todo_toggle"))
	assert.True(t, registry.Has("memory_write"))
	assert.False(t, registry.Has("open_panel"))
	assert.False(t, registry.Has("manage_tools"))
	assert.False(t, registry.Has("git_run"))
}

func TestOverviewIncludesUsageAndElements(t *testing.T) {
	st := newTestState()
	e := st.OpenPanel(panel.TypeScratchpad, "notes", nil)
	e.TokenCount = 12000
	st.AddMessage(&message.Message{LocalID: "u0", Role: message.RoleUser, Status: message.StatusFull, Content: "hello there", ContentTokenCount: 3})

	cfg := DefaultConfig()
	overview := Overview(st, cfg)

	assert.Contains(t, overview, "[LARGE]")
	assert.Contains(t, overview, e.LocalID)
	assert.Contains(t, overview, "hello there")
	assert.Contains(t, overview, "## Usage:")
}

func TestSystemPromptReportsTokensToRemove(t *testing.T) {
	st := newTestState()
	e := st.OpenPanel(panel.TypeScratchpad, "notes", nil)
	e.TokenCount = 100

	cfg := Config{ContextBudget: 100, Trigger: 0.5, Target: 0.2}
	prompt := SystemPrompt(st, cfg)

	assert.Contains(t, prompt, "100 tokens")
	assert.Contains(t, prompt, "20 tokens")
	assert.Contains(t, prompt, "80 tokens need to be freed")
}
