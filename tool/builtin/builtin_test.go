package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(t *testing.T) (context.Context, *state.State, string) {
	t.Helper()
	dir := t.TempDir()
	st := state.New("w1", dir, 0)
	return tool.WithState(context.Background(), st), st, dir
}

func TestOpenAndClosePanel(t *testing.T) {
	ctx, st, _ := newCtx(t)
	out, err := OpenPanelTool{}.Execute(ctx, json.RawMessage(`{"panel_type":"scratchpad","name":"notes"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "opened panel")
	require.Len(t, st.Panels(), 1)

	localID := st.Panels()[0].LocalID
	_, err = ClosePanelTool{}.Execute(ctx, json.RawMessage(`{"local_id":"`+localID+`"}`))
	require.NoError(t, err)
	assert.Empty(t, st.Panels())
}

func TestOpenPanelRejectsUnknownCacheBackedType(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := OpenPanelTool{}.Execute(ctx, json.RawMessage(`{"panel_type":"not_a_type","name":"x"}`))
	assert.Error(t, err)
}

func TestRefreshPanelMarksDeprecated(t *testing.T) {
	ctx, st, _ := newCtx(t)
	e := st.OpenPanel(panel.TypeMemory, "mem", map[string]any{"memory_path": "notes.md"})
	e.CacheDeprecated = false

	_, err := RefreshPanelTool{}.Execute(ctx, json.RawMessage(`{"local_id":"`+e.LocalID+`"}`))
	require.NoError(t, err)
	assert.True(t, e.CacheDeprecated)
}

func TestPanelGotoPageClampsToRange(t *testing.T) {
	ctx, st, _ := newCtx(t)
	e := st.OpenPanel(panel.TypeFile, "f", map[string]any{"file_path": "a.go"})
	e.TotalPages = 3

	_, err := PanelGotoPageTool{}.Execute(ctx, json.RawMessage(`{"local_id":"`+e.LocalID+`","page":10}`))
	require.NoError(t, err)
	assert.Equal(t, 2, e.CurrentPage)
}

func TestCreateFailsIfExistsThenWriteOverwrites(t *testing.T) {
	ctx, st, dir := newCtx(t)
	_, err := CreateTool{}.Execute(ctx, json.RawMessage(`{"path":"a.txt","content":"hi"}`))
	require.NoError(t, err)

	_, err = CreateTool{}.Execute(ctx, json.RawMessage(`{"path":"a.txt","content":"again"}`))
	assert.Error(t, err)

	_, err = WriteTool{}.Execute(ctx, json.RawMessage(`{"path":"a.txt","content":"overwritten"}`))
	require.NoError(t, err)
	got, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	assert.Equal(t, "overwritten", string(got))
}

func TestEditFileRequiresUniqueMatch(t *testing.T) {
	ctx, _, dir := newCtx(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.txt"), []byte("foo foo"), 0o600))

	_, err := EditFileTool{}.Execute(ctx, json.RawMessage(`{"path":"dup.txt","old_string":"foo","new_string":"bar"}`))
	assert.ErrorContains(t, err, "not unique")

	_, err = EditFileTool{}.Execute(ctx, json.RawMessage(`{"path":"dup.txt","old_string":"foo","new_string":"bar","replace_all":true}`))
	require.NoError(t, err)
	got, _ := os.ReadFile(filepath.Join(dir, "dup.txt"))
	assert.Equal(t, "bar bar", string(got))
}

func TestEditFileMarksMatchingFilePanelDirty(t *testing.T) {
	ctx, st, dir := newCtx(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package x"), 0o600))
	e := st.OpenPanel(panel.TypeFile, "f0", map[string]any{"file_path": "main.go"})
	e.CacheDeprecated = false

	_, err := EditFileTool{}.Execute(ctx, json.RawMessage(`{"path":"main.go","old_string":"x","new_string":"y"}`))
	require.NoError(t, err)
	assert.True(t, e.CacheDeprecated)
}

func TestManageToolsDisablesAndRejectsSelfDisable(t *testing.T) {
	ctx, _, _ := newCtx(t)
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(OpenPanelTool{}))
	mt := ManageToolsTool{Registry: reg}
	require.NoError(t, reg.Register(mt))

	_, err := mt.Execute(ctx, json.RawMessage(`{"tool_name":"open_panel","enabled":false}`))
	require.NoError(t, err)
	assert.False(t, reg.IsEnabled("open_panel"))

	_, err = mt.Execute(ctx, json.RawMessage(`{"tool_name":"manage_tools","enabled":false}`))
	assert.Error(t, err)
}

func TestMessageStatusSummarizedRequiresTlDr(t *testing.T) {
	ctx, st, _ := newCtx(t)
	m := &message.Message{LocalID: "m0", Content: "long content", Status: message.StatusFull}
	st.AddMessage(m)

	_, err := MessageStatusTool{}.Execute(ctx, json.RawMessage(`{"local_id":"m0","status":"summarized"}`))
	assert.Error(t, err)

	_, err = MessageStatusTool{}.Execute(ctx, json.RawMessage(`{"local_id":"m0","status":"summarized","tl_dr":"short"}`))
	require.NoError(t, err)
	assert.Equal(t, message.StatusSummarized, m.Status)
	assert.Equal(t, "short", m.TlDr)
}

func TestTodoAddAndToggle(t *testing.T) {
	ctx, st, _ := newCtx(t)
	_, err := TodoAddTool{}.Execute(ctx, json.RawMessage(`{"text":"write tests"}`))
	require.NoError(t, err)
	assert.True(t, st.Todo().Incomplete())

	_, err = TodoToggleTool{}.Execute(ctx, json.RawMessage(`{"id":"0"}`))
	require.NoError(t, err)
	assert.False(t, st.Todo().Incomplete())

	_, err = TodoToggleTool{}.Execute(ctx, json.RawMessage(`{"id":"missing"}`))
	assert.Error(t, err)
}

func TestMemoryWriteMarksMatchingPanelDirty(t *testing.T) {
	ctx, st, dir := newCtx(t)
	e := st.OpenPanel(panel.TypeMemory, "mem", map[string]any{"memory_path": "notes.md"})
	e.CacheDeprecated = false

	_, err := MemoryWriteTool{}.Execute(ctx, json.RawMessage(`{"path":"notes.md","content":"remember this"}`))
	require.NoError(t, err)
	assert.True(t, e.CacheDeprecated)
	got, _ := os.ReadFile(filepath.Join(dir, "notes.md"))
	assert.Equal(t, "remember this", string(got))
}

func TestGitRunOpensGitResultPanel(t *testing.T) {
	ctx, st, _ := newCtx(t)
	_, err := GitRunTool{}.Execute(ctx, json.RawMessage(`{"args":["status"]}`))
	require.NoError(t, err)
	panels := st.PanelsByType(panel.TypeGitResult)
	require.Len(t, panels, 1)
	assert.Equal(t, "git", panels[0].Metadata["result_command"])
}

func TestGithubRunRequiresToken(t *testing.T) {
	ctx, _, _ := newCtx(t)
	os.Unsetenv("GITHUB_TOKEN")
	_, err := GithubRunTool{}.Execute(ctx, json.RawMessage(`{"args":["pr","list"]}`))
	assert.Error(t, err)
	assert.True(t, tool.IsToolCancel(err))
}

func TestStateFromMissingStateReturnsToolDiscard(t *testing.T) {
	_, err := OpenPanelTool{}.Execute(context.Background(), json.RawMessage(`{"panel_type":"scratchpad","name":"x"}`))
	require.Error(t, err)
	assert.True(t, tool.IsToolDiscard(err))
}

func TestConsoleStartCapturesOutput(t *testing.T) {
	ctx, st, _ := newCtx(t)
	out, err := ConsoleStartTool{}.Execute(ctx, json.RawMessage(`{"command":"echo","args":["hello"]}`))
	require.NoError(t, err)
	assert.Contains(t, out, "started console")

	panels := st.PanelsByType(panel.TypeConsole)
	require.Len(t, panels, 1)
	sessionID, _ := panels[0].Metadata["console_session_id"].(string)
	require.NotEmpty(t, sessionID)

	require.Eventually(t, func() bool {
		return st.ConsoleRingFor(sessionID).String() != ""
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, st.ConsoleRingFor(sessionID).String(), "hello")
}
