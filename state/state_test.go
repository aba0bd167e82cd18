package state

import (
	"strings"
	"testing"

	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndLookupPanel(t *testing.T) {
	s := New("w1", "/repo", 0)
	uid := s.AllocateUID()
	e := panel.New("f0", uid, panel.TypeFile, "main.go", map[string]any{"file_path": "main.go"})
	s.AddPanel(e)

	got, ok := s.PanelByUID(uid)
	require.True(t, ok)
	assert.Same(t, e, got)

	got, ok = s.PanelByLocalID("f0")
	require.True(t, ok)
	assert.Same(t, e, got)

	_, ok = s.PanelByLocalID("missing")
	assert.False(t, ok)
}

func TestRemovePanel(t *testing.T) {
	s := New("w1", "/repo", 0)
	uid := s.AllocateUID()
	s.AddPanel(panel.New("f0", uid, panel.TypeFile, "main.go", nil))

	assert.True(t, s.RemovePanel(uid))
	assert.False(t, s.RemovePanel(uid))
	_, ok := s.PanelByUID(uid)
	assert.False(t, ok)
}

func TestPathsForResolvesRelativeToRepoRoot(t *testing.T) {
	s := New("w1", "/repo", 0)
	e := panel.New("f0", s.AllocateUID(), panel.TypeFile, "main.go", map[string]any{"file_path": "main.go"})
	assert.Equal(t, []string{"/repo/main.go"}, s.PathsFor(e))

	abs := panel.New("f1", s.AllocateUID(), panel.TypeFile, "abs", map[string]any{"file_path": "/etc/hosts"})
	assert.Equal(t, []string{"/etc/hosts"}, s.PathsFor(abs))
}

func TestOpenPanelAssignsSharedPLocalIDNamespaceAcrossTypes(t *testing.T) {
	s := New("w1", "/repo", 0)

	scratch := s.OpenPanel(panel.TypeScratchpad, "notes", nil)
	file := s.OpenPanel(panel.TypeFile, "main.go", map[string]any{"file_path": "main.go"})
	git := s.OpenPanel(panel.TypeGit, "git", nil)
	grep := s.OpenPanel(panel.TypeGrep, "grep", map[string]any{"pattern": "TODO"})

	assert.Equal(t, "p0", scratch.LocalID)
	assert.Equal(t, "p1", file.LocalID)
	assert.Equal(t, "p2", git.LocalID)
	assert.Equal(t, "p3", grep.LocalID)

	got, ok := s.PanelByLocalID("p1")
	require.True(t, ok)
	assert.Same(t, file, got)
}

func TestUIDCounterAdvancesAndPersistsValue(t *testing.T) {
	s := New("w1", "/repo", 41)
	uid := s.AllocateUID()
	assert.Equal(t, uint64(42), uid.Seq)
	assert.Equal(t, uint64(42), s.UIDCounterValue())
}

func TestMessagesRoundTrip(t *testing.T) {
	s := New("w1", "/repo", 0)
	m := &message.Message{UID: hashid.UID{Seq: 1, Token: "a"}, Role: message.RoleUser, Content: "hi"}
	s.AddMessage(m)

	assert.Equal(t, m, s.LastMessage())
	got, ok := s.MessageByUID(m.UID)
	require.True(t, ok)
	assert.Same(t, m, got)
	assert.Len(t, s.Messages(), 1)
}

func TestTodoIncomplete(t *testing.T) {
	s := New("w1", "/repo", 0)
	assert.False(t, s.Todo().Incomplete())

	s.SetTodo(TodoState{Items: []TodoItem{{ID: "1", Text: "a", Done: true}, {ID: "2", Text: "b"}}})
	assert.True(t, s.Todo().Incomplete())
}

func TestSpineLazyInit(t *testing.T) {
	s := New("w1", "/repo", 0)
	sp := s.Spine()
	require.NotNil(t, sp.Pending)
	assert.Empty(t, sp.Pending.Unprocessed())
}

func TestConsoleRingTruncatesToCapacity(t *testing.T) {
	s := New("w1", "/repo", 0)
	ring := s.ConsoleRingFor("42-abc")
	ring.Append(strings.Repeat("x", consoleRingCapacity+100))
	assert.Len(t, ring.String(), consoleRingCapacity)

	again := s.ConsoleRingFor("42-abc")
	assert.Same(t, ring, again)
}

func TestAllocateLogChunkIncrements(t *testing.T) {
	s := New("w1", "/repo", 0)
	assert.Equal(t, 0, s.AllocateLogChunk())
	assert.Equal(t, 1, s.AllocateLogChunk())
}
