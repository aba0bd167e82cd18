package persist

import (
	"os"
	"testing"

	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/logging"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	panels   []*panel.Element
	messages []*message.Message
}

func (f fakeSnapshot) Panels() []*panel.Element     { return f.panels }
func (f fakeSnapshot) Messages() []*message.Message { return f.messages }

func TestBuildStateBatchWritesPanelsAsJSONAndMessagesAsYAML(t *testing.T) {
	layout := NewLayout(t.TempDir())
	counter := hashid.NewCounter(0)
	panelUID := counter.Next()
	msgUID := counter.Next()

	snap := fakeSnapshot{
		panels:   []*panel.Element{{UID: panelUID, LocalID: "c0", Type: panel.TypeScratchpad, Name: "notes"}},
		messages: []*message.Message{{UID: msgUID, LocalID: "u0", Role: message.RoleUser, Kind: message.KindText, Content: "hi"}},
	}

	batch, err := BuildStateBatch(layout, snap, []byte(`{"schema_version":1}`))
	require.NoError(t, err)
	require.Len(t, batch.Writes, 3)

	w := NewWriter(logging.Nop())
	w.Submit(batch)
	w.Close()

	panelBytes, err := os.ReadFile(layout.PanelPath(panelUID.String()))
	require.NoError(t, err)
	assert.Contains(t, string(panelBytes), "notes")

	msgBytes, err := os.ReadFile(layout.MessagePath(msgUID.String()))
	require.NoError(t, err)
	assert.Contains(t, string(msgBytes), "hi")

	cfgBytes, err := os.ReadFile(layout.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(cfgBytes), "schema_version")
}

func TestBuildStateBatchOmitsConfigWriteWhenNil(t *testing.T) {
	layout := NewLayout(t.TempDir())
	batch, err := BuildStateBatch(layout, fakeSnapshot{}, nil)
	require.NoError(t, err)
	assert.Empty(t, batch.Writes)
}

func TestBuildStateBatchSchedulesOrphanDeletesForRemovedPanelsAndMessages(t *testing.T) {
	layout := NewLayout(t.TempDir())
	counter := hashid.NewCounter(0)
	keptPanelUID := counter.Next()
	orphanPanelUID := counter.Next()
	keptMsgUID := counter.Next()
	orphanMsgUID := counter.Next()

	require.NoError(t, os.MkdirAll(layout.PanelsDir(), 0o700))
	require.NoError(t, os.MkdirAll(layout.MessagesDir(), 0o700))
	require.NoError(t, os.WriteFile(layout.PanelPath(orphanPanelUID.String()), []byte("stale"), 0o600))
	require.NoError(t, os.WriteFile(layout.MessagePath(orphanMsgUID.String()), []byte("stale"), 0o600))

	snap := fakeSnapshot{
		panels:   []*panel.Element{{UID: keptPanelUID, LocalID: "p0", Type: panel.TypeScratchpad, Name: "notes"}},
		messages: []*message.Message{{UID: keptMsgUID, LocalID: "u0", Role: message.RoleUser, Kind: message.KindText, Content: "hi"}},
	}

	batch, err := BuildStateBatch(layout, snap, nil)
	require.NoError(t, err)
	require.Len(t, batch.Deletes, 2)
	assert.ElementsMatch(t, []DeleteOp{
		{Path: layout.PanelPath(orphanPanelUID.String())},
		{Path: layout.MessagePath(orphanMsgUID.String())},
	}, batch.Deletes)

	w := NewWriter(logging.Nop())
	w.Submit(batch)
	w.Close()

	_, err = os.Stat(layout.PanelPath(orphanPanelUID.String()))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(layout.MessagePath(orphanMsgUID.String()))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(layout.PanelPath(keptPanelUID.String()))
	assert.NoError(t, err)
}
