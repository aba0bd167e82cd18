package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bigmoostache/tui-sub000/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppliesWritesAndDeletes(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(logging.Nop())

	target := filepath.Join(dir, "nested", "panel.json")
	w.Submit(WriteBatch{
		Writes: []WriteOp{{Path: target, Bytes: []byte(`{"ok":true}`)}},
	})
	w.Close()

	bytes, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(bytes))

	w2 := NewWriter(logging.Nop())
	w2.Submit(WriteBatch{Deletes: []DeleteOp{{Path: target}}})
	w2.Close()

	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestWriterDeleteMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(logging.Nop())
	w.Submit(WriteBatch{Deletes: []DeleteOp{{Path: filepath.Join(dir, "nope.json")}}})
	w.Close()
}

func TestOrphanDeletesSkipsKnownStems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-abc.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2-def.json"), []byte("{}"), 0o600))

	deletes, err := OrphanDeletes(dir, map[string]struct{}{"1-abc": {}})
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, filepath.Join(dir, "2-def.json"), deletes[0].Path)
}

func TestOrphanDeletesMissingDirIsNotAnError(t *testing.T) {
	deletes, err := OrphanDeletes(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)
	assert.Empty(t, deletes)
}
