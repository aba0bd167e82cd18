package stream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bigmoostache/tui-sub000/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogStreamErrorWritesNumberedFile(t *testing.T) {
	dir := t.TempDir()
	layout := persist.NewLayout(dir)

	path, err := LogStreamError(layout, errors.New("connection reset"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "errors", "error_0.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connection reset")
}

func TestLogStreamErrorNeverReusesANumber(t *testing.T) {
	dir := t.TempDir()
	layout := persist.NewLayout(dir)

	first, err := LogStreamError(layout, errors.New("first"))
	require.NoError(t, err)
	second, err := LogStreamError(layout, errors.New("second"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(dir, "errors", "error_1.txt"), second)
}
