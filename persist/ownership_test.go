package persist

import (
	"os"
	"testing"

	"github.com/bigmoostache/tui-sub000/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimThenStillOwnerTrueUntilAnotherClaim(t *testing.T) {
	dir := t.TempDir()
	layout := NewLayout(dir)

	own, err := Claim(layout)
	require.NoError(t, err)

	ok, err := own.StillOwner()
	require.NoError(t, err)
	assert.True(t, ok)

	cfg, err := config.Load(layout.ConfigPath())
	require.NoError(t, err)
	cfg.OwnerPID = os.Getpid() + 1
	bytes, err := cfg.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(layout.ConfigPath(), bytes, 0o600))

	ok, err = own.StillOwner()
	require.NoError(t, err)
	assert.False(t, ok)
}
