package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireTickLock_SecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.lock")

	first, err := AcquireTickLock(path)
	require.NoError(t, err)
	defer first.Release()

	_, err = AcquireTickLock(path)
	assert.Error(t, err)
}

func TestAcquireTickLock_ReleaseAllowsReacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.lock")

	first, err := AcquireTickLock(path)
	require.NoError(t, err)
	require.NoError(t, first.Release())

	second, err := AcquireTickLock(path)
	require.NoError(t, err)
	defer second.Release()
}
