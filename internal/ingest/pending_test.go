package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingVectorStore_RoundtripThroughFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	s, err := OpenPendingVectorStore(path)
	require.NoError(t, err)

	rec := PendingVectorRecord{GlobalProfileID: 42, FloatID: "2902746", CycleNumber: 3}
	s.Add(rec)
	require.NoError(t, s.Flush())

	reloaded, err := OpenPendingVectorStore(path)
	require.NoError(t, err)
	assert.Equal(t, []PendingVectorRecord{rec}, reloaded.All())
}

func TestPendingVectorStore_RemoveDropsEntry(t *testing.T) {
	s, err := OpenPendingVectorStore(filepath.Join(t.TempDir(), "pending.json"))
	require.NoError(t, err)

	s.Add(PendingVectorRecord{GlobalProfileID: 1})
	s.Remove(1)
	assert.Empty(t, s.All())
}

func TestPendingVectorStore_MissingFileStartsEmpty(t *testing.T) {
	s, err := OpenPendingVectorStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Empty(t, s.All())
}
