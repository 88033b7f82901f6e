package objectstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte("binary-argo-profile-bytes")

	etag, err := store.Put(ctx, "argo-raw/ab12cd34/profile_001.bin", bytes.NewReader(content), PutOptions{
		ContentType: "application/octet-stream",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, etag)

	reader, attrs, err := store.Get(ctx, "argo-raw/ab12cd34/profile_001.bin")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "argo-raw/ab12cd34/profile_001.bin", attrs.Key)
	assert.Equal(t, int64(len(content)), attrs.Size)
	assert.Equal(t, "application/octet-stream", attrs.ContentType)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	_, _, err := store.Get(ctx, "argo-raw/unknown/profile.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Put(ctx, "argo-raw/to-delete/profile.bin", bytes.NewReader([]byte("data")), PutOptions{})
	require.NoError(t, err)

	err = store.Delete(ctx, "argo-raw/to-delete/profile.bin")
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "argo-raw/to-delete/profile.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	// Two float prefixes (three files under the first, one under the
	// second), plus one legacy key with no prefix at all (a
	// pre-fingerprinting archive entry).
	files := []string{
		"argo-raw/2902746/profile_001.bin",
		"argo-raw/2902746/profile_002.bin",
		"argo-raw/2902746/meta/tech.bin",
		"argo-raw/2902777/profile_001.bin",
		"legacy-root.bin",
	}
	for _, f := range files {
		_, err := store.Put(ctx, f, bytes.NewReader([]byte("content")), PutOptions{})
		require.NoError(t, err)
	}

	result, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Objects, 5)

	result, err = store.List(ctx, ListOptions{Prefix: "argo-raw/2902746/"})
	require.NoError(t, err)
	assert.Len(t, result.Objects, 3)

	result, err = store.List(ctx, ListOptions{Prefix: "", Delimiter: "/"})
	require.NoError(t, err)
	assert.Len(t, result.Objects, 1) // legacy-root.bin
	assert.Contains(t, result.CommonPrefixes, "argo-raw/")
}

func TestMemoryStore_Head(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte("binary-argo-profile-bytes")
	_, err := store.Put(ctx, "argo-raw/ab12cd34/profile_001.bin", bytes.NewReader(content), PutOptions{
		ContentType: "application/octet-stream",
	})
	require.NoError(t, err)

	attrs, err := store.Head(ctx, "argo-raw/ab12cd34/profile_001.bin")
	require.NoError(t, err)
	assert.Equal(t, "argo-raw/ab12cd34/profile_001.bin", attrs.Key)
	assert.Equal(t, int64(len(content)), attrs.Size)
	assert.Equal(t, "application/octet-stream", attrs.ContentType)

	_, err = store.Head(ctx, "argo-raw/unknown/profile.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Copy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte("binary-argo-profile-bytes")
	_, err := store.Put(ctx, "argo-raw/ab12cd34/profile_001.bin", bytes.NewReader(content), PutOptions{})
	require.NoError(t, err)

	err = store.Copy(ctx, "argo-raw/ab12cd34/profile_001.bin", "argo-raw/ab12cd34/profile_001.bin.bak")
	require.NoError(t, err)

	reader, _, err := store.Get(ctx, "argo-raw/ab12cd34/profile_001.bin.bak")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	err = store.Copy(ctx, "argo-raw/missing/profile.bin", "argo-raw/dest/profile.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Exists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	exists, err := store.Exists(ctx, "argo-raw/ab12cd34/profile_001.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Put(ctx, "argo-raw/ab12cd34/profile_001.bin", bytes.NewReader([]byte("data")), PutOptions{})
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "argo-raw/ab12cd34/profile_001.bin")
	require.NoError(t, err)
	assert.True(t, exists)
}
