package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s ClientStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyAccessToken)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, KeyAccessToken, "XYZ"))
	require.NoError(t, s.Set(ctx, KeyMemberUUID, "m-1"))
	got, err := s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "XYZ", got)

	require.NoError(t, s.Set(ctx, KeyAccessToken, "ABC"))
	got, err = s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "ABC", got)

	require.NoError(t, s.Delete(ctx, KeyAccessToken))
	require.NoError(t, s.Delete(ctx, KeyAccessToken))
	_, err = s.Get(ctx, KeyAccessToken)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	require.Equal(t, 3, s.Writes())
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_storage.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), KeyMemberUUID)
	require.NoError(t, err)
	require.Equal(t, "m-1", got)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	s, closeFn, err := Open(ctx, "memory", "", "")
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &MemoryStore{}, s)

	s, closeFn2, err := Open(ctx, "file", filepath.Join(t.TempDir(), "kv.json"), "")
	require.NoError(t, err)
	defer closeFn2()
	require.IsType(t, &FileStore{}, s)

	_, closeFn3, err := Open(ctx, "redis", "", "")
	require.Error(t, err)
	closeFn3()
}
