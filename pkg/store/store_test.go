package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyNamespacesByUser(t *testing.T) {
	assert.Equal(t, "user_7_sales.csv", Key(7, "sales.csv"))
	assert.NotEqual(t, Key(1, "a.csv"), Key(2, "a.csv"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "user_1_a.csv", []byte("v1")))
	_, err = os.Stat(filepath.Join(dir, "user_1_a.csv"))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "user_1_a.csv", []byte("v2")))
	b, err := s.Load(ctx, "user_1_a.csv")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))

	require.NoError(t, s.Delete(ctx, "user_1_a.csv"))
	_, err = s.Load(ctx, "user_1_a.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "user_1_a.csv"), ErrNotFound)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	for _, key := range []string{"", "..", "../x.csv", "user_1_a/b.csv", `user_1_..\x.csv`} {
		assert.ErrorIs(t, s.Save(ctx, key, []byte("x")), ErrInvalidKey, key)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), Config{Mode: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(context.Background(), Config{Mode: "s3"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Mode: "gcs"})
	assert.Error(t, err)
}
