package snapshots

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		t.Parallel()
		store := testStore(t)

		require.NoError(t, store.Save(ctx, 100, "0xabc", []byte{1, 2, 3}))

		snap, err := store.Get(ctx, 100)
		require.NoError(t, err)
		require.EqualValues(t, 100, snap.Epoch)
		require.Equal(t, "0xabc", snap.Digest)
		require.Equal(t, []byte{1, 2, 3}, snap.Data)

		_, err = store.Get(ctx, 101)
		require.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("save replaces the epoch", func(t *testing.T) {
		t.Parallel()
		store := testStore(t)

		require.NoError(t, store.Save(ctx, 100, "0xabc", []byte{1}))
		require.NoError(t, store.Save(ctx, 100, "0xdef", []byte{2}))

		snap, err := store.Get(ctx, 100)
		require.NoError(t, err)
		require.Equal(t, "0xdef", snap.Digest)
	})

	t.Run("latest and epochs", func(t *testing.T) {
		t.Parallel()
		store := testStore(t)

		_, err := store.Latest(ctx)
		require.ErrorIs(t, err, ErrSnapshotNotFound)

		require.NoError(t, store.Save(ctx, 100, "0xa", []byte{1}))
		require.NoError(t, store.Save(ctx, 102, "0xb", []byte{2}))
		require.NoError(t, store.Save(ctx, 101, "0xc", []byte{3}))

		snap, err := store.Latest(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 102, snap.Epoch)

		epochs, err := store.Epochs(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{100, 101, 102}, epochs)
	})

	t.Run("prune keeps the newest", func(t *testing.T) {
		t.Parallel()
		store := testStore(t)

		for epoch := int64(1); epoch <= 5; epoch++ {
			require.NoError(t, store.Save(ctx, epoch, "0xa", []byte{byte(epoch)}))
		}
		require.NoError(t, store.Prune(ctx, 2))

		epochs, err := store.Epochs(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{4, 5}, epochs)

		require.Error(t, store.Prune(ctx, 0))
	})
}
