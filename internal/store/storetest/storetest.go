// Package storetest holds the behaviour every store.BlobStore backend must
// share, so each backend's tests run the same suite.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/shiftdesk/internal/store"
)

// RunBlobStoreSuite exercises st against the store.BlobStore contract.
func RunBlobStoreSuite(t *testing.T, st store.BlobStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key returns ErrKeyNotFound", func(t *testing.T) {
		_, err := st.Get(ctx, "missing")
		require.ErrorIs(t, err, store.ErrKeyNotFound)
	})

	t.Run("put then get round trips", func(t *testing.T) {
		require.NoError(t, st.Put(ctx, store.KeyTasks, []byte(`[{"id":"0001"}]`)))

		value, err := st.Get(ctx, store.KeyTasks)
		require.NoError(t, err)
		require.JSONEq(t, `[{"id":"0001"}]`, string(value))
	})

	t.Run("put replaces previous value", func(t *testing.T) {
		require.NoError(t, st.Put(ctx, store.KeyThemeMode, []byte("normal")))
		require.NoError(t, st.Put(ctx, store.KeyThemeMode, []byte("christmas")))

		value, err := st.Get(ctx, store.KeyThemeMode)
		require.NoError(t, err)
		require.Equal(t, "christmas", string(value))
	})

	t.Run("delete removes key", func(t *testing.T) {
		require.NoError(t, st.Put(ctx, store.KeyCurrentUser, []byte(`{"userId":"u1"}`)))
		require.NoError(t, st.Delete(ctx, store.KeyCurrentUser))

		_, err := st.Get(ctx, store.KeyCurrentUser)
		require.ErrorIs(t, err, store.ErrKeyNotFound)
	})

	t.Run("delete missing key is not an error", func(t *testing.T) {
		require.NoError(t, st.Delete(ctx, "never-written"))
	})

	t.Run("empty value is stored", func(t *testing.T) {
		require.NoError(t, st.Put(ctx, store.KeyAPIKey, []byte{}))

		value, err := st.Get(ctx, store.KeyAPIKey)
		require.NoError(t, err)
		require.Empty(t, value)
	})
}
