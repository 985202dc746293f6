package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *DurableStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.bolt")
	store, err := OpenDurableStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDurableStoreOrdersByKey(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.StoreEntry("messages", "100_1_hashb", []byte("b")))
	require.NoError(t, store.StoreEntry("messages", "100_0_hasha", []byte("a")))
	require.NoError(t, store.StoreEntry("messages", "200_0_hashc", []byte("c")))

	entries, err := store.RetrieveEntries("messages", "", "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "100_0_hasha", entries[0].Key)
	require.Equal(t, "100_1_hashb", entries[1].Key)
	require.Equal(t, "200_0_hashc", entries[2].Key)
}

func TestDurableStoreRetrieveRangeBounds(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.StoreEntry("events", "1", []byte("a")))
	require.NoError(t, store.StoreEntry("events", "2", []byte("b")))
	require.NoError(t, store.StoreEntry("events", "3", []byte("c")))

	entries, err := store.RetrieveEntries("events", "2", "2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "2", entries[0].Key)
}

func TestGetLastAvailableKeyEmptyPrefix(t *testing.T) {
	store := openTestStore(t)
	last, err := store.GetLastAvailableKey("nothing-here")
	require.NoError(t, err)
	require.Empty(t, last)
}

func TestGetLastAvailableKey(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.StoreEntry("chain", "10_0_0", []byte("x")))
	require.NoError(t, store.StoreEntry("chain", "20_0_0", []byte("y")))

	last, err := store.GetLastAvailableKey("chain")
	require.NoError(t, err)
	require.Equal(t, "20_0_0", last)
}
