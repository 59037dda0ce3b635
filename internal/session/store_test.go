package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiresRecords(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	store := NewExpiringMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "a", []byte("alpha")))
	data, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), data)

	now = now.Add(time.Hour)
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Zero(t, store.Len())
}

func TestMemoryStoreSaveSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	store := NewExpiringMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, key, []byte(key)))
	}
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, "d", []byte("d")))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreWithoutTTLKeepsRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.now = func() time.Time { return fixedNow.Add(24 * 365 * time.Hour) }

	require.NoError(t, store.Save(ctx, "a", []byte("alpha")))
	_, err := store.Load(ctx, "a")
	assert.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNoRecord)
}
