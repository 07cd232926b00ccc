package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestMemoryStore_MissOnUnknownKey(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "k", []byte("v"), 10*time.Second))

	// Still fresh just under the deadline.
	now = now.Add(9 * time.Second)
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	// Expired past the deadline.
	now = now.Add(2 * time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_OverwriteResetsDeadline(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "k", []byte("old"), 10*time.Second))

	now = now.Add(8 * time.Second)
	require.NoError(t, store.Put(ctx, "k", []byte("new"), 10*time.Second))

	now = now.Add(5 * time.Second)
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), value)
}
