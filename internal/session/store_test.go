package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionShape(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	// 16 random bytes -> 32 hex chars, 32 random bytes -> 64 hex chars.
	assert.Len(t, s.ID, 32)
	assert.Len(t, s.CSRFToken, 64)
	assert.WithinDuration(t, time.Now().UTC(), s.CreatedAt, time.Minute)
}

func TestNewSessionsAreIndependent(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.CSRFToken, b.CSRFToken)
}

func TestExpired(t *testing.T) {
	s := Session{CreatedAt: time.Now().UTC()}
	maxAge := 24 * time.Hour

	assert.False(t, s.Expired(s.CreatedAt.Add(23*time.Hour), maxAge))
	assert.True(t, s.Expired(s.CreatedAt.Add(25*time.Hour), maxAge))
}

func TestRotateCSRF(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	rotated, err := s.RotateCSRF()
	require.NoError(t, err)

	assert.Equal(t, s.ID, rotated.ID)
	assert.NotEqual(t, s.CSRFToken, rotated.CSRFToken)
	assert.Len(t, rotated.CSRFToken, 64)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := New()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, s))

	got, ok, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s, got)

	_, ok, err = store.Get(ctx, "no-such-id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := New()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, s))

	rotated, err := s.RotateCSRF()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rotated))

	got, ok, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rotated.CSRFToken, got.CSRFToken)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := New()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, s))

	require.NoError(t, store.Delete(ctx, s.ID))
	require.NoError(t, store.Delete(ctx, s.ID)) // second delete is a no-op

	_, ok, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
