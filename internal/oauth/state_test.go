package oauth

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStateStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewStateStore(rdb), mr
}

func TestStateRoundTrip(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	id := NewStateID()
	require.NotEmpty(t, id)
	require.NoError(t, store.Save(ctx, id, State{UserID: "u1", Service: "airtable", Verifier: "pkce-verifier"}))

	state, err := store.Take(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", state.UserID)
	assert.Equal(t, "airtable", state.Service)
	assert.Equal(t, "pkce-verifier", state.Verifier)
}

func TestStateSingleUse(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	id := NewStateID()
	require.NoError(t, store.Save(ctx, id, State{UserID: "u1", Service: "notion"}))

	_, err := store.Take(ctx, id)
	require.NoError(t, err)

	_, err = store.Take(ctx, id)
	assert.True(t, errors.Is(err, ErrStateNotFound))
}

func TestStateExpiry(t *testing.T) {
	store, mr := setupStateStore(t)
	ctx := context.Background()

	id := NewStateID()
	require.NoError(t, store.Save(ctx, id, State{UserID: "u1", Service: "facebook"}))

	mr.FastForward(stateTTL + 1)

	_, err := store.Take(ctx, id)
	assert.True(t, errors.Is(err, ErrStateNotFound))
}

func TestStateUnknownID(t *testing.T) {
	store, _ := setupStateStore(t)

	_, err := store.Take(context.Background(), "never-issued")
	assert.True(t, errors.Is(err, ErrStateNotFound))
}
