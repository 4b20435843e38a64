package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestCheckAndSet_BlocksUntilWindowPasses(t *testing.T) {
	client, srv := testClient(t)
	ctx := context.Background()
	userID := uuid.New()

	allowed, err := CheckAndSet(ctx, client, userID, "post_donation", 30*time.Second)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = CheckAndSet(ctx, client, userID, "post_donation", 30*time.Second)
	require.NoError(t, err)
	require.False(t, allowed)

	ttl, err := TTL(ctx, client, userID, "post_donation")
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, 30*time.Second)

	srv.FastForward(31 * time.Second)

	allowed, err = CheckAndSet(ctx, client, userID, "post_donation", 30*time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestCheckAndSet_SlotsArePerUserAndAction(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	allowed, err := CheckAndSet(ctx, client, first, "post_donation", time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	// A different user is unaffected.
	allowed, err = CheckAndSet(ctx, client, second, "post_donation", time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	// A different action for the same user is unaffected too.
	allowed, err = CheckAndSet(ctx, client, first, "other_action", time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestClear_ReleasesSlotEarly(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()
	userID := uuid.New()

	allowed, err := CheckAndSet(ctx, client, userID, "post_donation", time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, Clear(ctx, client, userID, "post_donation"))

	allowed, err = CheckAndSet(ctx, client, userID, "post_donation", time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestNilClientDisablesLimiting(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	allowed, err := CheckAndSet(ctx, nil, userID, "post_donation", time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, Clear(ctx, nil, userID, "post_donation"))
}
