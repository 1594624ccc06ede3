package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grace/pkg/platform/middleware/requesttime"
)

var redisNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRedisStore_RemainingTTLUsesRequestClock(t *testing.T) {
	store := NewRedis(nil, time.Hour)
	ctx := requesttime.WithTime(context.Background(), redisNow)

	assert.Equal(t, time.Hour, store.remainingTTL(ctx, redisNow))
	assert.Equal(t, 15*time.Minute, store.remainingTTL(ctx, redisNow.Add(-45*time.Minute)))
	assert.Equal(t, -time.Hour, store.remainingTTL(ctx, redisNow.Add(-2*time.Hour)))
}

func TestRedisStore_CreateRejectsSessionPastLifetime(t *testing.T) {
	// nil client: Create must fail before reaching Redis.
	store := NewRedis(nil, time.Hour)
	ctx := requesttime.WithTime(context.Background(), redisNow)

	err := store.Create(ctx, newSession("stale", "user-1", redisNow.Add(-time.Hour)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past its lifetime")
}
