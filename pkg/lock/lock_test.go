package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, "lock:"), mr
}

func TestAcquireIsExclusive(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	token, err := locker.Acquire(ctx, "booking:p:d:2026-10-22", time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = locker.Acquire(ctx, "booking:p:d:2026-10-22", time.Second)
	assert.ErrorIs(t, err, ErrNotObtained)

	_, err = locker.Acquire(ctx, "booking:p:d:2026-10-23", time.Second)
	assert.NoError(t, err)
}

func TestReleaseRequiresOwnToken(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()
	key := "booking:p:d:2026-10-22"

	token, err := locker.Acquire(ctx, key, time.Second)
	require.NoError(t, err)

	require.NoError(t, locker.Release(ctx, key, "someone-else"))
	assert.True(t, mr.Exists("lock:"+key))

	require.NoError(t, locker.Release(ctx, key, token))
	assert.False(t, mr.Exists("lock:"+key))

	_, err = locker.Acquire(ctx, key, time.Second)
	assert.NoError(t, err)
}

func TestLockExpires(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = locker.Acquire(ctx, "k", time.Second)
	assert.NoError(t, err)
}
