package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, "rental:lock:", 50*time.Second)
	locker.token = func() string { return "token-1" }
	return locker, mock
}

func TestLockAndUnlock(t *testing.T) {
	locker, mock := newTestLocker(t)
	ctx := context.Background()

	mock.ExpectSetNX("rental:lock:expire-lapsed-holds", "token-1", 50*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"rental:lock:expire-lapsed-holds"}, "token-1").SetVal(int64(1))

	l, err := locker.Lock(ctx, "expire-lapsed-holds")
	require.NoError(t, err)
	require.NoError(t, l.Unlock(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_HeldElsewhere(t *testing.T) {
	locker, mock := newTestLocker(t)

	mock.ExpectSetNX("rental:lock:expire-lapsed-holds", "token-1", 50*time.Second).SetVal(false)

	_, err := locker.Lock(context.Background(), "expire-lapsed-holds")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_RedisError(t *testing.T) {
	locker, mock := newTestLocker(t)

	mock.ExpectSetNX("rental:lock:job", "token-1", 50*time.Second).SetErr(errors.New("connection refused"))

	_, err := locker.Lock(context.Background(), "job")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.ErrorContains(t, err, "connection refused")
}

func TestUnlock_Error(t *testing.T) {
	locker, mock := newTestLocker(t)
	ctx := context.Background()

	mock.ExpectSetNX("rental:lock:job", "token-1", 50*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"rental:lock:job"}, "token-1").SetErr(errors.New("timeout"))

	l, err := locker.Lock(ctx, "job")
	require.NoError(t, err)
	assert.ErrorContains(t, l.Unlock(ctx), "release lock rental:lock:job")
}

func TestRefresh(t *testing.T) {
	locker, mock := newTestLocker(t)
	ctx := context.Background()

	mock.ExpectSetNX("rental:lock:job", "token-1", 50*time.Second).SetVal(true)
	mock.ExpectEval(refreshScript, []string{"rental:lock:job"}, "token-1", int64(50000)).SetVal(int64(1))
	mock.ExpectEval(refreshScript, []string{"rental:lock:job"}, "token-1", int64(50000)).SetVal(int64(0))
	mock.ExpectEval(refreshScript, []string{"rental:lock:job"}, "token-1", int64(50000)).SetErr(errors.New("timeout"))
	mock.ExpectEval(releaseScript, []string{"rental:lock:job"}, "token-1").SetVal(int64(0))

	l, err := locker.Lock(ctx, "job")
	require.NoError(t, err)
	held := l.(*redisLock)

	owned, err := held.refresh(ctx)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = held.refresh(ctx)
	require.NoError(t, err)
	assert.False(t, owned, "taken over after expiry")

	_, err = held.refresh(ctx)
	assert.ErrorContains(t, err, "refresh lock rental:lock:job")

	require.NoError(t, l.Unlock(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeepAlive_RenewsUntilUnlocked(t *testing.T) {
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })
	mock.MatchExpectationsInOrder(false)

	locker := NewRedisLocker(client, "rental:lock:", 300*time.Millisecond)
	locker.token = func() string { return "token-1" }
	ctx := context.Background()

	mock.ExpectSetNX("rental:lock:job", "token-1", 300*time.Millisecond).SetVal(true)
	mock.ExpectEval(refreshScript, []string{"rental:lock:job"}, "token-1", int64(300)).SetVal(int64(1))
	mock.ExpectEval(releaseScript, []string{"rental:lock:job"}, "token-1").SetVal(int64(1))

	l, err := locker.Lock(ctx, "job")
	require.NoError(t, err)

	// One renewal fires at ttl/3 before the unlock.
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, l.Unlock(ctx))

	select {
	case <-l.(*redisLock).done:
	default:
		t.Fatal("renewal still running after unlock")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
