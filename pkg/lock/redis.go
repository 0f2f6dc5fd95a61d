package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another instance holds the lock.
var ErrNotAcquired = errors.New("lock held by another instance")

// releaseScript deletes the key only when it still carries our token, so a
// lock that expired and was taken over is never released by the old owner.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// refreshScript extends the key's expiry only while we still own it.
const refreshScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

// RedisLocker is a gocron.Locker backed by SET NX PX. A held lock renews
// its expiry every third of the TTL until it is unlocked, so a job that runs
// longer than the TTL keeps it.
type RedisLocker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	token  func() string
}

var _ gocron.Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.Cmdable, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		token:  uuid.NewString,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	fullKey := l.prefix + key
	token := l.token()

	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	lock := &redisLock{
		client: l.client,
		key:    fullKey,
		token:  token,
		ttl:    l.ttl,
		done:   make(chan struct{}),
	}
	renewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	lock.stop = cancel
	go lock.keepAlive(renewCtx)

	return lock, nil
}

type redisLock struct {
	client redis.Cmdable
	key    string
	token  string
	ttl    time.Duration

	stop context.CancelFunc
	done chan struct{}
}

func (l *redisLock) keepAlive(ctx context.Context) {
	defer close(l.done)

	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if owned, err := l.refresh(ctx); err != nil || !owned {
				return
			}
		}
	}
}

// refresh resets the expiry to the full TTL. It reports false once the key
// has expired or belongs to another instance.
func (l *redisLock) refresh(ctx context.Context) (bool, error) {
	n, err := l.client.Eval(ctx, refreshScript, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("refresh lock %s: %w", l.key, err)
	}
	return n == 1, nil
}

func (l *redisLock) Unlock(ctx context.Context) error {
	l.stop()
	<-l.done

	if err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
