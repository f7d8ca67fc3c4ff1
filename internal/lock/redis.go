package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed holder can block other processes.
const DefaultTTL = 30 * time.Minute

// Redis is a Locker shared by every process that uses the same Redis key.
type Redis struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient connects to Redis from a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedis creates a Redis-backed locker on key. ttl <= 0 uses DefaultTTL.
func NewRedis(rdb redis.UniversalClient, key string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		locker: redislock.New(rdb),
		key:    key,
		ttl:    ttl,
	}
}

// Acquire obtains the lock or returns ErrNotObtained.
func (r *Redis) Acquire(ctx context.Context) (Lease, error) {
	l, err := r.locker.Obtain(ctx, r.key, r.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock %s: %w", r.key, err)
	}
	rl := &redisLease{
		lock: l,
		ttl:  r.ttl,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go rl.keepAlive()
	return rl, nil
}

// redisLease extends its TTL every ttl/2 until released.
type redisLease struct {
	lock *redislock.Lock
	ttl  time.Duration
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (rl *redisLease) keepAlive() {
	defer close(rl.done)

	ticker := time.NewTicker(rl.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), rl.ttl/2)
			err := rl.lock.Refresh(ctx, rl.ttl, nil)
			cancel()
			if errors.Is(err, redislock.ErrNotObtained) {
				// lost to expiry; nothing left to refresh
				return
			}
		}
	}
}

// Release stops refreshing and frees the lock. A lease that already expired is not an error.
func (rl *redisLease) Release(ctx context.Context) error {
	rl.once.Do(func() { close(rl.stop) })
	<-rl.done

	err := rl.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ Locker = (*Redis)(nil)
