package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("actor is busy, try again")

// RedisLocker serializes an actor's events across service replicas. A held
// lock is refreshed in the background until it is released.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger logger.ZapLogger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, log logger.ZapLogger) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		wait:   wait,
		logger: log,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, actorID int64) (func(), error) {
	key := fmt.Sprintf("lock:intake:actor:%d", actorID)

	obtainCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.locker.Obtain(obtainCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lock, actorID, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.Warn("failed to release actor lock", zap.Int64("actor_id", actorID), zap.Error(err))
			}
		})
	}, nil
}

// keepAlive extends the lock every half TTL until stop is closed, so an
// event that outlasts the TTL keeps its actor.
func (l *RedisLocker) keepAlive(lock *redislock.Lock, actorID int64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
			err := lock.Refresh(ctx, l.ttl, nil)
			cancel()
			if err != nil {
				l.logger.Warn("failed to refresh actor lock", zap.Int64("actor_id", actorID), zap.Error(err))
				return
			}
		}
	}
}
