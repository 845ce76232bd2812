package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/apperr"
)

const lockPrefix = "session:lock:"

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	defaultLockWait = 5 * time.Second
	minLockRetry    = 5 * time.Millisecond
	maxLockRetry    = 100 * time.Millisecond
)

// Locker serializes operations on a session across server instances.
// Acquire fails fast with ErrConflict; AcquireWait queues behind the holder for a bounded time.
type Locker struct {
	client  *redis.Client
	ttl     time.Duration
	maxWait time.Duration
	logger  *zap.Logger
}

// NewLocker creates a locker. ttl bounds how long a crashed holder can block a session.
func NewLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Locker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{client: client, ttl: ttl, maxWait: defaultLockWait, logger: logger}
}

// WithWait sets how long AcquireWait queues before giving up.
func (l *Locker) WithWait(d time.Duration) *Locker {
	if d > 0 {
		l.maxWait = d
	}
	return l
}

// Acquire takes the lock for sessionID. The returned func releases it.
func (l *Locker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	token := uuid.New().String()
	ok, err := l.try(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: session %s has an operation in progress", apperr.ErrConflict, sessionID)
	}
	return l.release(sessionID, token), nil
}

// AcquireWait retries with backoff until the lock is free, ctx ends or maxWait passes.
// Only running out of time reports ErrConflict.
func (l *Locker) AcquireWait(ctx context.Context, sessionID string) (func(), error) {
	token := uuid.New().String()
	deadline := time.Now().Add(l.maxWait)
	delay := minLockRetry
	for {
		ok, err := l.try(ctx, sessionID, token)
		if err != nil {
			return nil, err
		}
		if ok {
			return l.release(sessionID, token), nil
		}
		if time.Now().Add(delay).After(deadline) {
			return nil, fmt.Errorf("%w: session %s has an operation in progress", apperr.ErrConflict, sessionID)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: wait for session lock: %w", apperr.ErrTransport, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxLockRetry {
			delay = maxLockRetry
		}
	}
}

func (l *Locker) try(ctx context.Context, sessionID, token string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockPrefix+sessionID, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: lock session: %w", apperr.ErrTransport, err)
	}
	return ok, nil
}

func (l *Locker) release(sessionID, token string) func() {
	key := lockPrefix + sessionID
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("release session lock", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}
