package quizzes

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/models"
)

const cacheKeyPrefix = "quiz:"

// CachedStore is a read-through Redis cache in front of another Store.
// Quizzes are immutable, so cached entries never need invalidation; they only expire.
// Redis failures degrade to the underlying store.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps next with a Redis cache.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

// Get returns the cached quiz or loads and caches it.
func (s *CachedStore) Get(ctx context.Context, id string) (*models.Quiz, error) {
	raw, err := s.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	switch {
	case err == nil:
		var q models.Quiz
		if err := json.Unmarshal(raw, &q); err == nil {
			return &q, nil
		}
		s.logger.Warn("discarding undecodable cached quiz", zap.String("quiz_id", id))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("quiz cache read failed", zap.String("quiz_id", id), zap.Error(err))
	}

	q, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, q)
	return q, nil
}

// Put writes through to the underlying store and warms the cache.
func (s *CachedStore) Put(ctx context.Context, q *models.Quiz) error {
	if err := s.next.Put(ctx, q); err != nil {
		return err
	}
	s.store(ctx, q)
	return nil
}

func (s *CachedStore) store(ctx context.Context, q *models.Quiz) {
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKeyPrefix+q.ID, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("quiz cache write failed", zap.String("quiz_id", q.ID), zap.Error(err))
	}
}
