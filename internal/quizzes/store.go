package quizzes

import (
	"context"

	"github.com/aura-quiz/backend/internal/models"
)

// Store is the quiz document store. Put is create-once: an existing id yields apperr.ErrConflict.
// Get returns apperr.ErrNotFound for an unknown id.
type Store interface {
	Get(ctx context.Context, id string) (*models.Quiz, error)
	Put(ctx context.Context, q *models.Quiz) error
}
