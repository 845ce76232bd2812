package quizzes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/models"
)

// Repository handles quiz persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quizzes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Put inserts a new quiz. The row is written only if the id is unused.
func (r *Repository) Put(ctx context.Context, q *models.Quiz) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	const query = `INSERT INTO quizzes (id, creator_name, description, questions, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at`
	err = r.pool.QueryRow(ctx, query, q.ID, q.CreatorName, q.Description, string(questions), q.CreatedBy).
		Scan(&q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: quiz %s already exists", apperr.ErrConflict, q.ID)
		}
		return fmt.Errorf("%w: insert quiz: %w", apperr.ErrTransport, err)
	}
	return nil
}

// Get returns a quiz by ID.
func (r *Repository) Get(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT id, creator_name, description, questions, created_by, created_at
		FROM quizzes WHERE id = $1`
	var (
		q         models.Quiz
		questions []byte
	)
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&q.ID, &q.CreatorName, &q.Description, &questions, &q.CreatedBy, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quiz %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: select quiz: %w", apperr.ErrTransport, err)
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of quiz %s: %w", id, err)
	}
	return &q, nil
}
