package quizzes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/generation"
	"github.com/aura-quiz/backend/internal/models"
)

// Publisher is told about every newly stored quiz (share cards, notifications).
// Its failures are logged and never undo the quiz.
type Publisher interface {
	QuizCreated(ctx context.Context, q *models.Quiz) error
}

// Service generates, stores and loads quizzes.
type Service struct {
	store     Store
	gen       generation.Generator
	publisher Publisher
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

// NewService creates a quiz service.
func NewService(store Store, gen generation.Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		gen:    gen,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
}

// SetPublisher sets the hook called after a quiz is stored.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Create validates the input, asks the generator for questions, validates them and stores the quiz.
// Nothing is stored unless all questions are valid.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Quiz, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	raw, err := s.gen.Generate(ctx, generation.BuildPrompt(in.CreatorName, in.Description))
	if err != nil {
		if !errors.Is(err, apperr.ErrGenerationFormat) && !errors.Is(err, apperr.ErrTransport) {
			err = fmt.Errorf("%w: %w", apperr.ErrTransport, err)
		}
		s.logger.Warn("quiz generation failed", zap.String("created_by", in.CreatedBy), zap.Error(err))
		return nil, err
	}

	questions, err := generation.ParseQuestions(raw)
	if err != nil {
		s.logger.Warn("generated questions rejected", zap.String("created_by", in.CreatedBy), zap.Error(err))
		return nil, err
	}

	q := &models.Quiz{
		ID:          s.newID(),
		CreatorName: in.CreatorName,
		Description: in.Description,
		Questions:   questions,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Put(ctx, q); err != nil {
		s.logger.Error("store quiz failed", zap.String("quiz_id", q.ID), zap.Error(err))
		return nil, fmt.Errorf("store quiz: %w", err)
	}
	s.logger.Info("quiz created", zap.String("quiz_id", q.ID), zap.String("created_by", q.CreatedBy))

	if s.publisher != nil {
		if err := s.publisher.QuizCreated(ctx, q); err != nil {
			s.logger.Warn("quiz created hook failed", zap.String("quiz_id", q.ID), zap.Error(err))
		}
	}
	return q, nil
}

// Get loads a quiz by its shareable identifier.
func (s *Service) Get(ctx context.Context, id string) (*models.Quiz, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: missing quiz id", apperr.ErrValidation)
	}
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}
