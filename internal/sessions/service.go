// Package sessions runs quiz lifecycles on the server, one per viewer session.
package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/lifecycle"
)

// Service loads a session, applies one lifecycle operation under the session lock and saves it.
type Service struct {
	store     Store
	locker    *Locker
	quizzes   lifecycle.QuizService
	observers []lifecycle.Observer
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a session service. Observers see every transition of every session.
func NewService(store Store, locker *Locker, quizzes lifecycle.QuizService, logger *zap.Logger, observers ...lifecycle.Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		locker:    locker,
		quizzes:   quizzes,
		observers: observers,
		logger:    logger,
		now:       time.Now,
	}
}

// Start creates a session in create. With a quiz id it enters test directly, and
// a failed lookup still returns the (create) session together with the error.
func (s *Service) Start(ctx context.Context, viewerID, quizID string) (*Session, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("%w: missing viewer", apperr.ErrValidation)
	}
	now := s.now().UTC()
	sess := &Session{ID: uuid.New().String(), ViewerID: viewerID, CreatedAt: now, UpdatedAt: now}
	m := s.machine(viewerID)

	var opErr error
	if quizID = strings.TrimSpace(quizID); quizID != "" {
		opErr = m.Open(ctx, quizID)
	}
	sess.Snapshot = m.Snapshot()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("stage", string(sess.Snapshot.Stage)),
	)
	return sess, opErr
}

// Get returns a viewer's session. Sessions of other viewers are reported as not found.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*Session, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.ViewerID != viewerID {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
	}
	return sess, nil
}

// Generate creates a quiz from the creator's input. Only one generation runs per session,
// and a session that is busy gets ErrConflict instead of a second provider call.
func (s *Service) Generate(ctx context.Context, id, viewerID, creatorName, description string) (*Session, error) {
	return s.mutate(ctx, id, viewerID, lifecycle.OpGenerate, func(m *lifecycle.Machine) error {
		_, err := m.Generate(ctx, creatorName, description)
		return err
	})
}

// TakeOwn lets the creator answer the quiz they just generated.
func (s *Service) TakeOwn(ctx context.Context, id, viewerID string) (*Session, error) {
	return s.mutate(ctx, id, viewerID, lifecycle.OpTakeOwn, func(m *lifecycle.Machine) error {
		return m.TakeOwn()
	})
}

// Open enters test with a shared quiz id.
func (s *Service) Open(ctx context.Context, id, viewerID, quizID string) (*Session, error) {
	return s.mutate(ctx, id, viewerID, lifecycle.OpOpen, func(m *lifecycle.Machine) error {
		return m.Open(ctx, quizID)
	})
}

// Answer records one answer.
func (s *Service) Answer(ctx context.Context, id, viewerID string, index int, option string) (*Session, error) {
	return s.mutate(ctx, id, viewerID, lifecycle.OpAnswer, func(m *lifecycle.Machine) error {
		return m.Answer(index, option)
	})
}

// Submit scores the session's answers.
func (s *Service) Submit(ctx context.Context, id, viewerID string) (*Session, error) {
	return s.mutate(ctx, id, viewerID, lifecycle.OpSubmit, func(m *lifecycle.Machine) error {
		_, err := m.Submit()
		return err
	})
}

// Reset returns the session to create.
func (s *Service) Reset(ctx context.Context, id, viewerID string) (*Session, error) {
	return s.mutate(ctx, id, viewerID, lifecycle.OpReset, func(m *lifecycle.Machine) error {
		m.Reset()
		return nil
	})
}

// ShareLink returns the shareable quiz reference of the session.
func (s *Service) ShareLink(ctx context.Context, id, viewerID string) (string, error) {
	sess, err := s.Get(ctx, id, viewerID)
	if err != nil {
		return "", err
	}
	m := s.machine(viewerID)
	if err := m.Restore(sess.Snapshot); err != nil {
		return "", fmt.Errorf("restore session %s: %w", id, err)
	}
	return m.ShareLink()
}

func (s *Service) machine(viewerID string) *lifecycle.Machine {
	return lifecycle.New(s.quizzes, viewerID, s.observers...)
}

// mutate saves the session even when op fails, since failures may move the lifecycle back to create.
// Generate rejects a locked session outright; other operations queue for the lock.
func (s *Service) mutate(ctx context.Context, id, viewerID string, op lifecycle.Op, fn func(m *lifecycle.Machine) error) (*Session, error) {
	acquire := s.locker.AcquireWait
	if op == lifecycle.OpGenerate {
		acquire = s.locker.Acquire
	}
	release, err := acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.Get(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	m := s.machine(viewerID)
	if err := m.Restore(sess.Snapshot); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}

	from := sess.Snapshot.Stage
	opErr := fn(m)
	sess.Snapshot = m.Snapshot()
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("session_id", id),
		zap.String("op", string(op)),
		zap.String("from", string(from)),
		zap.String("stage", string(sess.Snapshot.Stage)),
	}
	if opErr != nil {
		s.logger.Info("session operation rejected", append(fields, zap.Error(opErr))...)
	} else {
		s.logger.Debug("session operation applied", fields...)
	}
	return sess, opErr
}
