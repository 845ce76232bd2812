package share

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/models"
	"github.com/aura-quiz/backend/pkg/queue"
)

// CardQueue accepts share-card render jobs.
type CardQueue interface {
	EnqueueShareCard(ctx context.Context, payload queue.ShareCardPayload) error
}

// CardPublisher enqueues a share card for every newly created quiz.
type CardPublisher struct {
	links  *Links
	queue  CardQueue
	logger *zap.Logger
}

// NewCardPublisher creates a publisher that feeds the share-card worker.
func NewCardPublisher(links *Links, q CardQueue, logger *zap.Logger) *CardPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardPublisher{links: links, queue: q, logger: logger}
}

// QuizCreated enqueues the quiz's share card.
func (p *CardPublisher) QuizCreated(ctx context.Context, q *models.Quiz) error {
	payload := queue.ShareCardPayload{QuizID: q.ID, ShareURL: p.links.URL(q.ID)}
	if err := p.queue.EnqueueShareCard(ctx, payload); err != nil {
		return fmt.Errorf("enqueue share card for %s: %w", q.ID, err)
	}
	p.logger.Debug("share card enqueued", zap.String("quiz_id", q.ID))
	return nil
}
