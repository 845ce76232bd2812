package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/share"
	"github.com/aura-quiz/backend/pkg/queue"
)

// JobSource is the queue the processor pulls from.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// CardStore persists rendered share cards.
type CardStore interface {
	ShareCardExists(ctx context.Context, key string) (bool, error)
	PutShareCard(ctx context.Context, key string, png []byte) (string, error)
}

// ShareCardProcessor renders a quiz's shareable link as a QR PNG and uploads it.
type ShareCardProcessor struct {
	links   *share.Links
	cards   CardStore
	queue   JobSource
	logger  *zap.Logger
	backoff time.Duration
}

// NewShareCardProcessor creates a share-card processor.
func NewShareCardProcessor(links *share.Links, cards CardStore, q JobSource, logger *zap.Logger) *ShareCardProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareCardProcessor{links: links, cards: cards, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one share-card job. Already-rendered cards are skipped.
func (p *ShareCardProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeShareCard {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ShareCardPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.QuizID == "" {
		return fmt.Errorf("share card job %s has no quiz id", job.ID)
	}

	key := share.CardKey(payload.QuizID)
	exists, err := p.cards.ShareCardExists(ctx, key)
	if err != nil {
		return fmt.Errorf("check card: %w", err)
	}
	if exists {
		p.logger.Info("share card already rendered", zap.String("quiz_id", payload.QuizID))
		return nil
	}

	png, err := p.links.QRCode(payload.QuizID)
	if err != nil {
		return err
	}
	url, err := p.cards.PutShareCard(ctx, key, png)
	if err != nil {
		return fmt.Errorf("upload card: %w", err)
	}
	p.logger.Info("share card rendered", zap.String("quiz_id", payload.QuizID), zap.String("url", url))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ShareCardProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("share card worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ShareCardProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
