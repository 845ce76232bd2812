package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-quiz/backend/internal/share"
	"github.com/aura-quiz/backend/pkg/queue"
)

type fakeCards struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func (f *fakeCards) ShareCardExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeCards) PutShareCard(_ context.Context, key string, png []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return "", errors.New("s3 down")
	}
	f.objects[key] = png
	return "https://cards.example.com/" + key, nil
}

func (f *fakeCards) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeSource struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
}

func (s *fakeSource) Dequeue(ctx context.Context) (*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return nil, nil
	}
	j := s.jobs[0]
	s.jobs = s.jobs[1:]
	return j, nil
}

func (s *fakeSource) Retry(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Attempt++
	s.retried = append(s.retried, job)
	return nil
}

func (s *fakeSource) retries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retried)
}

func shareJob(t *testing.T, quizID string) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.ShareCardPayload{QuizID: quizID})
	require.NoError(t, err)
	return &queue.Job{ID: "job-" + quizID, Type: queue.JobTypeShareCard, Payload: body}
}

func newProcessor(t *testing.T, cards *fakeCards, src *fakeSource) *ShareCardProcessor {
	t.Helper()
	links, err := share.NewLinks("https://quiz.example.com/", 64)
	require.NoError(t, err)
	p := NewShareCardProcessor(links, cards, src, nil)
	p.backoff = time.Millisecond
	return p
}

func TestProcessRendersCard(t *testing.T) {
	cards := &fakeCards{objects: map[string][]byte{}}
	p := newProcessor(t, cards, &fakeSource{})

	require.NoError(t, p.Process(context.Background(), shareJob(t, "quiz-1")))
	png := cards.objects[share.CardKey("quiz-1")]
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestProcessSkipsExistingCard(t *testing.T) {
	cards := &fakeCards{objects: map[string][]byte{share.CardKey("quiz-1"): []byte("old")}}
	p := newProcessor(t, cards, &fakeSource{})

	require.NoError(t, p.Process(context.Background(), shareJob(t, "quiz-1")))
	assert.Equal(t, []byte("old"), cards.objects[share.CardKey("quiz-1")])
}

func TestProcessRejectsBadJobs(t *testing.T) {
	p := newProcessor(t, &fakeCards{objects: map[string][]byte{}}, &fakeSource{})

	assert.Error(t, p.Process(context.Background(), &queue.Job{ID: "x", Type: "email"}))
	assert.Error(t, p.Process(context.Background(), &queue.Job{ID: "x", Type: queue.JobTypeShareCard, Payload: []byte("{")}))
	assert.Error(t, p.Process(context.Background(), shareJob(t, "")))
}

func TestRunProcessesAndRetries(t *testing.T) {
	cards := &fakeCards{objects: map[string][]byte{}}
	src := &fakeSource{jobs: []*queue.Job{shareJob(t, "quiz-1"), shareJob(t, "quiz-2")}}
	p := newProcessor(t, cards, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cards.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 0, src.retries())
}

func TestRunRetriesFailures(t *testing.T) {
	cards := &fakeCards{objects: map[string][]byte{}, failPut: true}
	src := &fakeSource{jobs: []*queue.Job{shareJob(t, "quiz-1")}}
	p := newProcessor(t, cards, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return src.retries() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
