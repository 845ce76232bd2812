// Package quiztest provides in-memory collaborators for tests of the quiz core.
package quiztest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/generation"
	"github.com/aura-quiz/backend/internal/models"
)

var palette = []string{"mountains", "beach", "city", "countryside"}

// Questions returns n valid questions. The correct option rotates through all four slots.
func Questions(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		opts := make([]string, len(palette))
		for j, p := range palette {
			opts[j] = fmt.Sprintf("%s #%d", p, i+1)
		}
		qs[i] = models.Question{
			Question:      fmt.Sprintf("Where would they rather spend day %d?", i+1),
			Options:       opts,
			CorrectOption: opts[i%len(opts)],
		}
	}
	return qs
}

// QuestionsJSON encodes n valid questions in the generation provider's wire shape.
func QuestionsJSON(n int) string {
	type wire struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectOption string   `json:"correctOption"`
	}
	qs := Questions(n)
	out := make([]wire, len(qs))
	for i, q := range qs {
		out[i] = wire{Question: q.Question, Options: q.Options, CorrectOption: q.CorrectOption}
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// Quiz returns a complete, valid quiz.
func Quiz(id, createdBy string) *models.Quiz {
	return &models.Quiz{
		ID:          id,
		CreatorName: "Mina",
		Description: "Loves hiking, spicy food and late-night movies.",
		Questions:   Questions(models.QuestionCount),
		CreatedBy:   createdBy,
		CreatedAt:   time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Answers answers the first `correct` questions right and the rest wrong.
func Answers(q *models.Quiz, correct int) models.AnswerSet {
	a := models.AnswerSet{}
	for i, qq := range q.Questions {
		if i < correct {
			a[i] = qq.CorrectOption
			continue
		}
		for _, o := range qq.Options {
			if o != qq.CorrectOption {
				a[i] = o
				break
			}
		}
	}
	return a
}

// MemStore is an in-memory quizzes.Store.
type MemStore struct {
	mu      sync.Mutex
	quizzes map[string]*models.Quiz
	puts    int
	// Err, when set, is returned by every call.
	Err error
}

// NewMemStore creates an empty store seeded with the given quizzes.
func NewMemStore(seed ...*models.Quiz) *MemStore {
	s := &MemStore{quizzes: map[string]*models.Quiz{}}
	for _, q := range seed {
		s.quizzes[q.ID] = q
	}
	return s
}

func (s *MemStore) Get(_ context.Context, id string) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	q, ok := s.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quiz %s", apperr.ErrNotFound, id)
	}
	cp := *q
	return &cp, nil
}

func (s *MemStore) Put(_ context.Context, q *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.quizzes[q.ID]; ok {
		return fmt.Errorf("%w: quiz %s already exists", apperr.ErrConflict, q.ID)
	}
	cp := *q
	s.quizzes[q.ID] = &cp
	s.puts++
	return nil
}

// Puts returns the number of successful writes.
func (s *MemStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Generator is a scripted generation.Generator.
type Generator struct {
	mu       sync.Mutex
	Response string
	Err      error
	calls    int
	prompts  []generation.Prompt
}

// NewGenerator returns a generator answering with n valid questions.
func NewGenerator(n int) *Generator {
	return &Generator{Response: QuestionsJSON(n)}
}

func (g *Generator) Generate(_ context.Context, p generation.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, p)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}

// Calls returns how many times Generate ran.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// LastPrompt returns the most recent prompt, if any.
func (g *Generator) LastPrompt() (generation.Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return generation.Prompt{}, false
	}
	return g.prompts[len(g.prompts)-1], true
}
