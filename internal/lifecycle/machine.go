package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/models"
	"github.com/aura-quiz/backend/internal/quizzes"
	"github.com/aura-quiz/backend/internal/scoring"
)

// QuizService creates and loads quizzes. *quizzes.Service implements it.
type QuizService interface {
	Create(ctx context.Context, in quizzes.CreateInput) (*models.Quiz, error)
	Get(ctx context.Context, id string) (*models.Quiz, error)
}

// Machine drives one viewer's lifecycle. It is not safe for concurrent use;
// callers serialize operations per session.
type Machine struct {
	quizzes   QuizService
	viewerID  string
	state     State
	observers []Observer
}

// New returns a machine in the create state for the given viewer.
func New(svc QuizService, viewerID string, observers ...Observer) *Machine {
	return &Machine{
		quizzes:   svc,
		viewerID:  viewerID,
		state:     Create{},
		observers: observers,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// ViewerID returns the identifier of the viewer driving this machine.
func (m *Machine) ViewerID() string {
	return m.viewerID
}

// Generate validates the creator's input, creates a quiz and moves create -> quizGenerated.
// On failure the machine stays in create with a notice and no quiz is kept.
func (m *Machine) Generate(ctx context.Context, creatorName, description string) (*models.Quiz, error) {
	if _, ok := m.state.(Create); !ok {
		return nil, m.invalid(OpGenerate)
	}
	q, err := m.quizzes.Create(ctx, quizzes.CreateInput{
		CreatorName: creatorName,
		Description: description,
		CreatedBy:   m.viewerID,
	})
	if err != nil {
		m.fail(OpGenerate, "", err)
		return nil, err
	}
	m.apply(OpGenerate, QuizGenerated{Quiz: q, ShareRef: q.ID}, nil)
	return q, nil
}

// TakeOwn moves quizGenerated -> test so the creator can answer their own quiz.
func (m *Machine) TakeOwn() error {
	s, ok := m.state.(QuizGenerated)
	if !ok {
		return m.invalid(OpTakeOwn)
	}
	m.apply(OpTakeOwn, Test{Quiz: s.Quiz, ShareRef: s.ShareRef, Owner: true, Answers: models.AnswerSet{}}, nil)
	return nil
}

// Open enters test directly from any state with a shared quiz identifier.
// If the quiz cannot be loaded the machine falls back to create and returns the error.
func (m *Machine) Open(ctx context.Context, quizID string) error {
	q, err := m.quizzes.Get(ctx, quizID)
	if err != nil {
		m.fail(OpOpen, quizID, err)
		return err
	}
	m.apply(OpOpen, Test{
		Quiz:     q,
		ShareRef: q.ID,
		Owner:    q.IsOwnedBy(m.viewerID),
		Answers:  models.AnswerSet{},
	}, nil)
	return nil
}

// Answer records option as the answer to question index. Answering again overwrites.
func (m *Machine) Answer(index int, option string) error {
	s, ok := m.state.(Test)
	if !ok {
		return m.invalid(OpAnswer)
	}
	if index < 0 || index >= len(s.Quiz.Questions) {
		return fmt.Errorf("%w: question index %d out of range", apperr.ErrValidation, index)
	}
	if !s.Quiz.Questions[index].HasOption(option) {
		return fmt.Errorf("%w: %q is not an option of question %d", apperr.ErrValidation, option, index+1)
	}
	answers := s.Answers.Clone()
	answers[index] = option
	s.Answers = answers
	m.apply(OpAnswer, s, nil)
	return nil
}

// Submit scores a complete answer set and moves test -> result.
// An incomplete set leaves the machine in test.
func (m *Machine) Submit() (models.Result, error) {
	s, ok := m.state.(Test)
	if !ok {
		return models.Result{}, m.invalid(OpSubmit)
	}
	res, err := scoring.Score(s.Quiz, s.Answers)
	if err != nil {
		return models.Result{}, err
	}
	m.apply(OpSubmit, Result{
		Quiz:     s.Quiz,
		ShareRef: s.ShareRef,
		Owner:    s.Owner,
		Answers:  s.Answers,
		Outcome:  res,
	}, &res)
	return res, nil
}

// Reset returns to create from any state. Persisted quizzes are untouched.
func (m *Machine) Reset() {
	m.apply(OpReset, Create{}, nil)
}

// ShareLink returns the shareable reference of the current quiz.
func (m *Machine) ShareLink() (string, error) {
	switch s := m.state.(type) {
	case QuizGenerated:
		return s.ShareRef, nil
	case Test:
		return s.ShareRef, nil
	case Result:
		return s.ShareRef, nil
	case Create:
		return "", fmt.Errorf("%w: no quiz to share in %s", apperr.ErrInvalidTransition, StageCreate)
	default:
		return "", fmt.Errorf("%w: unknown state %T", apperr.ErrInvalidTransition, s)
	}
}

// Quiz returns the quiz of the current state, or nil in create.
func (m *Machine) Quiz() *models.Quiz {
	return quizOf(m.state)
}

func (m *Machine) invalid(op Op) error {
	return fmt.Errorf("%w: %s not allowed in %s", apperr.ErrInvalidTransition, op, m.state.Stage())
}

func (m *Machine) fail(op Op, quizID string, err error) {
	from := m.state.Stage()
	m.state = Create{Notice: Notice(err)}
	m.notify(Transition{Op: op, From: from, To: StageCreate, QuizID: quizID, ViewerID: m.viewerID, Err: err})
}

func (m *Machine) apply(op Op, next State, outcome *models.Result) {
	from := m.state.Stage()
	m.state = next
	t := Transition{Op: op, From: from, To: next.Stage(), ViewerID: m.viewerID, Outcome: outcome}
	switch s := next.(type) {
	case QuizGenerated:
		t.QuizID, t.Owner = s.Quiz.ID, true
	case Test:
		t.QuizID, t.Owner = s.Quiz.ID, s.Owner
	case Result:
		t.QuizID, t.Owner = s.Quiz.ID, s.Owner
	}
	m.notify(t)
}

func (m *Machine) notify(t Transition) {
	for _, o := range m.observers {
		o.OnTransition(t)
	}
}

func quizOf(s State) *models.Quiz {
	switch s := s.(type) {
	case QuizGenerated:
		return s.Quiz
	case Test:
		return s.Quiz
	case Result:
		return s.Quiz
	default:
		return nil
	}
}

// Notice turns an error into the sentence shown to the user after falling back to create.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperr.ErrValidation):
		return "The name must be 1-20 characters and the description 10-1000 characters."
	case errors.Is(err, apperr.ErrGenerationFormat):
		return "The quiz could not be generated. Please try again."
	case errors.Is(err, apperr.ErrNotFound):
		return "That quiz does not exist. Why not create your own?"
	case errors.Is(err, apperr.ErrTransport):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
