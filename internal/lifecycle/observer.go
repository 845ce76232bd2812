package lifecycle

import (
	"github.com/aura-quiz/backend/internal/models"
)

// Op names the operation that caused a transition.
type Op string

const (
	OpGenerate Op = "generate"
	OpTakeOwn  Op = "take_own"
	OpOpen     Op = "open"
	OpAnswer   Op = "answer"
	OpSubmit   Op = "submit"
	OpReset    Op = "reset"
)

// Transition describes one applied lifecycle change.
type Transition struct {
	Op       Op
	From     Stage
	To       Stage
	QuizID   string
	ViewerID string
	Owner    bool
	// Outcome is set when To is StageResult.
	Outcome *models.Result
	// Err is set when the operation failed and fell back to create.
	Err error
}

// Observer is notified synchronously after every transition and should return quickly.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

// OnTransition calls f(t).
func (f ObserverFunc) OnTransition(t Transition) {
	f(t)
}
