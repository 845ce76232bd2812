// Package lifecycle implements the quiz lifecycle as one explicit state value.
//
// A session is always in exactly one of four stages: create, quizGenerated, test or result.
// Each stage is its own type carrying only the data that stage needs, so a test without a
// quiz or a result without an outcome cannot be represented.
package lifecycle

import (
	"github.com/aura-quiz/backend/internal/models"
)

// Stage names a lifecycle state.
type Stage string

const (
	StageCreate        Stage = "create"
	StageQuizGenerated Stage = "quizGenerated"
	StageTest          Stage = "test"
	StageResult        Stage = "result"
)

// State is one of Create, QuizGenerated, Test or Result.
type State interface {
	Stage() Stage
	state()
}

// Create is the initial and reset state. Notice explains the error that led back here, if any.
type Create struct {
	Notice string
}

// QuizGenerated holds a freshly created quiz. The viewer who generated it owns it.
type QuizGenerated struct {
	Quiz     *models.Quiz
	ShareRef string
}

// Test is an answer-collecting state for one quiz.
type Test struct {
	Quiz     *models.Quiz
	ShareRef string
	Owner    bool
	Answers  models.AnswerSet
}

// Result holds a scored attempt.
type Result struct {
	Quiz     *models.Quiz
	ShareRef string
	Owner    bool
	Answers  models.AnswerSet
	Outcome  models.Result
}

func (Create) Stage() Stage        { return StageCreate }
func (QuizGenerated) Stage() Stage { return StageQuizGenerated }
func (Test) Stage() Stage          { return StageTest }
func (Result) Stage() Stage        { return StageResult }

func (Create) state()        {}
func (QuizGenerated) state() {}
func (Test) state()          {}
func (Result) state()        {}

// Answered returns how many questions have an answer.
func (t Test) Answered() int {
	return len(t.Answers)
}
