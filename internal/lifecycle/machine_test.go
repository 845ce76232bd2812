package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/models"
	"github.com/aura-quiz/backend/internal/quizzes"
	"github.com/aura-quiz/backend/internal/quiztest"
)

const description = "Loves hiking, spicy food and late-night movies."

type recorder struct {
	transitions []Transition
}

func (r *recorder) OnTransition(t Transition) {
	r.transitions = append(r.transitions, t)
}

func newMachine(viewer string, seed ...*models.Quiz) (*Machine, *quiztest.MemStore, *quiztest.Generator, *recorder) {
	store := quiztest.NewMemStore(seed...)
	gen := quiztest.NewGenerator(models.QuestionCount)
	rec := &recorder{}
	return New(quizzes.NewService(store, gen, nil), viewer, rec), store, gen, rec
}

func answerAll(t *testing.T, m *Machine, answers models.AnswerSet) {
	t.Helper()
	for i, a := range answers {
		require.NoError(t, m.Answer(i, a))
	}
}

func TestCreatorFlow(t *testing.T) {
	ctx := context.Background()
	m, store, _, rec := newMachine("creator-1")

	q, err := m.Generate(ctx, "Mina", description)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Puts())

	s, ok := m.State().(QuizGenerated)
	require.True(t, ok)
	assert.Equal(t, q.ID, s.ShareRef)
	assert.Equal(t, "creator-1", s.Quiz.CreatedBy)

	ref, err := m.ShareLink()
	require.NoError(t, err)
	assert.Equal(t, q.ID, ref)

	require.NoError(t, m.TakeOwn())
	test, ok := m.State().(Test)
	require.True(t, ok)
	assert.True(t, test.Owner)
	assert.Empty(t, test.Answers)

	answerAll(t, m, quiztest.Answers(q, 10))
	res, err := m.Submit()
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, models.MessagePerfectMatch, res.Message)
	assert.Equal(t, StageResult, m.State().Stage())

	stages := []Stage{}
	for _, tr := range rec.transitions {
		if tr.Op != OpAnswer {
			stages = append(stages, tr.To)
		}
	}
	assert.Equal(t, []Stage{StageQuizGenerated, StageTest, StageResult}, stages)
	last := rec.transitions[len(rec.transitions)-1]
	require.NotNil(t, last.Outcome)
	assert.Equal(t, 100, last.Outcome.Score)
	assert.True(t, last.Owner)
}

func TestGenerateValidationErrorMakesNoCall(t *testing.T) {
	m, store, gen, _ := newMachine("creator-1")

	_, err := m.Generate(context.Background(), "Mina", "123456789")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, gen.Calls())
	assert.Equal(t, 0, store.Puts())
	c, ok := m.State().(Create)
	require.True(t, ok)
	assert.NotEmpty(t, c.Notice)
}

func TestGenerateWrongCountStaysInCreate(t *testing.T) {
	m, store, gen, _ := newMachine("creator-1")
	gen.Response = quiztest.QuestionsJSON(9)

	_, err := m.Generate(context.Background(), "Mina", description)
	require.ErrorIs(t, err, apperr.ErrGenerationFormat)
	assert.Equal(t, StageCreate, m.State().Stage())
	assert.Equal(t, 0, store.Puts())
	_, err = m.ShareLink()
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestGenerateTransportError(t *testing.T) {
	m, _, gen, rec := newMachine("creator-1")
	gen.Err = errors.New("dial tcp: connection refused")

	_, err := m.Generate(context.Background(), "Mina", description)
	require.ErrorIs(t, err, apperr.ErrTransport)
	c := m.State().(Create)
	assert.Contains(t, c.Notice, "connection refused")
	require.Len(t, rec.transitions, 1)
	assert.ErrorIs(t, rec.transitions[0].Err, apperr.ErrTransport)
}

func TestFriendFlowScoresFortySomewhatDifferent(t *testing.T) {
	q := quiztest.Quiz("q1", "creator-1")
	m, _, _, rec := newMachine("friend-1", q)

	require.NoError(t, m.Open(context.Background(), "q1"))
	test := m.State().(Test)
	assert.False(t, test.Owner)

	answerAll(t, m, quiztest.Answers(q, 3))
	res, err := m.Submit()
	require.NoError(t, err)
	assert.Equal(t, 40, res.Score)
	assert.Equal(t, models.MessageSomewhatDifferent, res.Message)

	last := rec.transitions[len(rec.transitions)-1]
	assert.Equal(t, StageResult, last.To)
	assert.Equal(t, "q1", last.QuizID)
	assert.False(t, last.Owner)
}

func TestOpenOwnQuizMarksOwner(t *testing.T) {
	m, _, _, _ := newMachine("creator-1", quiztest.Quiz("q1", "creator-1"))
	require.NoError(t, m.Open(context.Background(), "q1"))
	assert.True(t, m.State().(Test).Owner)
}

func TestOpenUnknownQuizFallsBackToCreate(t *testing.T) {
	m, _, _, _ := newMachine("friend-1", quiztest.Quiz("q1", "creator-1"))
	require.NoError(t, m.Open(context.Background(), "q1"))
	require.NoError(t, m.Answer(0, quiztest.Quiz("q1", "").Questions[0].Options[1]))

	err := m.Open(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	c, ok := m.State().(Create)
	require.True(t, ok)
	assert.Equal(t, Notice(err), c.Notice)
}

func TestAnswerRules(t *testing.T) {
	q := quiztest.Quiz("q1", "creator-1")
	m, _, _, _ := newMachine("friend-1", q)
	require.NoError(t, m.Open(context.Background(), "q1"))

	assert.ErrorIs(t, m.Answer(-1, q.Questions[0].Options[0]), apperr.ErrValidation)
	assert.ErrorIs(t, m.Answer(10, q.Questions[0].Options[0]), apperr.ErrValidation)
	assert.ErrorIs(t, m.Answer(0, "not an option"), apperr.ErrValidation)
	assert.ErrorIs(t, m.Answer(0, "1"), apperr.ErrValidation)

	require.NoError(t, m.Answer(0, q.Questions[0].Options[0]))
	require.NoError(t, m.Answer(0, q.Questions[0].Options[2]))
	test := m.State().(Test)
	assert.Equal(t, 1, test.Answered())
	assert.Equal(t, q.Questions[0].Options[2], test.Answers[0])
}

func TestSubmitIncompleteStaysInTest(t *testing.T) {
	q := quiztest.Quiz("q1", "creator-1")
	m, _, _, _ := newMachine("friend-1", q)
	require.NoError(t, m.Open(context.Background(), "q1"))
	answers := quiztest.Answers(q, 10)
	delete(answers, 4)
	answerAll(t, m, answers)

	_, err := m.Submit()
	require.ErrorIs(t, err, apperr.ErrIncompleteAnswers)
	assert.Equal(t, StageTest, m.State().Stage())
	assert.Equal(t, 9, m.State().(Test).Answered())
}

func TestInvalidTransitionsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	m, _, gen, _ := newMachine("creator-1", quiztest.Quiz("q1", "creator-1"))

	assert.ErrorIs(t, m.TakeOwn(), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, m.Answer(0, "x"), apperr.ErrInvalidTransition)
	_, err := m.Submit()
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, Create{}, m.State())

	require.NoError(t, m.Open(ctx, "q1"))
	_, err = m.Generate(ctx, "Mina", description)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, 0, gen.Calls())
	assert.ErrorIs(t, m.TakeOwn(), apperr.ErrInvalidTransition)
	assert.Equal(t, StageTest, m.State().Stage())
}

func TestResetFromEveryState(t *testing.T) {
	ctx := context.Background()
	q := quiztest.Quiz("q1", "creator-1")
	m, store, _, _ := newMachine("creator-1", q)

	m.Reset()
	assert.Equal(t, Create{}, m.State())

	_, err := m.Generate(ctx, "Mina", description)
	require.NoError(t, err)
	m.Reset()
	assert.Equal(t, Create{}, m.State())

	require.NoError(t, m.Open(ctx, "q1"))
	answerAll(t, m, quiztest.Answers(q, 10))
	m.Reset()
	assert.Equal(t, Create{}, m.State())
	assert.Nil(t, m.Quiz())

	require.NoError(t, m.Open(ctx, "q1"))
	answerAll(t, m, quiztest.Answers(q, 5))
	_, err = m.Submit()
	require.NoError(t, err)
	m.Reset()
	assert.Equal(t, Create{}, m.State())

	_, err = store.Get(ctx, "q1")
	assert.NoError(t, err, "reset never deletes persisted quizzes")
	assert.Equal(t, 1, store.Puts())
}

func TestRetakeAfterResult(t *testing.T) {
	ctx := context.Background()
	q := quiztest.Quiz("q1", "creator-1")
	m, _, _, _ := newMachine("friend-1", q)

	require.NoError(t, m.Open(ctx, "q1"))
	answerAll(t, m, quiztest.Answers(q, 0))
	res, err := m.Submit()
	require.NoError(t, err)
	assert.Equal(t, 5, res.Score)

	require.NoError(t, m.Open(ctx, "q1"))
	assert.Empty(t, m.State().(Test).Answers)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := quiztest.Quiz("q1", "creator-1")
	m, _, _, _ := newMachine("friend-1", q)
	require.NoError(t, m.Open(ctx, "q1"))
	answerAll(t, m, quiztest.Answers(q, 7))

	raw, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	other, _, _, _ := newMachine("friend-1", q)
	require.NoError(t, other.Restore(snap))
	assert.Equal(t, m.State(), other.State())

	res, err := other.Submit()
	require.NoError(t, err)
	assert.Equal(t, 74, res.Score)

	snap = other.Snapshot()
	require.NotNil(t, snap.Result)
	restored, err := Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, other.State(), restored)
}

func TestRestoreRejectsIncompleteSnapshots(t *testing.T) {
	_, err := Restore(Snapshot{Stage: StageTest})
	assert.Error(t, err)
	_, err = Restore(Snapshot{Stage: StageResult, Quiz: quiztest.Quiz("q1", "c")})
	assert.Error(t, err)
	_, err = Restore(Snapshot{Stage: "finished", Quiz: quiztest.Quiz("q1", "c")})
	assert.Error(t, err)

	s, err := Restore(Snapshot{Notice: "gone"})
	require.NoError(t, err)
	assert.Equal(t, Create{Notice: "gone"}, s)
}
