package lifecycle

import (
	"fmt"

	"github.com/aura-quiz/backend/internal/models"
)

// Snapshot is the serializable form of a State.
type Snapshot struct {
	Stage    Stage            `json:"stage"`
	Quiz     *models.Quiz     `json:"quiz,omitempty"`
	ShareRef string           `json:"share_ref,omitempty"`
	Owner    bool             `json:"owner"`
	Answers  models.AnswerSet `json:"answers,omitempty"`
	Result   *models.Result   `json:"result,omitempty"`
	Notice   string           `json:"notice,omitempty"`
}

// Capture converts s to a Snapshot.
func Capture(s State) Snapshot {
	switch s := s.(type) {
	case Create:
		return Snapshot{Stage: StageCreate, Notice: s.Notice}
	case QuizGenerated:
		return Snapshot{Stage: StageQuizGenerated, Quiz: s.Quiz, ShareRef: s.ShareRef, Owner: true}
	case Test:
		return Snapshot{Stage: StageTest, Quiz: s.Quiz, ShareRef: s.ShareRef, Owner: s.Owner, Answers: s.Answers.Clone()}
	case Result:
		out := s.Outcome
		return Snapshot{Stage: StageResult, Quiz: s.Quiz, ShareRef: s.ShareRef, Owner: s.Owner, Answers: s.Answers.Clone(), Result: &out}
	default:
		return Snapshot{Stage: StageCreate}
	}
}

// Restore rebuilds a State from a snapshot, rejecting snapshots that lack the data their stage needs.
func Restore(snap Snapshot) (State, error) {
	switch snap.Stage {
	case StageCreate, "":
		return Create{Notice: snap.Notice}, nil
	}
	if snap.Quiz == nil {
		return nil, fmt.Errorf("snapshot %s: missing quiz", snap.Stage)
	}
	ref := snap.ShareRef
	if ref == "" {
		ref = snap.Quiz.ID
	}
	answers := snap.Answers.Clone()
	switch snap.Stage {
	case StageQuizGenerated:
		return QuizGenerated{Quiz: snap.Quiz, ShareRef: ref}, nil
	case StageTest:
		return Test{Quiz: snap.Quiz, ShareRef: ref, Owner: snap.Owner, Answers: answers}, nil
	case StageResult:
		if snap.Result == nil {
			return nil, fmt.Errorf("snapshot %s: missing result", snap.Stage)
		}
		return Result{Quiz: snap.Quiz, ShareRef: ref, Owner: snap.Owner, Answers: answers, Outcome: *snap.Result}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown stage %q", snap.Stage)
	}
}

// Snapshot captures the machine's current state.
func (m *Machine) Snapshot() Snapshot {
	return Capture(m.state)
}

// Restore replaces the machine's state without notifying observers.
func (m *Machine) Restore(snap Snapshot) error {
	s, err := Restore(snap)
	if err != nil {
		return err
	}
	m.state = s
	return nil
}
