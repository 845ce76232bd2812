package models

import (
	"time"
)

const (
	// QuestionCount is the number of questions every quiz carries.
	QuestionCount = 10
	// OptionCount is the number of options every question carries.
	OptionCount = 4
)

// Question is one multiple-choice question. CorrectOption holds the option text, not its position.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Quiz is a persisted, immutable compatibility quiz.
type Quiz struct {
	ID          string     `json:"id"`
	CreatorName string     `json:"creator_name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PublicQuestion is Question without the answer key.
type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// PublicQuiz is Quiz without answer keys or creator identifier, for test-takers.
type PublicQuiz struct {
	ID          string           `json:"id"`
	CreatorName string           `json:"creator_name"`
	Description string           `json:"description"`
	Questions   []PublicQuestion `json:"questions"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ToPublic converts Quiz to PublicQuiz.
func (q *Quiz) ToPublic() PublicQuiz {
	questions := make([]PublicQuestion, len(q.Questions))
	for i, qq := range q.Questions {
		questions[i] = PublicQuestion{Question: qq.Question, Options: append([]string(nil), qq.Options...)}
	}
	return PublicQuiz{
		ID:          q.ID,
		CreatorName: q.CreatorName,
		Description: q.Description,
		Questions:   questions,
		CreatedAt:   q.CreatedAt,
	}
}

// IsOwnedBy reports whether viewerID created the quiz. Empty identifiers never match.
func (q *Quiz) IsOwnedBy(viewerID string) bool {
	return viewerID != "" && q.CreatedBy == viewerID
}

// AnswerSet maps question index (0-based) to the selected option text.
type AnswerSet map[int]string

// Clone returns a copy of the answer set.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
