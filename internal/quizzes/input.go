package quizzes

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aura-quiz/backend/internal/apperr"
)

const (
	MinNameLen        = 1
	MaxNameLen        = 20
	MinDescriptionLen = 10
	MaxDescriptionLen = 1000
)

// CreateInput is what a creator submits to generate a quiz.
type CreateInput struct {
	CreatorName string `json:"creator_name"`
	Description string `json:"description"`
	CreatedBy   string `json:"-"`
}

// Normalize trims the input and checks its lengths in characters.
func (in CreateInput) Normalize() (CreateInput, error) {
	out := CreateInput{
		CreatorName: strings.TrimSpace(in.CreatorName),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   in.CreatedBy,
	}
	if n := utf8.RuneCountInString(out.CreatorName); n < MinNameLen || n > MaxNameLen {
		return out, fmt.Errorf("%w: creator name must be %d-%d characters", apperr.ErrValidation, MinNameLen, MaxNameLen)
	}
	if n := utf8.RuneCountInString(out.Description); n < MinDescriptionLen || n > MaxDescriptionLen {
		return out, fmt.Errorf("%w: description must be %d-%d characters", apperr.ErrValidation, MinDescriptionLen, MaxDescriptionLen)
	}
	if out.CreatedBy == "" {
		return out, fmt.Errorf("%w: missing creator identity", apperr.ErrValidation)
	}
	return out, nil
}
