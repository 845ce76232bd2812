package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/models"
)

// rawQuestion is the provider's wire shape.
type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption *string  `json:"correctOption"`
}

// ParseQuestions decodes the provider's JSON text and validates the whole batch.
// Any malformed element rejects the batch with apperr.ErrGenerationFormat.
func ParseQuestions(raw string) ([]models.Question, error) {
	var items []rawQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &items); err != nil {
		return nil, fmt.Errorf("%w: decode questions: %v", apperr.ErrGenerationFormat, err)
	}
	if len(items) != models.QuestionCount {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", apperr.ErrGenerationFormat, models.QuestionCount, len(items))
	}
	out := make([]models.Question, 0, len(items))
	for i, it := range items {
		q, err := toQuestion(it)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", apperr.ErrGenerationFormat, i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func toQuestion(it rawQuestion) (models.Question, error) {
	if strings.TrimSpace(it.Question) == "" {
		return models.Question{}, fmt.Errorf("empty question text")
	}
	if len(it.Options) != models.OptionCount {
		return models.Question{}, fmt.Errorf("expected %d options, got %d", models.OptionCount, len(it.Options))
	}
	seen := make(map[string]struct{}, len(it.Options))
	for _, o := range it.Options {
		if strings.TrimSpace(o) == "" {
			return models.Question{}, fmt.Errorf("empty option")
		}
		if _, dup := seen[o]; dup {
			return models.Question{}, fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = struct{}{}
	}
	if it.CorrectOption == nil {
		return models.Question{}, fmt.Errorf("missing correctOption")
	}
	if _, ok := seen[*it.CorrectOption]; !ok {
		return models.Question{}, fmt.Errorf("correctOption %q is not one of the options", *it.CorrectOption)
	}
	return models.Question{
		Question:      it.Question,
		Options:       append([]string(nil), it.Options...),
		CorrectOption: *it.CorrectOption,
	}, nil
}
