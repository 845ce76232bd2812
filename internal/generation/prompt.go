// Package generation asks a generative-AI collaborator for quiz questions and validates what comes back.
package generation

import (
	"fmt"

	"github.com/aura-quiz/backend/internal/models"
)

// Prompt is one generation request: the instruction text plus the output schema the provider must honour.
type Prompt struct {
	Instruction string
	Schema      map[string]interface{}
}

// QuestionSchema is the response schema sent with every request: an array of {question, options, correctOption}.
var QuestionSchema = map[string]interface{}{
	"type": "ARRAY",
	"items": map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"question": map[string]interface{}{"type": "STRING"},
			"options": map[string]interface{}{
				"type":  "ARRAY",
				"items": map[string]interface{}{"type": "STRING"},
			},
			"correctOption": map[string]interface{}{"type": "STRING"},
		},
		"required":         []string{"question", "options", "correctOption"},
		"propertyOrdering": []string{"question", "options", "correctOption"},
	},
}

// BuildPrompt builds the instruction for a quiz about the creator described by description.
// Inputs are expected to be validated and trimmed already.
func BuildPrompt(creatorName, description string) Prompt {
	instruction := fmt.Sprintf(
		"Here is a description of %q covering their personality, tendencies, likes and dislikes: %q. "+
			"Based on it, write exactly %d fun and engaging multiple-choice questions that test how well someone knows %q. "+
			"Each question must have exactly %d distinct options. Exactly one option is correct for %q; "+
			"place the correct option at a varied position among the %d options, not always the same slot. "+
			"The other %d options must be plausible but clearly distinguishable from the correct one. "+
			"Respond with a JSON array of objects with the fields 'question', 'options' and 'correctOption', "+
			"where 'correctOption' repeats the full text of the correct option exactly as it appears in 'options'.",
		creatorName, description,
		models.QuestionCount, creatorName,
		models.OptionCount, creatorName,
		models.OptionCount,
		models.OptionCount-1,
	)
	return Prompt{Instruction: instruction, Schema: QuestionSchema}
}
