// Package scoring computes compatibility results from a quiz and a test-taker's answers.
package scoring

import (
	"fmt"
	"math"

	"github.com/aura-quiz/backend/internal/apperr"
	"github.com/aura-quiz/backend/internal/models"
)

const maxScore = 100

var headlines = map[models.Message]string{
	models.MessagePerfectMatch:      "A dream match! You two fit together perfectly.",
	models.MessageVeryGoodMatch:     "A great match! You can understand and respect each other.",
	models.MessageAverageMatch:      "An ordinary match. With some effort you can get along well.",
	models.MessageSomewhatDifferent: "A bit different. Accepting your differences will take some work.",
	models.MessagePolesApart:        "Poles apart. It could be an adventure, but it will take a lot of effort.",
}

// Score compares every answer to the question's correct option and maps the count to a Result.
// It returns apperr.ErrIncompleteAnswers unless every question index has an answer.
func Score(quiz *models.Quiz, answers models.AnswerSet) (models.Result, error) {
	total := len(quiz.Questions)
	if len(answers) != total {
		return models.Result{}, fmt.Errorf("%w: %d of %d answered", apperr.ErrIncompleteAnswers, len(answers), total)
	}
	correct := 0
	for i, q := range quiz.Questions {
		answer, ok := answers[i]
		if !ok {
			return models.Result{}, fmt.Errorf("%w: question %d unanswered", apperr.ErrIncompleteAnswers, i+1)
		}
		if answer == q.CorrectOption {
			correct++
		}
	}
	score := PointsFor(correct)
	msg := MessageFor(score)
	return models.Result{
		Score:    score,
		Correct:  correct,
		Total:    total,
		Message:  msg,
		Headline: Headline(msg),
	}, nil
}

// PointsFor maps a correct-answer count to a score.
// The jump from 20 to 40 between two and three correct answers is intentional.
func PointsFor(correct int) int {
	switch {
	case correct <= 0:
		return 5
	case correct <= 2:
		return 20
	}
	score := 40 + int(math.Round(float64(correct-3)*60/7))
	if score > maxScore {
		score = maxScore
	}
	return score
}

// MessageFor maps a score to its category. Lower bounds are inclusive.
func MessageFor(score int) models.Message {
	switch {
	case score >= 90:
		return models.MessagePerfectMatch
	case score >= 70:
		return models.MessageVeryGoodMatch
	case score >= 50:
		return models.MessageAverageMatch
	case score >= 30:
		return models.MessageSomewhatDifferent
	default:
		return models.MessagePolesApart
	}
}

// Headline returns the user-facing sentence for a category.
func Headline(m models.Message) string {
	return headlines[m]
}
