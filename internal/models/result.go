package models

// Message is the compatibility category derived from a score.
type Message string

const (
	MessagePerfectMatch      Message = "perfect match"
	MessageVeryGoodMatch     Message = "very good match"
	MessageAverageMatch      Message = "average match"
	MessageSomewhatDifferent Message = "somewhat different"
	MessagePolesApart        Message = "poles apart"
)

// Result is the outcome of taking a quiz. It is never persisted.
type Result struct {
	Score    int     `json:"score"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Message  Message `json:"message"`
	Headline string  `json:"headline"`
}
