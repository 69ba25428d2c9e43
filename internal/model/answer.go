package model

// AnswerSource identifies which mechanism produced an answer.
type AnswerSource string

const (
	AnswerSourceModel    AnswerSource = "model"
	AnswerSourceFallback AnswerSource = "fallback"
	AnswerSourceCache    AnswerSource = "cache"
)

// Answer is the outcome of answering one question.
type Answer struct {
	Text           string       `json:"response"`
	Source         AnswerSource `json:"source"`
	Cached         bool         `json:"cached"`
	Fallback       bool         `json:"fallback"`
	ResponseTimeMS int64        `json:"response_time_ms"`
}
