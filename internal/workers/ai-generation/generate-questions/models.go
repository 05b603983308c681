// internal/workers/ai-generation/generate-questions/models.go
package generatequestions

import "quiz-scoring/internal/models"

type Input struct {
	AppID         int64  `json:"appId"`
	QuestionCount int    `json:"questionCount,omitempty"`
	OptionCount   int    `json:"optionCount,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
}

type Output struct {
	RequestID string                   `json:"requestId"`
	Questions []models.QuestionContent `json:"questions"`
	Skipped   int                      `json:"skipped"`
}

// terminalMessage ends a request's channel after the question objects.
type terminalMessage struct {
	Done  bool   `json:"done,omitempty"`
	Count int    `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}
