// internal/workers/scoring/score-user-answer/models.go
package scoreuseranswer

import "quiz-scoring/internal/models"

type Input struct {
	AppID   int64    `json:"appId"`
	Choices []string `json:"choices"`
}

type Output struct {
	UserAnswer *models.UserAnswer `json:"userAnswer"`
}
