// internal/models/question.go
package models

// QuestionContent is one question of an app, in positional order.
type QuestionContent struct {
	Title   string   `json:"title"`
	Options []Option `json:"options"`
}

// Option is a selectable answer. Result carries the trait tag for trait-based
// apps; Score carries the points for score-based apps.
type Option struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Result string `json:"result,omitempty"`
	Score  *int   `json:"score,omitempty"`
}

// ScoreOrZero returns the option score, treating an absent score as 0.
func (o Option) ScoreOrZero() int {
	if o.Score == nil {
		return 0
	}
	return *o.Score
}

// QuestionAnswer pairs a question title with the resolved answer text sent to the model.
type QuestionAnswer struct {
	Title      string `json:"title"`
	UserAnswer string `json:"userAnswer"`
}
