// internal/models/scoring.go
package models

import "encoding/json"

// ScoringResult is a candidate outcome bucket. Score-based apps set
// ResultScoreRange; trait-based apps set ResultProp.
type ScoringResult struct {
	ID               int64    `json:"id"`
	AppID            int64    `json:"appId"`
	ResultName       string   `json:"resultName"`
	ResultDesc       string   `json:"resultDesc"`
	ResultPicture    string   `json:"resultPicture,omitempty"`
	ResultScoreRange *int     `json:"resultScoreRange,omitempty"`
	ResultProp       []string `json:"resultProp,omitempty"`
}

// ScoreRangeOrZero returns the threshold, treating an absent range as 0.
func (r ScoringResult) ScoreRangeOrZero() int {
	if r.ResultScoreRange == nil {
		return 0
	}
	return *r.ResultScoreRange
}

// UserAnswer is the scoring output. ResultID is 0 for model-assisted answers,
// which are not tied to a stored bucket. ResultScore is set for score-based
// deterministic scoring only.
type UserAnswer struct {
	AppID         int64       `json:"appId"`
	AppType       AppType     `json:"appType"`
	ScoringMode   ScoringMode `json:"scoringMode"`
	Choices       string      `json:"choices"`
	ResultID      int64       `json:"resultId,omitempty"`
	ResultName    string      `json:"resultName"`
	ResultDesc    string      `json:"resultDesc"`
	ResultPicture string      `json:"resultPicture,omitempty"`
	ResultScore   *int        `json:"resultScore,omitempty"`
}

// EncodeChoices is the canonical JSON form of a choice sequence. A nil
// sequence encodes as [].
func EncodeChoices(choices []string) string {
	if choices == nil {
		choices = []string{}
	}
	b, _ := json.Marshal(choices)
	return string(b)
}
