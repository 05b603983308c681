// internal/models/application.go
package models

import "fmt"

// AppType is the shape of an app's outcome: a score threshold or a trait profile.
type AppType string

const (
	AppTypeScoreBased AppType = "ScoreBased"
	AppTypeTraitBased AppType = "TraitBased"
)

// ScoringMode selects how an app is scored.
type ScoringMode string

const (
	ScoringModeDeterministic ScoringMode = "Deterministic"
	ScoringModeModelAssisted ScoringMode = "ModelAssisted"
)

// Application is a quiz definition. An empty AppType or ScoringMode means unset.
type Application struct {
	ID          int64       `json:"id"`
	AppName     string      `json:"appName"`
	AppDesc     string      `json:"appDesc"`
	AppType     AppType     `json:"appType"`
	ScoringMode ScoringMode `json:"scoringMode"`
}

// Label is the human-readable app type used in prompts.
func (t AppType) Label() string {
	switch t {
	case AppTypeTraitBased:
		return "trait-based"
	default:
		return "score-based"
	}
}

// AppTypeFromCode maps the stored smallint (0 score, 1 trait).
func AppTypeFromCode(code int64) (AppType, error) {
	switch code {
	case 0:
		return AppTypeScoreBased, nil
	case 1:
		return AppTypeTraitBased, nil
	default:
		return "", fmt.Errorf("unknown app type code %d", code)
	}
}

// ScoringModeFromCode maps the stored smallint (0 deterministic, 1 model-assisted).
func ScoringModeFromCode(code int64) (ScoringMode, error) {
	switch code {
	case 0:
		return ScoringModeDeterministic, nil
	case 1:
		return ScoringModeModelAssisted, nil
	default:
		return "", fmt.Errorf("unknown scoring mode code %d", code)
	}
}
