// Package store provides read-only lookups of apps, their questions and
// their scoring result buckets.
package store

import (
	"context"
	"errors"

	"quiz-scoring/internal/models"
)

// ErrNotFound is returned when a lookup has no row.
var ErrNotFound = errors.New("not found")

type AppStore interface {
	FindApp(ctx context.Context, appID int64) (*models.Application, error)
}

type QuestionStore interface {
	// FindQuestionByAppID returns the app's question list in positional order.
	FindQuestionByAppID(ctx context.Context, appID int64) ([]models.QuestionContent, error)
}

type ScoringResultStore interface {
	// ListScoringResultsByAppID returns results in stored order.
	ListScoringResultsByAppID(ctx context.Context, appID int64) ([]models.ScoringResult, error)
}
