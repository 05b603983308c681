// Package scoring turns a user's positional choices into a UserAnswer using
// the strategy registered for the app's type and scoring mode.
package scoring

import (
	"context"
	stderrors "errors"
	"fmt"

	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

// AlignedLength is the number of (choice, question) pairs that are scored.
// Extra choices are ignored and trailing questions without a choice are skipped.
func AlignedLength(choices []string, questions []models.QuestionContent) int {
	return min(len(choices), len(questions))
}

// FindOption returns the first option of q whose key equals key.
func FindOption(q models.QuestionContent, key string) (models.Option, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return models.Option{}, false
}

func loadQuestions(ctx context.Context, qs store.QuestionStore, appID int64) ([]models.QuestionContent, error) {
	questions, err := qs.FindQuestionByAppID(ctx, appID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("no question content for app %d", appID))
	}
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("empty question content for app %d", appID))
	}
	return questions, nil
}

func loadResults(ctx context.Context, rs store.ScoringResultStore, appID int64) ([]models.ScoringResult, error) {
	results, err := rs.ListScoringResultsByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("no scoring results for app %d", appID))
	}
	return results, nil
}

func newAnswer(app *models.Application, choices []string) *models.UserAnswer {
	return &models.UserAnswer{
		AppID:       app.ID,
		AppType:     app.AppType,
		ScoringMode: app.ScoringMode,
		Choices:     models.EncodeChoices(choices),
	}
}

func fillResult(answer *models.UserAnswer, result models.ScoringResult) {
	answer.ResultID = result.ID
	answer.ResultName = result.ResultName
	answer.ResultDesc = result.ResultDesc
	answer.ResultPicture = result.ResultPicture
}
