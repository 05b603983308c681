package scoring

import (
	"context"

	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

// TraitCountStrategy scores TraitBased apps deterministically.
type TraitCountStrategy struct {
	questions store.QuestionStore
	results   store.ScoringResultStore
}

func NewTraitCountStrategy(questions store.QuestionStore, results store.ScoringResultStore) *TraitCountStrategy {
	return &TraitCountStrategy{questions: questions, results: results}
}

func (s *TraitCountStrategy) Name() string { return "trait-count" }

func (s *TraitCountStrategy) Score(ctx context.Context, choices []string, app *models.Application) (*models.UserAnswer, error) {
	questions, err := loadQuestions(ctx, s.questions, app.ID)
	if err != nil {
		return nil, err
	}
	results, err := loadResults(ctx, s.results, app.ID)
	if err != nil {
		return nil, err
	}

	answer := newAnswer(app, choices)
	fillResult(answer, SelectByTraits(results, TraitCounts(choices, questions)))
	return answer, nil
}

// TraitCounts counts how often each trait tag was chosen over the aligned pairs.
func TraitCounts(choices []string, questions []models.QuestionContent) map[string]int {
	counts := make(map[string]int)
	for i := 0; i < AlignedLength(choices, questions); i++ {
		opt, ok := FindOption(questions[i], choices[i])
		if !ok || opt.Result == "" {
			continue
		}
		counts[opt.Result]++
	}
	return counts
}

// SelectByTraits returns the result whose declared traits have the highest
// summed count. Ties keep the earlier result, so all-zero picks the first.
// results must not be empty.
func SelectByTraits(results []models.ScoringResult, counts map[string]int) models.ScoringResult {
	best := 0
	bestScore := traitScore(results[0], counts)
	for i := 1; i < len(results); i++ {
		if score := traitScore(results[i], counts); score > bestScore {
			best, bestScore = i, score
		}
	}
	return results[best]
}

func traitScore(r models.ScoringResult, counts map[string]int) int {
	score := 0
	for _, prop := range r.ResultProp {
		score += counts[prop]
	}
	return score
}
