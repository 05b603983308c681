package scoring

import (
	"context"
	"sort"

	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

// ScoreSumStrategy scores ScoreBased apps deterministically.
type ScoreSumStrategy struct {
	questions store.QuestionStore
	results   store.ScoringResultStore
}

func NewScoreSumStrategy(questions store.QuestionStore, results store.ScoringResultStore) *ScoreSumStrategy {
	return &ScoreSumStrategy{questions: questions, results: results}
}

func (s *ScoreSumStrategy) Name() string { return "score-sum" }

func (s *ScoreSumStrategy) Score(ctx context.Context, choices []string, app *models.Application) (*models.UserAnswer, error) {
	questions, err := loadQuestions(ctx, s.questions, app.ID)
	if err != nil {
		return nil, err
	}
	results, err := loadResults(ctx, s.results, app.ID)
	if err != nil {
		return nil, err
	}

	total := TotalScore(choices, questions)

	answer := newAnswer(app, choices)
	fillResult(answer, SelectByScore(results, total))
	answer.ResultScore = &total
	return answer, nil
}

// TotalScore sums the scores of the matched options over the aligned pairs.
// Unmatched choices and options without a score add nothing.
func TotalScore(choices []string, questions []models.QuestionContent) int {
	total := 0
	for i := 0; i < AlignedLength(choices, questions); i++ {
		if opt, ok := FindOption(questions[i], choices[i]); ok {
			total += opt.ScoreOrZero()
		}
	}
	return total
}

// SelectByScore orders results by descending score range and returns the
// first whose range is at most total. When total is below every range the
// highest bucket is returned. results must not be empty and is not modified.
func SelectByScore(results []models.ScoringResult, total int) models.ScoringResult {
	sorted := make([]models.ScoringResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScoreRangeOrZero() > sorted[j].ScoreRangeOrZero()
	})

	for _, r := range sorted {
		if r.ScoreRangeOrZero() <= total {
			return r
		}
	}
	return sorted[0]
}
