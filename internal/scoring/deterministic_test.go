package scoring

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/models"
)

func scoreApp() *models.Application {
	return &models.Application{ID: 1, AppType: models.AppTypeScoreBased, ScoringMode: models.ScoringModeDeterministic}
}

func traitApp() *models.Application {
	return &models.Application{ID: 2, AppType: models.AppTypeTraitBased, ScoringMode: models.ScoringModeDeterministic}
}

func TestAlignedLengthAndFindOption(t *testing.T) {
	qs := []models.QuestionContent{{Options: []models.Option{{Key: "A"}, {Key: "B"}, {Key: "A", Value: "dup"}}}, {}}

	assert.Equal(t, 1, AlignedLength([]string{"A"}, qs))
	assert.Equal(t, 2, AlignedLength([]string{"A", "B", "C"}, qs))
	assert.Equal(t, 0, AlignedLength(nil, qs))

	opt, ok := FindOption(qs[0], "A")
	require.True(t, ok)
	assert.Empty(t, opt.Value, "first match wins")
	_, ok = FindOption(qs[0], "Z")
	assert.False(t, ok)
}

func TestScoreSum_Scenario(t *testing.T) {
	st := &memStore{
		questions: map[int64][]models.QuestionContent{1: {
			{Title: "Q1", Options: []models.Option{scoreOption("A", 5), scoreOption("B", 0)}},
			{Title: "Q2", Options: []models.Option{scoreOption("A", 0), scoreOption("B", 3)}},
		}},
		results: map[int64][]models.ScoringResult{1: {
			{ID: 20, ResultName: "low", ResultScoreRange: intp(0)},
			{ID: 10, ResultName: "high", ResultDesc: "top", ResultPicture: "high.png", ResultScoreRange: intp(5)},
		}},
	}

	answer, err := NewScoreSumStrategy(st, st).Score(context.Background(), []string{"A", "B"}, scoreApp())
	require.NoError(t, err)

	require.NotNil(t, answer.ResultScore)
	assert.Equal(t, 8, *answer.ResultScore)
	assert.Equal(t, int64(10), answer.ResultID)
	assert.Equal(t, "high", answer.ResultName)
	assert.Equal(t, "top", answer.ResultDesc)
	assert.Equal(t, "high.png", answer.ResultPicture)
	assert.Equal(t, `["A","B"]`, answer.Choices)
	assert.Equal(t, models.AppTypeScoreBased, answer.AppType)

	// Stored order is untouched by the descending sort.
	assert.Equal(t, int64(20), st.results[1][0].ID)
}

func TestTotalScore(t *testing.T) {
	qs := []models.QuestionContent{
		{Options: []models.Option{scoreOption("A", 2), {Key: "B"}}},
		{Options: []models.Option{scoreOption("A", 4)}},
		{Options: []models.Option{scoreOption("A", 8)}},
	}

	tests := []struct {
		name    string
		choices []string
		want    int
	}{
		{"all matched", []string{"A", "A", "A"}, 14},
		{"nil score counts zero", []string{"B", "A", "A"}, 12},
		{"unknown key counts zero", []string{"Z", "A"}, 4},
		{"short choices leave trailing questions unscored", []string{"A"}, 2},
		{"extra choices ignored", []string{"A", "A", "A", "A", "A"}, 14},
		{"no choices", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalScore(tt.choices, qs))
		})
	}
}

func TestSelectByScore(t *testing.T) {
	results := []models.ScoringResult{
		{ID: 1, ResultScoreRange: intp(10)},
		{ID: 2, ResultScoreRange: intp(0)},
		{ID: 3, ResultScoreRange: intp(20)},
	}

	assert.Equal(t, int64(3), SelectByScore(results, 25).ID)
	assert.Equal(t, int64(3), SelectByScore(results, 20).ID)
	assert.Equal(t, int64(1), SelectByScore(results, 19).ID)
	assert.Equal(t, int64(2), SelectByScore(results, 3).ID)
	// Below every threshold: the highest bucket.
	assert.Equal(t, int64(3), SelectByScore(results, -1).ID)
}

func TestTraitCount_Argmax(t *testing.T) {
	qs := []models.QuestionContent{
		{Options: []models.Option{traitOption("A", "I"), traitOption("B", "E")}},
		{Options: []models.Option{traitOption("A", "N"), traitOption("B", "S")}},
		{Options: []models.Option{traitOption("A", "I"), traitOption("B", "E")}},
	}
	results := []models.ScoringResult{
		{ID: 1, ResultName: "ES", ResultProp: []string{"E", "S"}},
		{ID: 2, ResultName: "IN", ResultProp: []string{"I", "N"}},
		{ID: 3, ResultName: "IS", ResultProp: []string{"I", "S"}},
	}
	st := &memStore{
		questions: map[int64][]models.QuestionContent{2: qs},
		results:   map[int64][]models.ScoringResult{2: results},
	}

	answer, err := NewTraitCountStrategy(st, st).Score(context.Background(), []string{"A", "A", "A"}, traitApp())
	require.NoError(t, err)
	assert.Equal(t, "IN", answer.ResultName)
	assert.Nil(t, answer.ResultScore)

	counts := TraitCounts([]string{"A", "A", "A"}, qs)
	chosen := traitScore(SelectByTraits(results, counts), counts)
	for _, r := range results {
		assert.GreaterOrEqual(t, chosen, traitScore(r, counts))
	}
}

func TestSelectByTraits_TiesAndZeros(t *testing.T) {
	results := []models.ScoringResult{
		{ID: 1, ResultProp: []string{"X"}},
		{ID: 2, ResultProp: []string{"I"}},
		{ID: 3, ResultProp: []string{"E"}},
	}

	assert.Equal(t, int64(1), SelectByTraits(results, map[string]int{}).ID, "all zero picks first")
	assert.Equal(t, int64(2), SelectByTraits(results, map[string]int{"I": 2, "E": 2}).ID, "tie keeps first encountered")
	assert.Equal(t, int64(3), SelectByTraits(results, map[string]int{"I": 1, "E": 2}).ID)
}

func TestTraitCounts_IgnoresUnmatched(t *testing.T) {
	qs := []models.QuestionContent{
		{Options: []models.Option{traitOption("A", "I")}},
		{Options: []models.Option{{Key: "A", Value: "no tag"}}},
	}
	assert.Equal(t, map[string]int{"I": 1}, TraitCounts([]string{"A", "A"}, qs))
	assert.Empty(t, TraitCounts([]string{"Z", "Z"}, qs))
}

func TestDeterministic_Purity(t *testing.T) {
	st := &memStore{
		questions: map[int64][]models.QuestionContent{
			1: {{Options: []models.Option{scoreOption("A", 3)}}},
			2: {{Options: []models.Option{traitOption("A", "I")}}},
		},
		results: map[int64][]models.ScoringResult{
			1: {{ID: 1, ResultScoreRange: intp(1)}, {ID: 2, ResultScoreRange: intp(2)}},
			2: {{ID: 3, ResultProp: []string{"E"}}, {ID: 4, ResultProp: []string{"I"}}},
		},
	}

	for _, tc := range []struct {
		strategy Strategy
		app      *models.Application
	}{
		{NewScoreSumStrategy(st, st), scoreApp()},
		{NewTraitCountStrategy(st, st), traitApp()},
	} {
		t.Run(tc.strategy.Name(), func(t *testing.T) {
			first, err := tc.strategy.Score(context.Background(), []string{"A"}, tc.app)
			require.NoError(t, err)
			for i := 0; i < 5; i++ {
				again, err := tc.strategy.Score(context.Background(), []string{"A"}, tc.app)
				require.NoError(t, err)
				assert.Equal(t, first, again)
			}
		})
	}
}

func TestDeterministic_EmptyResultsGuard(t *testing.T) {
	st := &memStore{
		questions: map[int64][]models.QuestionContent{
			1: {{Options: []models.Option{scoreOption("A", 3)}}},
			2: {{Options: []models.Option{traitOption("A", "I")}}},
		},
		results: map[int64][]models.ScoringResult{},
	}

	for _, tc := range []struct {
		strategy Strategy
		app      *models.Application
	}{
		{NewScoreSumStrategy(st, st), scoreApp()},
		{NewTraitCountStrategy(st, st), traitApp()},
	} {
		t.Run(tc.strategy.Name(), func(t *testing.T) {
			answer, err := tc.strategy.Score(context.Background(), []string{"A"}, tc.app)
			assert.Nil(t, answer)
			assert.True(t, stderrors.Is(err, errors.ErrDataIntegrity))
		})
	}
}

func TestDeterministic_MissingQuestions(t *testing.T) {
	st := &memStore{
		questions: map[int64][]models.QuestionContent{3: {}},
		results:   map[int64][]models.ScoringResult{1: {{ID: 1}}},
	}

	_, err := NewScoreSumStrategy(st, st).Score(context.Background(), []string{"A"}, scoreApp())
	assert.ErrorIs(t, err, errors.ErrDataIntegrity)

	app := scoreApp()
	app.ID = 3
	_, err = NewScoreSumStrategy(st, st).Score(context.Background(), []string{"A"}, app)
	assert.ErrorIs(t, err, errors.ErrDataIntegrity)
}
