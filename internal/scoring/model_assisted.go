package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"quiz-scoring/internal/aicache"
	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/common/validation"
	"quiz-scoring/internal/gateway"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/prompts"
	"quiz-scoring/internal/store"
)

// AnswerCache is satisfied by *aicache.AiScoringCache.
type AnswerCache interface {
	GetOrCompute(ctx context.Context, appID int64, choices []string, compute aicache.ComputeFunc) (aicache.Outcome, error)
}

// ModelAssistedStrategy asks the model for the result, at most once per
// distinct (app, choices) while the cached answer is alive.
type ModelAssistedStrategy struct {
	questions store.QuestionStore
	cache     AnswerCache
	gateway   gateway.Gateway
}

func NewModelAssistedStrategy(questions store.QuestionStore, cache AnswerCache, gw gateway.Gateway) *ModelAssistedStrategy {
	return &ModelAssistedStrategy{questions: questions, cache: cache, gateway: gw}
}

func (s *ModelAssistedStrategy) Name() string { return "model-assisted" }

type aiResult struct {
	ResultName string `json:"resultName"`
	ResultDesc string `json:"resultDesc"`
}

func (s *ModelAssistedStrategy) Score(ctx context.Context, choices []string, app *models.Application) (*models.UserAnswer, error) {
	out, err := s.cache.GetOrCompute(ctx, app.ID, choices, func(ctx context.Context) (string, error) {
		return s.invoke(ctx, choices, app)
	})
	if err != nil {
		return nil, err
	}

	result, err := parseAIResult(out.Text)
	if err != nil {
		return nil, err
	}

	answer := newAnswer(app, choices)
	answer.ResultName = result.ResultName
	answer.ResultDesc = result.ResultDesc
	return answer, nil
}

// invoke runs under the distributed lock. The raw model text is returned, and
// only when it parses, so malformed text never reaches the cache.
func (s *ModelAssistedStrategy) invoke(ctx context.Context, choices []string, app *models.Application) (string, error) {
	questions, err := loadQuestions(ctx, s.questions, app.ID)
	if err != nil {
		return "", err
	}
	answers, err := PairAnswers(choices, questions)
	if err != nil {
		return "", err
	}

	userPrompt, err := prompts.UserScoring(app, answers)
	if err != nil {
		return "", errors.NewInternalError(err)
	}

	text, err := s.gateway.InvokeSync(ctx, prompts.SystemScoring(), userPrompt, gateway.Temperature(gateway.StableTemperature))
	if err != nil {
		return "", err
	}

	if _, err := parseAIResult(text); err != nil {
		return "", err
	}
	return text, nil
}

// PairAnswers resolves each aligned choice to the text the model sees: the
// option's trait tag, or its label when it has none.
func PairAnswers(choices []string, questions []models.QuestionContent) ([]models.QuestionAnswer, error) {
	n := AlignedLength(choices, questions)
	answers := make([]models.QuestionAnswer, 0, n)
	for i := 0; i < n; i++ {
		opt, ok := FindOption(questions[i], choices[i])
		if !ok {
			return nil, errors.NewDataIntegrityError(
				fmt.Sprintf("choice %q matches no option of question %d", choices[i], i+1))
		}
		text := opt.Result
		if text == "" {
			text = opt.Value
		}
		answers = append(answers, models.QuestionAnswer{Title: questions[i].Title, UserAnswer: text})
	}
	return answers, nil
}

func parseAIResult(text string) (*aiResult, error) {
	obj, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	if err := validation.AIScoringResult.ValidateJSON(obj); err != nil {
		return nil, errors.NewDataFormatError("model scoring output", err)
	}

	var result aiResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil, errors.NewDataFormatError("model scoring output", err)
	}
	return &result, nil
}
