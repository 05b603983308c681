package scoring

import (
	"context"
	"sync/atomic"

	"quiz-scoring/internal/gateway"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

type memStore struct {
	questions map[int64][]models.QuestionContent
	results   map[int64][]models.ScoringResult
}

func (m *memStore) FindQuestionByAppID(_ context.Context, appID int64) ([]models.QuestionContent, error) {
	q, ok := m.questions[appID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return q, nil
}

func (m *memStore) ListScoringResultsByAppID(_ context.Context, appID int64) ([]models.ScoringResult, error) {
	return m.results[appID], nil
}

type fakeGateway struct {
	reply string
	err   error
	calls int32

	lastTemperature *float64
	lastUser        string
}

func (g *fakeGateway) InvokeSync(_ context.Context, _, user string, temperature *float64) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	g.lastTemperature = temperature
	g.lastUser = user
	return g.reply, g.err
}

func (g *fakeGateway) InvokeStream(context.Context, string, string, *float64) (gateway.Stream, error) {
	panic("not used by scoring")
}

func intp(v int) *int { return &v }

func scoreOption(key string, score int) models.Option {
	return models.Option{Key: key, Value: "option " + key, Score: intp(score)}
}

func traitOption(key, trait string) models.Option {
	return models.Option{Key: key, Value: "option " + key, Result: trait}
}
