// internal/workers/ai-generation/generate-questions/handler_test.go
package generatequestions

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-scoring/internal/common/config"
	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/gateway"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type appStore map[int64]*models.Application

func (s appStore) FindApp(_ context.Context, appID int64) (*models.Application, error) {
	app, ok := s[appID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app, nil
}

type fragmentStream struct {
	fragments []string
	err       error
}

func (s *fragmentStream) Next() (string, error) {
	if len(s.fragments) > 0 {
		f := s.fragments[0]
		s.fragments = s.fragments[1:]
		return f, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fragmentStream) Close() error { return nil }

type fakeGateway struct {
	stream     *fragmentStream
	userPrompt string
}

func (g *fakeGateway) InvokeSync(context.Context, string, string, *float64) (string, error) {
	return "", stderrors.New("not used")
}

func (g *fakeGateway) InvokeStream(_ context.Context, _, user string, _ *float64) (gateway.Stream, error) {
	g.userPrompt = user
	return g.stream, nil
}

func setupRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func subscribe(t *testing.T, rdb *redis.Client, requestID string) <-chan *redis.Message {
	sub := rdb.Subscribe(context.Background(), ChannelPrefix+requestID)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	return sub.Channel()
}

func drain(t *testing.T, ch <-chan *redis.Message, n int) []string {
	var out []string
	for len(out) < n {
		select {
		case msg := <-ch:
			out = append(out, msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d messages: %v", len(out), n, out)
		}
	}
	return out
}

func createTestHandler(t *testing.T, gw gateway.Gateway, rdb *redis.Client) *Handler {
	apps := appStore{7: {ID: 7, AppName: "Planets", AppDesc: "Astronomy quiz", AppType: models.AppTypeScoreBased}}
	return NewHandler(LoadConfig(config.WorkerConfig{Timeout: 5000}), apps, gw, rdb, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PublishesEachQuestion(t *testing.T) {
	rdb := setupRedis(t)
	messages := subscribe(t, rdb, "req-1")
	gw := &fakeGateway{stream: &fragmentStream{fragments: []string{
		`[{"title":"Largest planet?","options":[{"key":"A","value":"Jupiter"},`,
		`{"key":"B","value":"Mars"}]},{"title":"Red planet?","opt`,
		`ions":[{"key":"A","value":"Mars"}]}]`,
	}}}
	h := createTestHandler(t, gw, rdb)

	output, err := h.Execute(context.Background(), &Input{AppID: 7, QuestionCount: 2, OptionCount: 2, RequestID: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, "req-1", output.RequestID)
	require.Len(t, output.Questions, 2)
	assert.Equal(t, "Largestplanet?", output.Questions[0].Title)
	assert.Len(t, output.Questions[0].Options, 2)
	assert.Equal(t, "Redplanet?", output.Questions[1].Title)
	assert.Zero(t, output.Skipped)

	got := drain(t, messages, 3)
	assert.JSONEq(t, `{"title":"Largestplanet?","options":[{"key":"A","value":"Jupiter"},{"key":"B","value":"Mars"}]}`, got[0])
	assert.JSONEq(t, `{"title":"Redplanet?","options":[{"key":"A","value":"Mars"}]}`, got[1])
	assert.JSONEq(t, `{"done":true,"count":2}`, got[2])

	assert.True(t, strings.HasSuffix(gw.userPrompt, "2,\n2"), gw.userPrompt)
}

func TestHandler_Execute_Defaults(t *testing.T) {
	rdb := setupRedis(t)
	gw := &fakeGateway{stream: &fragmentStream{fragments: []string{`{"title":"Q","options":[{"key":"A","value":"x"}]}`}}}
	h := createTestHandler(t, gw, rdb)

	input := &Input{AppID: 7}
	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.NotEmpty(t, output.RequestID)
	assert.Equal(t, output.RequestID, input.RequestID)
	assert.Equal(t, DefaultQuestionCount, input.QuestionCount)
	assert.Equal(t, DefaultOptionCount, input.OptionCount)
	assert.True(t, strings.HasSuffix(gw.userPrompt, "10,\n2"), gw.userPrompt)
}

func TestHandler_Execute_SkipsMalformedQuestions(t *testing.T) {
	rdb := setupRedis(t)
	messages := subscribe(t, rdb, "req-2")
	gw := &fakeGateway{stream: &fragmentStream{fragments: []string{
		`{"title":"no options"}`,
		`{"title":"ok","options":[{"key":"A","value":"1"}]}`,
		`{"title":"","options":[{"key":"A","value":"1"}]}`,
	}}}
	h := createTestHandler(t, gw, rdb)

	output, err := h.Execute(context.Background(), &Input{AppID: 7, RequestID: "req-2"})
	require.NoError(t, err)
	require.Len(t, output.Questions, 1)
	assert.Equal(t, "ok", output.Questions[0].Title)
	assert.Equal(t, 2, output.Skipped)

	got := drain(t, messages, 2)
	assert.JSONEq(t, `{"done":true,"count":1}`, got[1])
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_UpstreamErrorEndsChannel(t *testing.T) {
	rdb := setupRedis(t)
	messages := subscribe(t, rdb, "req-3")
	gw := &fakeGateway{stream: &fragmentStream{
		fragments: []string{`{"title":"first","options":[{"key":"A","value":"1"}]}`, `{"title":"partial`},
		err:       errors.NewProviderError("genai", stderrors.New("stream reset")),
	}}
	h := createTestHandler(t, gw, rdb)

	output, err := h.Execute(context.Background(), &Input{AppID: 7, RequestID: "req-3"})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, errors.ErrProvider)

	got := drain(t, messages, 2)
	assert.Contains(t, got[0], `"first"`)
	assert.Contains(t, got[1], `"error"`)
	assert.Contains(t, got[1], "stream reset")
}

func TestHandler_Execute_NothingUsable(t *testing.T) {
	rdb := setupRedis(t)
	gw := &fakeGateway{stream: &fragmentStream{fragments: []string{"sorry, I cannot help with that"}}}
	h := createTestHandler(t, gw, rdb)

	_, err := h.Execute(context.Background(), &Input{AppID: 7})
	assert.ErrorIs(t, err, errors.ErrDataFormat)
}

func TestHandler_Execute_InputErrors(t *testing.T) {
	rdb := setupRedis(t)
	h := createTestHandler(t, &fakeGateway{stream: &fragmentStream{}}, rdb)

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, errors.ErrConfiguration)

	_, err = h.Execute(context.Background(), &Input{AppID: 404})
	assert.ErrorIs(t, err, errors.ErrDataIntegrity)
}
