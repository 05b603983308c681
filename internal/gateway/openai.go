// internal/gateway/openai.go
package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quiz-scoring/internal/common/config"
	"quiz-scoring/internal/common/errors"
	commonhttp "quiz-scoring/internal/common/http"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/common/metrics"
	"quiz-scoring/internal/common/observability"
)

const providerName = "genai"

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *commonhttp.Client
	obs     *observability.Observability
	logger  logger.Logger
}

var _ Gateway = (*OpenAI)(nil)

// NewOpenAI builds a gateway. The configured timeout bounds InvokeSync only;
// streams live as long as the caller's context.
func NewOpenAI(cfg config.GenAIConfig, obs *observability.Observability, log logger.Logger) *OpenAI {
	return &OpenAI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: config.GetDuration(cfg.Timeout),
		client:  commonhttp.NewClient(0, cfg.APIKey),
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "gateway", "model": cfg.Model}),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (g *OpenAI) InvokeSync(ctx context.Context, systemPrompt, userPrompt string, temperature *float64) (text string, err error) {
	ctx, span := g.obs.StartSpan(ctx, "gateway.invokeSync", map[string]string{"model": g.model})
	defer func() {
		observability.EndSpan(span, err)
		recordInvocation("sync", err)
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.post(ctx, systemPrompt, userPrompt, temperature, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.NewProviderError(providerName, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.NewProviderError(providerName, fmt.Errorf("empty completion"))
	}

	g.logger.Debug("completion received", map[string]interface{}{"length": len(out.Choices[0].Message.Content)})
	return out.Choices[0].Message.Content, nil
}

func (g *OpenAI) InvokeStream(ctx context.Context, systemPrompt, userPrompt string, temperature *float64) (Stream, error) {
	resp, err := g.post(ctx, systemPrompt, userPrompt, temperature, true)
	if err != nil {
		recordInvocation("stream", err)
		return nil, err
	}
	return newSSEStream(resp.Body), nil
}

func (g *OpenAI) post(ctx context.Context, systemPrompt, userPrompt string, temperature *float64, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, errors.NewProviderError(providerName, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewProviderError(providerName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := g.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, errors.NewProviderError(providerName, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, errors.NewProviderError(providerName,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))).
			WithMetadata("statusCode", resp.StatusCode)
	}
	return resp, nil
}

func recordInvocation(kind string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil && err != io.EOF {
		outcome = metrics.OutcomeError
	}
	metrics.AIModelInvocations.WithLabelValues(kind, outcome).Inc()
}

// sseStream reads "data:" events of a streamed chat completion.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newSSEStream(body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{body: body, scanner: scanner}
}

func (s *sseStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return "", s.finish(nil)
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", s.finish(errors.NewProviderError(providerName, fmt.Errorf("decode stream chunk: %w", err)))
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", s.finish(errors.NewProviderError(providerName, fmt.Errorf("read stream: %w", err)))
	}
	return "", s.finish(nil)
}

func (s *sseStream) finish(err error) error {
	s.done = true
	recordInvocation("stream", err)
	if err == nil {
		return io.EOF
	}
	return err
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
