// internal/workers/ai-generation/generate-questions/handler.go
package generatequestions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/common/metrics"
	"quiz-scoring/internal/common/observability"
	"quiz-scoring/internal/common/validation"
	"quiz-scoring/internal/gateway"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/prompts"
	"quiz-scoring/internal/store"
	"quiz-scoring/internal/streaming"
)

const (
	TaskType = "generate-questions"
)

type Handler struct {
	config       *Config
	apps         store.AppStore
	gateway      gateway.Gateway
	redis        redis.Cmdable
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, apps store.AppStore, gw gateway.Gateway, rdb redis.Cmdable, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		apps:         apps,
		gateway:      gw,
		redis:        rdb,
		errorHandler: errors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewDataFormatError("parse job variables", err), start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err, start)
		return
	}

	h.completeJob(client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AppID <= 0 {
		return nil, errors.NewConfigurationError(fmt.Sprintf("appId must be positive, got %d", input.AppID))
	}
	applyInputDefaults(input)

	app, err := h.apps.FindApp(ctx, input.AppID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("app %d does not exist", input.AppID))
	}
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("load app %d: %w", input.AppID, err))
	}

	channel := ChannelPrefix + input.RequestID
	log := h.logger.WithFields(map[string]interface{}{
		"appId":     app.ID,
		"requestId": input.RequestID,
	})

	output := &Output{RequestID: input.RequestID, Questions: []models.QuestionContent{}}
	chunks := streaming.StreamGenerate(ctx, h.gateway, prompts.SystemQuestion(),
		prompts.UserQuestion(app, input.QuestionCount, input.OptionCount))

	for chunk := range chunks {
		if chunk.Err != nil {
			h.publishTerminal(log, channel, terminalMessage{Error: chunk.Err.Error()})
			return nil, chunk.Err
		}

		question, err := parseQuestion(chunk.JSON)
		if err != nil {
			output.Skipped++
			log.Warn("skipping malformed question", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		output.Questions = append(output.Questions, *question)
		h.publish(ctx, log, channel, chunk.JSON)
	}

	if err := ctx.Err(); err != nil {
		h.publishTerminal(log, channel, terminalMessage{Error: err.Error()})
		return nil, errors.NewInternalError(fmt.Errorf("question stream interrupted: %w", err))
	}
	if len(output.Questions) == 0 {
		err := errors.NewDataFormatError("model produced no valid question", nil)
		h.publishTerminal(log, channel, terminalMessage{Error: err.Error()})
		return nil, err
	}

	h.publishTerminal(log, channel, terminalMessage{Done: true, Count: len(output.Questions)})
	log.Info("questions generated", map[string]interface{}{
		"count":   len(output.Questions),
		"skipped": output.Skipped,
	})

	return output, nil
}

func applyInputDefaults(input *Input) {
	if input.QuestionCount <= 0 {
		input.QuestionCount = DefaultQuestionCount
	}
	if input.OptionCount <= 0 {
		input.OptionCount = DefaultOptionCount
	}
	if input.RequestID == "" {
		input.RequestID = uuid.NewString()
	}
}

func parseQuestion(raw string) (*models.QuestionContent, error) {
	if err := validation.GeneratedQuestion.ValidateJSON(raw); err != nil {
		return nil, err
	}
	var q models.QuestionContent
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// publish delivers one message to live subscribers. Delivery is best effort:
// the job output still carries every question.
func (h *Handler) publish(ctx context.Context, log logger.Logger, channel, payload string) {
	if err := h.redis.Publish(ctx, channel, payload).Err(); err != nil {
		log.Warn("failed to publish stream message", map[string]interface{}{
			"channel": channel,
			"error":   err.Error(),
		})
	}
}

// publishTerminal uses its own deadline so the end marker still goes out
// after the job context has expired.
func (h *Handler) publishTerminal(log logger.Logger, channel string, msg terminalMessage) {
	payload, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	h.publish(ctx, log, channel, string(payload))
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	ctx := context.Background()
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, metrics.OutcomeSuccess)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), metrics.OutcomeSuccess)
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error, start time.Time) {
	ctx := context.Background()
	stdErr := errors.AsStandardError(err)

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, metrics.OutcomeError)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), metrics.OutcomeError)

	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
