// internal/workers/scoring/score-user-answer/handler.go
package scoreuseranswer

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/common/metrics"
	"quiz-scoring/internal/common/observability"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

const (
	TaskType = "score-user-answer"
)

// Scorer is satisfied by *scoring.Dispatcher.
type Scorer interface {
	Score(ctx context.Context, choices []string, app *models.Application) (*models.UserAnswer, error)
}

type Handler struct {
	config       *Config
	apps         store.AppStore
	scorer       Scorer
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, apps store.AppStore, scorer Scorer, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		apps:         apps,
		scorer:       scorer,
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

	app, err := h.apps.FindApp(ctx, input.AppID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("app %d does not exist", input.AppID))
	}
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("load app %d: %w", input.AppID, err))
	}

	answer, err := h.scorer.Score(ctx, input.Choices, app)
	if err != nil {
		return nil, err
	}

	h.logger.Info("answer scored", map[string]interface{}{
		"appId":       app.ID,
		"appType":     app.AppType,
		"scoringMode": app.ScoringMode,
		"resultName":  answer.ResultName,
	})

	return &Output{UserAnswer: answer}, nil
}

// Commands are sent on a fresh context so an expired job timeout still
// reports back to the engine.
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
	outcome := metrics.OutcomeError
	if stderrors.Is(stdErr, errors.ErrScoringPending) {
		outcome = metrics.OutcomePending
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, outcome)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), outcome)

	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
