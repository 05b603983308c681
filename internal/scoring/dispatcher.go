package scoring

import (
	"context"
	"fmt"
	"time"

	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/common/metrics"
	"quiz-scoring/internal/gateway"
	"quiz-scoring/internal/models"
	"quiz-scoring/internal/store"
)

// Strategy produces a UserAnswer for one app's choices.
type Strategy interface {
	Name() string
	Score(ctx context.Context, choices []string, app *models.Application) (*models.UserAnswer, error)
}

// StrategyKey is the exact (type, mode) pair a strategy serves.
type StrategyKey struct {
	AppType     models.AppType
	ScoringMode models.ScoringMode
}

func (k StrategyKey) String() string {
	return fmt.Sprintf("%s/%s", k.AppType, k.ScoringMode)
}

type Registration struct {
	Key      StrategyKey
	Strategy Strategy
}

// Dispatcher routes a scoring request by exact key lookup in a table fixed at
// construction.
type Dispatcher struct {
	table  map[StrategyKey]Strategy
	logger logger.Logger
}

// NewDispatcher builds the table. Registering a key twice is an error.
func NewDispatcher(log logger.Logger, regs ...Registration) (*Dispatcher, error) {
	table := make(map[StrategyKey]Strategy, len(regs))
	for _, reg := range regs {
		if reg.Strategy == nil {
			return nil, fmt.Errorf("nil strategy for %s", reg.Key)
		}
		if _, dup := table[reg.Key]; dup {
			return nil, fmt.Errorf("duplicate strategy for %s", reg.Key)
		}
		table[reg.Key] = reg.Strategy
	}
	return &Dispatcher{
		table:  table,
		logger: log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}, nil
}

// Registrations is the production table.
func Registrations(questions store.QuestionStore, results store.ScoringResultStore, cache AnswerCache, gw gateway.Gateway) []Registration {
	modelAssisted := NewModelAssistedStrategy(questions, cache, gw)
	return []Registration{
		{StrategyKey{models.AppTypeScoreBased, models.ScoringModeDeterministic}, NewScoreSumStrategy(questions, results)},
		{StrategyKey{models.AppTypeTraitBased, models.ScoringModeDeterministic}, NewTraitCountStrategy(questions, results)},
		{StrategyKey{models.AppTypeScoreBased, models.ScoringModeModelAssisted}, modelAssisted},
		{StrategyKey{models.AppTypeTraitBased, models.ScoringModeModelAssisted}, modelAssisted},
	}
}

func (d *Dispatcher) Score(ctx context.Context, choices []string, app *models.Application) (*models.UserAnswer, error) {
	if app == nil {
		return nil, errors.NewConfigurationError("application is required")
	}
	if app.AppType == "" || app.ScoringMode == "" {
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("app %d: appType and scoringMode must both be set", app.ID))
	}

	key := StrategyKey{AppType: app.AppType, ScoringMode: app.ScoringMode}
	strategy, ok := d.table[key]
	if !ok {
		return nil, errors.NewConfigurationError(fmt.Sprintf("app %d: no strategy for %s", app.ID, key))
	}

	start := time.Now()
	answer, err := strategy.Score(ctx, choices, app)
	metrics.ScoringDuration.WithLabelValues(strategy.Name()).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.ScoringRequests.WithLabelValues(strategy.Name(), metrics.OutcomeSuccess).Inc()
	case errors.AsStandardError(err).Code == errors.ErrCodeScoringPending:
		metrics.ScoringRequests.WithLabelValues(strategy.Name(), metrics.OutcomePending).Inc()
	default:
		metrics.ScoringRequests.WithLabelValues(strategy.Name(), metrics.OutcomeError).Inc()
		d.logger.Warn("scoring failed", map[string]interface{}{
			"appId":    app.ID,
			"strategy": strategy.Name(),
			"error":    err,
		})
	}
	return answer, err
}
