// Package aicache deduplicates model-assisted scoring. Identical (app, choices)
// requests share one model invocation per cache TTL across every node that
// uses the same lock backend.
package aicache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-scoring/internal/common/config"
	"quiz-scoring/internal/common/errors"
	"quiz-scoring/internal/common/logger"
	"quiz-scoring/internal/common/metrics"
	"quiz-scoring/internal/common/observability"
)

// State is a step of a GetOrCompute call.
type State int

const (
	StateWaitingForLock State = iota
	StatePolling
	StateResolved
	StatePending
)

func (s State) String() string {
	switch s {
	case StateWaitingForLock:
		return "waiting_for_lock"
	case StatePolling:
		return "polling"
	case StateResolved:
		return "resolved"
	case StatePending:
		return "pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the terminal state of GetOrCompute. Attempts counts cache polls.
// Computed is true when the model ran for this call or for an identical
// in-process call it joined.
type Outcome struct {
	State    State
	Text     string
	Attempts int
	Computed bool
}

// ComputeFunc produces the text to cache. Its error is returned unchanged.
type ComputeFunc func(ctx context.Context) (string, error)

type Options struct {
	LockWait     time.Duration
	LockLease    time.Duration
	PollAttempts int
	PollInterval time.Duration
}

// OptionsFromConfig converts the millisecond settings of the scoring section.
func OptionsFromConfig(cfg config.ScoringConfig) Options {
	return Options{
		LockWait:     config.GetDuration(cfg.LockWait),
		LockLease:    config.GetDuration(cfg.LockLease),
		PollAttempts: cfg.PollAttempts,
		PollInterval: config.GetDuration(cfg.PollInterval),
	}
}

type AiScoringCache struct {
	cache  Cache
	locker Locker
	opts   Options
	flight singleflight.Group
	obs    *observability.Observability
	logger logger.Logger
}

func New(cache Cache, locker Locker, opts Options, obs *observability.Observability, log logger.Logger) *AiScoringCache {
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 5
	}
	return &AiScoringCache{
		cache:  cache,
		locker: locker,
		opts:   opts,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "aicache"}),
	}
}

// GetOrCompute returns cached text for (appID, choices) or computes it under
// the distributed lock. A caller that cannot get the lock polls the cache and
// ends in StatePending with ErrScoringPending when nothing shows up.
//
// Work started here is not cancelled with ctx: the lock holder always gets to
// populate the cache for later callers. compute is bounded by the lock lease
// instead, so no second holder can start while it still runs.
func (c *AiScoringCache) GetOrCompute(ctx context.Context, appID int64, choices []string, compute ComputeFunc) (out Outcome, err error) {
	key := CacheKey(appID, choices)

	ctx, span := c.obs.StartSpan(ctx, "aicache.getOrCompute", map[string]string{"cacheKey": key})
	defer func() { observability.EndSpan(span, err) }()

	if text, ok := c.lookup(ctx, key); ok {
		metrics.AICacheLookups.WithLabelValues("hit").Inc()
		return Outcome{State: StateResolved, Text: text}, nil
	}
	metrics.AICacheLookups.WithLabelValues("miss").Inc()

	detached := context.WithoutCancel(ctx)
	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.coordinate(detached, key, compute)
	})
	out, _ = v.(Outcome)
	return out, err
}

func (c *AiScoringCache) coordinate(ctx context.Context, key string, compute ComputeFunc) (Outcome, error) {
	// The lease starts no earlier than this, so a compute deadline of
	// acquireStart+lease ends before the lock can expire under us.
	acquireStart := time.Now()
	lock, err := c.locker.TryAcquire(ctx, LockKey(key), c.opts.LockWait, c.opts.LockLease)
	if err != nil {
		metrics.AILockAcquisitions.WithLabelValues("error").Inc()
		return Outcome{State: StateWaitingForLock}, errors.NewInternalError(err)
	}
	if lock == nil {
		metrics.AILockAcquisitions.WithLabelValues("contended").Inc()
		return c.poll(ctx, key)
	}
	metrics.AILockAcquisitions.WithLabelValues("acquired").Inc()
	defer c.release(ctx, lock)

	// Another holder may have finished between our miss and the acquire.
	if text, ok := c.lookup(ctx, key); ok {
		return Outcome{State: StateResolved, Text: text}, nil
	}

	computeCtx := ctx
	if c.opts.LockLease > 0 {
		var cancel context.CancelFunc
		computeCtx, cancel = context.WithDeadline(ctx, acquireStart.Add(c.opts.LockLease))
		defer cancel()
	}

	text, err := compute(computeCtx)
	if err != nil {
		return Outcome{State: StateWaitingForLock}, err
	}

	if err := c.cache.Set(ctx, key, text); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"cacheKey": key, "error": err})
	}
	return Outcome{State: StateResolved, Text: text, Computed: true}, nil
}

func (c *AiScoringCache) poll(ctx context.Context, key string) (Outcome, error) {
	out := Outcome{State: nextState(StateWaitingForLock, 0, c.opts.PollAttempts, false)}

	for out.State == StatePolling {
		out.Attempts++
		text, hit := c.lookup(ctx, key)
		out.State = nextState(out.State, out.Attempts, c.opts.PollAttempts, hit)

		switch out.State {
		case StateResolved:
			metrics.AICacheLookups.WithLabelValues("poll_hit").Inc()
			out.Text = text
			return out, nil
		case StatePolling:
			if err := sleepCtx(ctx, c.opts.PollInterval); err != nil {
				return out, errors.NewInternalError(err)
			}
		}
	}

	metrics.AICacheLookups.WithLabelValues("pending").Inc()
	c.logger.Info("scoring result not available yet", map[string]interface{}{
		"cacheKey": key,
		"attempts": out.Attempts,
	})
	return out, errors.NewScoringPendingError(key, out.Attempts)
}

// nextState is the transition function of a caller that lost the lock race.
func nextState(s State, attempt, maxAttempts int, hit bool) State {
	switch s {
	case StateWaitingForLock:
		return StatePolling
	case StatePolling:
		if hit {
			return StateResolved
		}
		if attempt >= maxAttempts {
			return StatePending
		}
		return StatePolling
	default:
		return s
	}
}

// lookup treats a failing cache read as a miss.
func (c *AiScoringCache) lookup(ctx context.Context, key string) (string, bool) {
	text, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", map[string]interface{}{"cacheKey": key, "error": err})
		return "", false
	}
	return text, ok
}

func (c *AiScoringCache) release(ctx context.Context, lock *Lock) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.locker.Release(ctx, lock); err != nil {
		c.logger.Warn("lock release failed", map[string]interface{}{"lockKey": lock.Key, "error": err})
	}
}
