package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/metrics"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// guard bounds every remote call with a per-attempt timeout, at most one
// retry on transient errors and an optional rate limit. The generator and
// the embedder each get their own circuit breaker so an outage of one
// backend does not block calls to the other.
type guard struct {
	generator  *gobreaker.CircuitBreaker
	embedder   *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

func newGuard(cfg *ai.Config, logger *slog.Logger) *guard {
	g := &guard{
		timeout:    cfg.CallTimeout,
		maxRetries: cfg.MaxRetries,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	g.generator = newBreaker("generator", cfg, logger)
	g.embedder = newBreaker("embedder", cfg, logger)
	return g
}

func newBreaker(name string, cfg *ai.Config, logger *slog.Logger) *gobreaker.CircuitBreaker {
	failures := cfg.BreakerFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// The caller walking away says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// call runs fn under the guard. Only errors from fn itself are retried; a
// cancelled parent context or an open breaker ends the call immediately.
func call[T any](ctx context.Context, g *guard, breaker *gobreaker.CircuitBreaker, task string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.CapabilityRetriesTotal.WithLabelValues(task).Inc()
			g.logger.Warn("retrying after transient error", "task", task, "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(g.backoff):
			}
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		res, err := g.attempt(ctx, breaker, func(actx context.Context) (any, error) {
			return fn(actx)
		})
		if err == nil {
			return res.(T), nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %w", ai.ErrProvider, err)
		}
		lastErr = err
		if !ai.IsTransient(err) {
			return zero, err
		}
	}
	return zero, lastErr
}

func (g *guard) attempt(ctx context.Context, breaker *gobreaker.CircuitBreaker, fn func(context.Context) (any, error)) (any, error) {
	actx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return breaker.Execute(func() (interface{}, error) {
		return fn(actx)
	})
}
