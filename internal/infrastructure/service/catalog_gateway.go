package service

import (
	"context"
	"errors"
	"time"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/circuitbreaker"
	"github.com/planvault/degree-audit/pkg/logger"
	"github.com/planvault/degree-audit/pkg/retry"
)

// CatalogGateway adapts a CourseSource (the cached query planner) for the
// matcher and progress calculator, adding retry with backoff and a circuit
// breaker. Transient store errors are retried; a tripped breaker or an
// exhausted retry surfaces as the fatal catalog outage class so recomputes
// abort instead of producing partial results.
type CatalogGateway struct {
	source  fulfillment.CourseSource
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// GatewayPolicy tunes retry and circuit breaker behavior. Zero values fall
// back to the defaults from retry.CatalogRetrier and
// circuitbreaker.CatalogBreaker.
type GatewayPolicy struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	BreakerThreshold   int
	BreakerTimeout     time.Duration
	BreakerHalfOpenMax int
}

// NewCatalogGateway wraps source with the default catalog resilience policy.
func NewCatalogGateway(source fulfillment.CourseSource, log *logger.Logger) *CatalogGateway {
	return NewCatalogGatewayWithPolicy(source, GatewayPolicy{}, log)
}

// NewCatalogGatewayWithPolicy wraps source with an explicit policy.
func NewCatalogGatewayWithPolicy(source fulfillment.CourseSource, policy GatewayPolicy, log *logger.Logger) *CatalogGateway {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("catalog_gateway"))

	onStateChange := func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	breakerOpts := []circuitbreaker.Option{
		// Not-found and validation errors are answers, not outages.
		circuitbreaker.WithIsFailure(func(err error) bool {
			return shared.IsRetryable(err) || shared.IsCatalogUnavailable(err)
		}),
	}
	if policy.BreakerThreshold > 0 {
		breakerOpts = append(breakerOpts, circuitbreaker.WithFailureThreshold(policy.BreakerThreshold))
	}
	if policy.BreakerTimeout > 0 {
		breakerOpts = append(breakerOpts, circuitbreaker.WithTimeout(policy.BreakerTimeout))
	}
	if policy.BreakerHalfOpenMax > 0 {
		breakerOpts = append(breakerOpts, circuitbreaker.WithMaxHalfOpenRequests(policy.BreakerHalfOpenMax))
	}
	breaker := circuitbreaker.CatalogBreaker(onStateChange, breakerOpts...)

	retryOpts := []retry.Option{retry.WithRetryIf(shared.IsRetryable)}
	if policy.MaxRetries > 0 {
		retryOpts = append(retryOpts, retry.WithMaxAttempts(policy.MaxRetries))
	}
	if policy.RetryBaseDelay > 0 {
		retryOpts = append(retryOpts, retry.WithInitialDelay(policy.RetryBaseDelay))
	}
	if policy.RetryMaxDelay > 0 {
		retryOpts = append(retryOpts, retry.WithMaxDelay(policy.RetryMaxDelay))
	}
	retrier := retry.CatalogRetrier(retryOpts...)

	return &CatalogGateway{
		source:  source,
		retrier: retrier,
		breaker: breaker,
		log:     log,
	}
}

// CoursesByFilter implements fulfillment.CourseSource.
func (g *CatalogGateway) CoursesByFilter(ctx context.Context, filter catalog.CourseFilter, academicYearID string) ([]*catalog.Course, error) {
	var courses []*catalog.Course

	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			courses, err = g.source.CoursesByFilter(ctx, filter, academicYearID)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, shared.WrapError("catalog", "CoursesByFilter", shared.ErrCatalogUnavailable, "catalog circuit open", err)
		}
		if shared.IsRetryable(err) {
			return nil, shared.WrapError("catalog", "CoursesByFilter", shared.ErrCatalogUnavailable, "catalog store unreachable", err)
		}
		return nil, err
	}

	return courses, nil
}

// Breaker exposes the circuit breaker for health reporting.
func (g *CatalogGateway) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}
