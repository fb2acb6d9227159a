// Package guarded wraps a validator with a concurrency limit and a circuit
// breaker. It is used around validators that spawn external processes.
package guarded

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"3tcapital/ms_ecf_core/internal/core/validation"
)

type checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Options configures a guarded validator.
type Options struct {
	MaxConcurrent   int
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Validator limits and protects calls to an inner validator.
type Validator struct {
	inner   validation.Validator
	limiter *Limiter
	breaker *Breaker
	log     *slog.Logger
}

// New wraps inner.
func New(inner validation.Validator, opts Options, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{
		inner:   inner,
		limiter: NewLimiter(opts.MaxConcurrent),
		breaker: NewBreaker(opts.BreakerFailures, opts.BreakerCooldown),
		log:     log,
	}
}

// Validate runs the inner validator once a slot is free. Errors from the
// inner validator count against the breaker; context errors do not.
func (v *Validator) Validate(ctx context.Context, document []byte, schemaRef string) (validation.Result, error) {
	if err := v.breaker.Allow(); err != nil {
		return validation.Result{}, err
	}
	if err := v.limiter.Acquire(ctx); err != nil {
		return validation.Result{}, err
	}
	defer v.limiter.Release()

	result, err := v.inner.Validate(ctx, document, schemaRef)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return result, err
	}

	before := v.breaker.State()
	v.breaker.Record(err)
	if after := v.breaker.State(); after != before {
		v.log.WarnContext(ctx, "validator circuit breaker changed state",
			"from", before.String(),
			"to", after.String(),
			"error", err,
		)
	}
	return result, err
}

// Name forwards to the inner validator when it reports one.
func (v *Validator) Name() string {
	if c, ok := v.inner.(checker); ok {
		return c.Name()
	}
	return "validator"
}

// Check reports the breaker state, then probes the inner validator when it supports it.
func (v *Validator) Check(ctx context.Context) error {
	if v.breaker.State() == BreakerOpen {
		return ErrBreakerOpen
	}
	if c, ok := v.inner.(checker); ok {
		return c.Check(ctx)
	}
	return nil
}

func (v *Validator) Stats() LimiterStats { return v.limiter.Stats() }

func (v *Validator) BreakerState() BreakerState { return v.breaker.State() }
