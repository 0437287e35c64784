// Package txrunner executes units of work against a repository.Store with a
// deadline and a bounded retry on concurrent-modification conflicts.
package txrunner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 3

	retryBackoff = 20 * time.Millisecond
)

// Options tunes the runner. Zero values fall back to the defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
}

// Runner wraps Store.Atomic.
type Runner struct {
	store      repository.Store
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// New builds a runner over store.
func New(store repository.Store, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Runner{
		store:      store,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		logger:     logger,
	}
}

// Run executes fn in one transaction. A Conflict is retried up to the
// configured limit; a deadline hit surfaces as models.ErrTimeout.
func (r *Runner) Run(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := r.once(ctx, op, fn)
		if err == nil {
			return nil
		}
		if models.KindOf(err) != models.KindConflict || attempt >= r.maxRetries {
			return err
		}

		r.logger.Debug("retrying conflicting transaction",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return models.Timeout(op, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * retryBackoff):
		}
	}
}

func (r *Runner) once(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.store.Atomic(tctx, fn)
	if err == nil {
		return nil
	}
	switch models.KindOf(err) {
	case "", models.KindTimeout:
	default:
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return models.Timeout(op, err)
	}
	return err
}
