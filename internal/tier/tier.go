// Package tier implements the ordered persistence fallback chain. A
// logical operation is attempted against each tier in order; only
// infrastructure failures (connectivity, missing table, malformed query)
// fall through to the next tier. Domain outcomes such as "not found" are
// wrapped with Halt and returned to the caller unchanged, so an empty
// primary store never resurrects stale fallback data.
package tier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

// Tier identifies one persistence backend in the fallback order. The tag
// is surfaced to clients for diagnostics only.
type Tier string

const (
	MySQL  Tier = "mysql"
	SQLite Tier = "sqlite"
	File   Tier = "file"
)

// Observer is notified of per-tier outcomes; the metrics service implements
// it to count fallbacks.
type Observer interface {
	TierServed(entity string, t Tier)
	TierFailed(entity string, t Tier)
}

// Attempt binds a tier tag to the closure executing the operation on it.
type Attempt[T any] struct {
	Tier Tier
	Run  func(ctx context.Context) (T, error)
}

// Chain carries the cross-cutting context for a fallback execution.
type Chain struct {
	Entity   string
	Logger   *zap.Logger
	Observer Observer
}

type haltError struct {
	err error
}

func (e *haltError) Error() string { return e.err.Error() }
func (e *haltError) Unwrap() error { return e.err }

// Halt marks err as a terminal domain outcome: the chain stops and returns
// it without trying lower tiers.
func Halt(err error) error {
	if err == nil {
		return nil
	}
	return &haltError{err: err}
}

// Execute runs the attempts in order and returns the first success together
// with the tier that served it. A halted error is returned as-is from the
// tier that produced it. When every tier fails, the last underlying error
// is attached to the exhaustion error for diagnostics.
func Execute[T any](ctx context.Context, c Chain, op string, attempts []Attempt[T]) (T, Tier, error) {
	var zero T
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	var lastTier Tier
	for _, attempt := range attempts {
		result, err := attempt.Run(ctx)
		if err == nil {
			if c.Observer != nil {
				c.Observer.TierServed(c.Entity, attempt.Tier)
			}
			return result, attempt.Tier, nil
		}

		var halt *haltError
		if errors.As(err, &halt) {
			return zero, attempt.Tier, halt.err
		}

		if c.Observer != nil {
			c.Observer.TierFailed(c.Entity, attempt.Tier)
		}
		logger.Warn("tier failed, falling through",
			zap.String("entity", c.Entity),
			zap.String("op", op),
			zap.String("tier", string(attempt.Tier)),
			zap.Error(err))
		lastErr = err
		lastTier = attempt.Tier
	}

	return zero, lastTier, appErrors.Wrap(lastErr,
		appErrors.ErrTiersExhausted.Code,
		appErrors.ErrTiersExhausted.Status,
		appErrors.ErrTiersExhausted.Message)
}
