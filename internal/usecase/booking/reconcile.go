package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// StalledRetrier re-queues settlement signals the gateway never confirmed.
type StalledRetrier interface {
	RetryStalled(ctx context.Context, olderThan time.Time, maxAttempts, limit int) (int, error)
}

type ReconcileOptions struct {
	BatchSize   int
	RetryAfter  time.Duration
	MaxAttempts int
}

type ReconcileResult struct {
	SessionsEnded int `json:"sessions_ended"`
	Completed     int `json:"completed"`
	Resignalled   int `json:"resignalled"`
	Requeued      int `json:"requeued"`
}

// Reconcile is the periodic sweep: it persists time-driven transitions,
// re-emits effects whose signal never reached the payments collaborator,
// and retries stalled gateway deliveries.
type Reconcile struct {
	engine  *Engine
	retrier StalledRetrier
	opts    ReconcileOptions
}

func NewReconcile(engine *Engine, retrier StalledRetrier, opts ReconcileOptions) *Reconcile {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 10 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	return &Reconcile{engine: engine, retrier: retrier, opts: opts}
}

func (uc *Reconcile) Execute(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	e := uc.engine
	now := e.clock.Now()

	// -------- completions --------
	due, err := e.repo.ListDueForCompletion(ctx, now.Add(-domain.GracePeriod), uc.opts.BatchSize)
	if err != nil {
		return res, err
	}
	for i := range due {
		b, err := e.Materialize(ctx, &due[i])
		if err != nil {
			e.log.Warn("sweep completion failed", zap.Uint("booking_id", due[i].ID), zap.Error(err))
			continue
		}
		if isCompleted(b) {
			res.Completed++
		}
	}

	// -------- session end --------
	elapsed, err := e.repo.ListElapsed(ctx, now, uc.opts.BatchSize)
	if err != nil {
		return res, err
	}
	for i := range elapsed {
		if domain.EffectiveStatusOf(&elapsed[i], now) != domain.StatusSessionEnded {
			continue
		}
		b, err := e.transition(ctx, elapsed[i].ID, domain.SystemActor,
			func(b *models.Booking) bool { return domain.Status(b.Status) != domain.StatusConfirmed },
			func(b *models.Booking, at time.Time) (domain.Effect, string, error) {
				return domain.Effect{}, "booking_session_ended", domain.EndSession(b, at)
			},
		)
		if err != nil {
			e.log.Warn("sweep session end failed", zap.Uint("booking_id", elapsed[i].ID), zap.Error(err))
			continue
		}
		if domain.Status(b.Status) == domain.StatusSessionEnded {
			res.SessionsEnded++
		}
	}

	// -------- unsignalled effects --------
	pending, err := e.repo.ListUnsignalled(ctx, now.Add(-uc.opts.RetryAfter), uc.opts.BatchSize)
	if err != nil {
		return res, err
	}
	for i := range pending {
		b := &pending[i]
		effect := domain.EffectOf(b)
		if effect.IsZero() {
			continue
		}
		e.emit(ctx, b, effect)
		if b.SignalEmittedAt != nil {
			res.Resignalled++
		}
	}

	// -------- gateway retries --------
	if uc.retrier != nil {
		n, err := uc.retrier.RetryStalled(ctx, now.Add(-uc.opts.RetryAfter), uc.opts.MaxAttempts, uc.opts.BatchSize)
		if err != nil {
			return res, err
		}
		res.Requeued = n
	}

	e.log.Info("reconciliation sweep",
		zap.Int("sessions_ended", res.SessionsEnded),
		zap.Int("completed", res.Completed),
		zap.Int("resignalled", res.Resignalled),
		zap.Int("requeued", res.Requeued),
	)
	return res, nil
}
