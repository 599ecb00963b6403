package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/counsel-console/internal/audit"
	"github.com/BruksfildServices01/counsel-console/internal/clock"
	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/infra/lock"
	"github.com/BruksfildServices01/counsel-console/internal/models"
	"github.com/BruksfildServices01/counsel-console/internal/notify"
	"github.com/BruksfildServices01/counsel-console/internal/payments"
)

type Deps struct {
	Repo     domain.Repository
	Clock    clock.Clock
	Locker   lock.Locker
	Payments payments.Collaborator
	Notifier notify.Notifier
	Audit    audit.Sink
	Policy   domain.Policy
	Logger   *zap.Logger
}

// Engine applies booking transitions. Writes to one booking are serialized
// by the locker and committed with a compare-and-set on the prior status,
// so a financial effect is emitted only by the writer that won.
type Engine struct {
	repo     domain.Repository
	clock    clock.Clock
	locker   lock.Locker
	payments payments.Collaborator
	notifier notify.Notifier
	audit    audit.Sink
	policy   domain.Policy
	log      *zap.Logger
}

func NewEngine(d Deps) *Engine {
	e := &Engine{
		repo:     d.Repo,
		clock:    d.Clock,
		locker:   d.Locker,
		payments: d.Payments,
		notifier: d.Notifier,
		audit:    d.Audit,
		policy:   d.Policy,
		log:      d.Logger,
	}

	if e.clock == nil {
		e.clock = clock.NewSystem(time.UTC)
	}
	if e.locker == nil {
		e.locker = lock.NewKeyedMutex(5 * time.Second)
	}
	if e.notifier == nil {
		e.notifier = notify.Discard{}
	}
	if e.audit == nil {
		e.audit = discardAudit{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

func (e *Engine) Now() time.Time { return e.clock.Now() }

type discardAudit struct{}

func (discardAudit) Dispatch(audit.Event) {}

// mutation changes b for the transition and returns the effect it owes
// plus the audit action name.
type mutation func(b *models.Booking, now time.Time) (domain.Effect, string, error)

// settledFn reports whether the booking already reflects the requested
// operation, which makes a repeat a successful no-op.
type settledFn func(b *models.Booking) bool

func lockKey(id uint) string {
	return "booking:" + strconv.FormatUint(uint64(id), 10)
}

func (e *Engine) transition(
	ctx context.Context,
	id uint,
	actor domain.Actor,
	settled settledFn,
	mutate mutation,
) (*models.Booking, error) {

	release, err := e.locker.Acquire(ctx, lockKey(id))
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, err
	}
	defer release()

	b, err := e.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := domain.Authorize(actor, b); err != nil {
		return nil, err
	}

	if settled != nil && settled(b) {
		return b, nil
	}

	return e.commit(ctx, b, actor, settled, mutate)
}

// commit runs mutate on a copy of b and stores it if nobody changed the
// status in between. The caller must hold the booking lock.
func (e *Engine) commit(
	ctx context.Context,
	b *models.Booking,
	actor domain.Actor,
	settled settledFn,
	mutate mutation,
) (*models.Booking, error) {

	now := e.clock.Now()
	prior := domain.Status(b.Status)

	next := *b
	effect, action, err := mutate(&next, now)
	if err != nil {
		return nil, err
	}

	ok, err := e.repo.CompareAndSwap(ctx, &next, prior)
	if err != nil {
		return nil, fmt.Errorf("save booking %d: %w", b.ID, err)
	}

	if !ok {
		fresh, ferr := e.repo.GetBooking(ctx, b.ID)
		if ferr == nil && settled != nil && settled(fresh) {
			e.log.Info("transition already applied by another writer",
				zap.Uint("booking_id", b.ID),
				zap.String("action", action),
			)
			return fresh, nil
		}
		return nil, domain.ErrConcurrentModification
	}

	e.log.Info("booking transition",
		zap.Uint("booking_id", next.ID),
		zap.String("from", string(prior)),
		zap.String("to", next.Status),
		zap.String("actor_role", string(actor.Role)),
		zap.Uint("actor_id", actor.ID),
	)

	if !effect.IsZero() {
		e.emit(ctx, &next, effect)
	}

	e.record(actor, action, &next, prior)

	if domain.Status(next.Status) != prior {
		e.notifier.Notify(ctx, notify.Notification{
			BookingID:  next.ID,
			Status:     next.Status,
			Recipients: participants(&next),
		})
	}

	return &next, nil
}

// emit hands the effect to the payments collaborator. A failure leaves the
// booking unmarked so the reconciliation sweep re-emits it.
func (e *Engine) emit(ctx context.Context, b *models.Booking, effect domain.Effect) {
	var err error
	switch effect.Kind {
	case domain.DispositionRefund:
		err = e.payments.OnRefund(ctx, effect.BookingID, effect.Amount, effect.RecipientID)
	case domain.DispositionPayout:
		err = e.payments.OnPayout(ctx, effect.BookingID, effect.Amount, effect.RecipientID)
	}
	if err != nil {
		e.log.Error("settlement signal failed, left for reconciliation",
			zap.Uint("booking_id", b.ID),
			zap.String("kind", string(effect.Kind)),
			zap.Error(err),
		)
		return
	}

	at := e.clock.Now()
	if err := e.repo.MarkSignalEmitted(ctx, b.ID, at); err != nil {
		e.log.Warn("mark signal emitted", zap.Uint("booking_id", b.ID), zap.Error(err))
		return
	}
	b.SignalEmittedAt = &at
}

func (e *Engine) record(actor domain.Actor, action string, b *models.Booking, prior domain.Status) {
	ev := audit.Event{
		ActorRole: string(actor.Role),
		Action:    action,
		Entity:    "booking",
		EntityID:  &b.ID,
		Metadata: map[string]string{
			"from": string(prior),
			"to":   b.Status,
		},
	}
	if actor.ID != 0 {
		id := actor.ID
		ev.ActorID = &id
	}
	e.audit.Dispatch(ev)
}

func participants(b *models.Booking) []uint {
	out := []uint{b.CounselorID, b.MemberID}
	if b.Member2ID != nil {
		out = append(out, *b.Member2ID)
	}
	return out
}

// ======================================================
// Lazy completion
// ======================================================

func isCompleted(b *models.Booking) bool {
	return domain.Status(b.Status) == domain.StatusCompleted
}

func autoComplete(p domain.Policy) mutation {
	return func(b *models.Booking, now time.Time) (domain.Effect, string, error) {
		eff, err := domain.AutoComplete(b, now, p)
		return eff, "booking_auto_completed", err
	}
}

// needsCompletion reports whether b has passed its grace period without the
// completion being stored.
func needsCompletion(b *models.Booking, now time.Time) bool {
	return domain.Status(b.Status).IsTimeDriven() &&
		domain.EffectiveStatusOf(b, now) == domain.StatusCompleted
}

// Materialize stores the automatic completion of b if it is due and
// returns the current booking. Bookings that are not due are returned as is.
func (e *Engine) Materialize(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if !needsCompletion(b, e.clock.Now()) {
		return b, nil
	}
	return e.transition(ctx, b.ID, domain.SystemActor, isCompleted, autoComplete(e.policy))
}
