package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// View is a booking as seen at one instant.
type View struct {
	Booking         *models.Booking
	EffectiveStatus domain.Status
	RemainingGrace  time.Duration
	Affordances     domain.Affordances
}

// View resolves b for actor at the current instant.
func (e *Engine) View(b *models.Booking, actor domain.Actor) View {
	now := e.clock.Now()
	v := View{
		Booking:         b,
		EffectiveStatus: domain.EffectiveStatusOf(b, now),
		Affordances:     domain.AffordancesFor(b, actor, now),
	}
	if v.EffectiveStatus == domain.StatusSessionEnded {
		v.RemainingGrace = domain.RemainingGraceWindow(b.TimeEnd, now)
	}
	return v
}

// settle stores a due automatic completion. A booking is never shown as
// completed before its payout was emitted, so a failed write fails the read.
func (e *Engine) settle(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	fresh, err := e.Materialize(ctx, b)
	if err != nil {
		e.log.Warn("lazy completion failed", zap.Uint("booking_id", b.ID), zap.Error(err))
		return nil, err
	}
	return fresh, nil
}

type GetBooking struct {
	engine *Engine
}

func NewGetBooking(engine *Engine) *GetBooking {
	return &GetBooking{engine: engine}
}

func (uc *GetBooking) Execute(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
) (*View, error) {

	b, err := uc.engine.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.Authorize(actor, b); err != nil {
		return nil, err
	}

	b, err = uc.engine.settle(ctx, b)
	if err != nil {
		return nil, err
	}

	v := uc.engine.View(b, actor)
	return &v, nil
}
