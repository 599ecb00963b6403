package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type CancelInput struct {
	Reason   string
	Feedback string
}

type CancelBooking struct {
	engine *Engine
}

func NewCancelBooking(engine *Engine) *CancelBooking {
	return &CancelBooking{engine: engine}
}

// Execute cancels a confirmed booking more than 24h ahead of its start and
// signals the member's refund. Cancelling an already cancelled booking
// returns it unchanged.
func (uc *CancelBooking) Execute(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
	in CancelInput,
) (*models.Booking, error) {

	settled := func(b *models.Booking) bool {
		return domain.Status(b.Status).IsCancellation() && b.CancelReason != ""
	}

	return uc.engine.transition(ctx, bookingID, actor, settled,
		func(b *models.Booking, now time.Time) (domain.Effect, string, error) {
			eff, err := domain.Cancel(b, actor, in.Reason, in.Feedback, now, uc.engine.policy)
			return eff, "booking_cancelled", err
		},
	)
}
