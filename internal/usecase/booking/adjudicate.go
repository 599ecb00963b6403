package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type AdjudicateBooking struct {
	engine *Engine
}

func NewAdjudicateBooking(engine *Engine) *AdjudicateBooking {
	return &AdjudicateBooking{engine: engine}
}

// Execute settles a reported booking. Only admins adjudicate. Repeating the
// same outcome returns the stored booking.
func (uc *AdjudicateBooking) Execute(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
	outcome domain.Outcome,
	feedback string,
) (*models.Booking, error) {

	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	settled := func(b *models.Booking) bool {
		return b.AdjudicationOutcome == string(outcome) && domain.Status(b.Status).IsTerminal()
	}

	return uc.engine.transition(ctx, bookingID, actor, settled,
		func(b *models.Booking, now time.Time) (domain.Effect, string, error) {
			eff, err := domain.Adjudicate(b, outcome, feedback, now, uc.engine.policy)
			return eff, "booking_adjudicated", err
		},
	)
}
