package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type FinalizeBooking struct {
	engine *Engine
}

func NewFinalizeBooking(engine *Engine) *FinalizeBooking {
	return &FinalizeBooking{engine: engine}
}

// Execute completes a session_ended booking with its mandatory notes and
// signals the counselor's payout.
//
// If the grace period ran out before the call, the automatic completion and
// the notes are stored in one write. A booking another writer already
// completed keeps its single payout and gets the notes as an edit.
func (uc *FinalizeBooking) Execute(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
	notes domain.Notes,
) (*models.Booking, error) {

	if actor.Role == domain.RoleMember {
		return nil, domain.ErrForbidden
	}
	if err := notes.Validate(); err != nil {
		return nil, err
	}

	b, err := uc.engine.transition(ctx, bookingID, actor, isCompleted,
		func(b *models.Booking, now time.Time) (domain.Effect, string, error) {
			if !needsCompletion(b, now) {
				eff, err := domain.FinalizeWithNotes(b, notes, now, uc.engine.policy)
				return eff, "booking_completed", err
			}
			eff, err := domain.AutoComplete(b, now, uc.engine.policy)
			if err != nil {
				return domain.Effect{}, "", err
			}
			notes.ApplyTo(b)
			return eff, "booking_completed", nil
		},
	)
	if err != nil {
		return nil, err
	}

	if domain.NotesFromBooking(b) == notes.Normalize() {
		return b, nil
	}
	return uc.engine.editNotes(ctx, actor, bookingID, notes)
}

// editNotes rewrites the notes of a completed booking. No effect is owed.
func (e *Engine) editNotes(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
	notes domain.Notes,
) (*models.Booking, error) {
	return e.transition(ctx, bookingID, actor, nil,
		func(b *models.Booking, _ time.Time) (domain.Effect, string, error) {
			return domain.Effect{}, "booking_notes_updated", domain.EditNotes(b, notes)
		},
	)
}
