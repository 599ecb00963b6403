package booking

import (
	"context"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// NotesForm is the notes editor state for one booking.
type NotesForm struct {
	Notes    domain.Notes
	Editable bool
	// Finalizes is true when saving completes the session.
	Finalizes bool
	Required  []string
}

type GetNotes struct {
	engine *Engine
}

func NewGetNotes(engine *Engine) *GetNotes {
	return &GetNotes{engine: engine}
}

func (uc *GetNotes) Execute(ctx context.Context, actor domain.Actor, bookingID uint) (*NotesForm, error) {
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
	a := domain.AffordancesFor(b, actor, uc.engine.clock.Now())

	return &NotesForm{
		Notes:     domain.NotesFromBooking(b),
		Editable:  a.CanFinalize || a.CanEditNotes,
		Finalizes: a.CanFinalize,
		Required:  []string{"problem_summary", "guides"},
	}, nil
}

type SaveNotes struct {
	finalize *FinalizeBooking
}

func NewSaveNotes(engine *Engine) *SaveNotes {
	return &SaveNotes{finalize: NewFinalizeBooking(engine)}
}

// Execute finalizes a session_ended booking with the notes, or rewrites the
// notes of a completed one without a second payout. The branch is taken
// under the booking lock, so a save crossing the grace deadline still keeps
// its notes.
func (uc *SaveNotes) Execute(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
	notes domain.Notes,
) (*models.Booking, error) {
	return uc.finalize.Execute(ctx, actor, bookingID, notes)
}
