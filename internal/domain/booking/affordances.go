package booking

import (
	"time"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// Affordances lists what an actor may do with a booking right now. The
// cancel, finalize and adjudicate flags are mutually exclusive.
type Affordances struct {
	CanCancel     bool `json:"can_cancel"`
	CanFinalize   bool `json:"can_finalize"`
	CanEditNotes  bool `json:"can_edit_notes"`
	CanReport     bool `json:"can_report"`
	CanAdjudicate bool `json:"can_adjudicate"`
}

func AffordancesFor(b *models.Booking, a Actor, now time.Time) Affordances {
	if Authorize(a, b) != nil {
		return Affordances{}
	}

	effective := EffectiveStatusOf(b, now)
	writesNotes := a.Role == RoleCounselor || a.Role == RoleAdmin

	var out Affordances
	switch effective {
	case StatusConfirmed:
		out.CanCancel = WithinCancelWindow(b.TimeStart, now)
		out.CanReport = true
	case StatusSessionEnded:
		out.CanFinalize = writesNotes
		out.CanReport = true
	case StatusCompleted:
		out.CanEditNotes = writesNotes
	case StatusReported:
		out.CanAdjudicate = a.IsAdmin()
	}
	return out
}
