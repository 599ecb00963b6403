package booking

import (
	"time"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

const (
	// GracePeriod is how long a counselor has after the session end to file
	// notes before the booking completes on its own.
	GracePeriod = 24 * time.Hour

	// CancelWindow is the minimum lead time before the session start for a
	// cancellation to be accepted.
	CancelWindow = 24 * time.Hour
)

// EffectiveStatus projects a persisted status onto the current time. It reads
// no clock and touches no state, so equal inputs always give equal results.
//
// A confirmed booking whose grace period has also run out resolves straight
// to completed.
func EffectiveStatus(persisted Status, timeEnd, now time.Time) Status {
	if timeEnd.IsZero() {
		return persisted
	}

	graceEnd := timeEnd.Add(GracePeriod)

	switch persisted {
	case StatusConfirmed:
		if now.Before(timeEnd) {
			return StatusConfirmed
		}
		if now.Before(graceEnd) {
			return StatusSessionEnded
		}
		return StatusCompleted

	case StatusSessionEnded:
		if now.Before(graceEnd) {
			return StatusSessionEnded
		}
		return StatusCompleted
	}

	return persisted
}

// EffectiveStatusOf resolves a stored booking. A malformed window
// (end not after start) keeps the persisted status.
func EffectiveStatusOf(b *models.Booking, now time.Time) Status {
	persisted := Status(b.Status)
	if !b.TimeStart.IsZero() && !b.TimeEnd.After(b.TimeStart) {
		return persisted
	}
	return EffectiveStatus(persisted, b.TimeEnd, now)
}

// RemainingGraceWindow is the countdown until automatic completion. It never
// goes below zero.
func RemainingGraceWindow(timeEnd, now time.Time) time.Duration {
	left := timeEnd.Add(GracePeriod).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// GraceDeadline is the instant a booking stops being editable as
// session_ended and becomes completed.
func GraceDeadline(timeEnd time.Time) time.Time {
	return timeEnd.Add(GracePeriod)
}

// WithinCancelWindow reports whether a cancellation at now still has more
// than CancelWindow of lead time.
func WithinCancelWindow(timeStart, now time.Time) bool {
	return timeStart.Sub(now) > CancelWindow
}
