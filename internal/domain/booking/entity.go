package booking

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// ===============================
// Domain Actions
// ===============================
//
// Each action validates against the effective status at now, mutates b in
// place and returns the financial effect the new state owes. Callers persist
// the result with a compare-and-set on the status b had before the call.

func Cancel(
	b *models.Booking,
	actor Actor,
	reason string,
	feedback string,
	now time.Time,
	p Policy,
) (Effect, error) {
	current := EffectiveStatusOf(b, now)
	ev := CancelEventFor(actor.Role)

	to, err := Next(current, ev)
	if err != nil {
		return Effect{}, err
	}

	if !WithinCancelWindow(b.TimeStart, now) {
		return Effect{}, ErrOutOfWindow(
			"cancellation closes " + CancelWindow.String() + " before the session start",
		)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Effect{}, ErrValidation("cancel_reason")
	}

	b.Status = string(to)
	b.CancelReason = reason
	b.Feedback = strings.TrimSpace(feedback)
	b.CancelledAt = &now

	e := refundEffect(b, Share(b.Price, p.cancelRefundPct(actor.Role)))
	recordEffect(b, e)
	return e, nil
}

func FinalizeWithNotes(
	b *models.Booking,
	notes Notes,
	now time.Time,
	p Policy,
) (Effect, error) {
	current := EffectiveStatusOf(b, now)

	to, err := Next(current, EventNotesSubmitted)
	if err != nil {
		return Effect{}, err
	}

	if err := notes.Validate(); err != nil {
		return Effect{}, err
	}

	notes.ApplyTo(b)
	b.Status = string(to)
	b.CompletedAt = &now

	e := payoutEffect(b, Share(b.Price, p.PayoutPct))
	recordEffect(b, e)
	return e, nil
}

func FileReport(b *models.Booking, message string, now time.Time) error {
	current := EffectiveStatusOf(b, now)

	to, err := Next(current, EventReportFiled)
	if err != nil {
		return err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return ErrValidation("report_message")
	}

	b.Status = string(to)
	b.IsReport = true
	b.ReportMessage = message
	b.ReportedAt = &now
	return nil
}

type Outcome string

const (
	OutcomeRefundMember Outcome = "refund_member"
	OutcomePayCounselor Outcome = "pay_counselor"
)

func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case OutcomeRefundMember, OutcomePayCounselor:
		return Outcome(s), true
	}
	return "", false
}

func (o Outcome) event() Event {
	if o == OutcomeRefundMember {
		return EventAdjudicateRefund
	}
	return EventAdjudicatePayout
}

func Adjudicate(
	b *models.Booking,
	outcome Outcome,
	feedback string,
	now time.Time,
	p Policy,
) (Effect, error) {
	if _, ok := ParseOutcome(string(outcome)); !ok {
		return Effect{}, ErrValidation("outcome")
	}

	to, err := Next(Status(b.Status), outcome.event())
	if err != nil {
		return Effect{}, err
	}

	b.Status = string(to)
	b.AdjudicationOutcome = string(outcome)
	if fb := strings.TrimSpace(feedback); fb != "" {
		b.Feedback = fb
	}

	var e Effect
	if outcome == OutcomeRefundMember {
		e = refundEffect(b, Share(b.Price, p.AdjudicatedRefundPct))
	} else {
		b.CompletedAt = &now
		e = payoutEffect(b, Share(b.Price, p.PayoutPct))
	}
	recordEffect(b, e)
	return e, nil
}

// AutoComplete persists the grace-period expiry. The completion instant is
// the grace deadline, not the moment the write happens.
func AutoComplete(b *models.Booking, now time.Time, p Policy) (Effect, error) {
	persisted := Status(b.Status)
	if !persisted.IsTimeDriven() || EffectiveStatusOf(b, now) != StatusCompleted {
		return Effect{}, ErrInvalidState(persisted, EventGraceExpired)
	}

	completedAt := GraceDeadline(b.TimeEnd)
	b.Status = string(StatusCompleted)
	b.CompletedAt = &completedAt

	e := payoutEffect(b, Share(b.Price, p.PayoutPct))
	recordEffect(b, e)
	return e, nil
}

// EndSession persists the confirmed to session_ended projection. It carries
// no financial effect.
func EndSession(b *models.Booking, now time.Time) error {
	persisted := Status(b.Status)
	if persisted != StatusConfirmed || EffectiveStatusOf(b, now) != StatusSessionEnded {
		return ErrInvalidState(persisted, EventSessionElapsed)
	}
	b.Status = string(StatusSessionEnded)
	return nil
}

// EditNotes rewrites the notes of a completed booking. Required fields stay
// required; no effect is owed.
func EditNotes(b *models.Booking, notes Notes) error {
	if Status(b.Status) != StatusCompleted {
		return ErrInvalidState(Status(b.Status), EventNotesSubmitted)
	}
	if err := notes.Validate(); err != nil {
		return err
	}
	notes.ApplyTo(b)
	return nil
}
