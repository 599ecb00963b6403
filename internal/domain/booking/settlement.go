package booking

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type Disposition string

const (
	DispositionRefund Disposition = "refund"
	DispositionPayout Disposition = "payout"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the share of the booking price moved by each terminal path,
// as percentages.
type Policy struct {
	MemberCancelRefundPct    decimal.Decimal
	CounselorCancelRefundPct decimal.Decimal
	AdjudicatedRefundPct     decimal.Decimal
	PayoutPct                decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		MemberCancelRefundPct:    hundred,
		CounselorCancelRefundPct: hundred,
		AdjudicatedRefundPct:     hundred,
		PayoutPct:                hundred,
	}
}

// Share returns pct percent of price, rounded to cents. pct is clamped to
// [0, 100].
func Share(price, pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return price.Mul(pct).Div(hundred).Round(2)
}

func (p Policy) cancelRefundPct(role Role) decimal.Decimal {
	if role == RoleMember {
		return p.MemberCancelRefundPct
	}
	return p.CounselorCancelRefundPct
}

// Effect is the financial side effect a transition owes.
type Effect struct {
	Kind        Disposition
	BookingID   uint
	Amount      decimal.Decimal
	RecipientID uint
}

func (e Effect) IsZero() bool { return e.Kind == "" }

func refundEffect(b *models.Booking, amount decimal.Decimal) Effect {
	return Effect{
		Kind:        DispositionRefund,
		BookingID:   b.ID,
		Amount:      amount,
		RecipientID: b.MemberID,
	}
}

func payoutEffect(b *models.Booking, amount decimal.Decimal) Effect {
	return Effect{
		Kind:        DispositionPayout,
		BookingID:   b.ID,
		Amount:      amount,
		RecipientID: b.CounselorID,
	}
}

// EffectOf rebuilds the effect owed by a booking from its stored
// disposition, for re-emission of signals that were never delivered.
func EffectOf(b *models.Booking) Effect {
	switch Disposition(b.Disposition) {
	case DispositionRefund:
		return refundEffect(b, b.SettlementAmount)
	case DispositionPayout:
		return payoutEffect(b, b.SettlementAmount)
	}
	return Effect{}
}

func recordEffect(b *models.Booking, e Effect) {
	b.Disposition = string(e.Kind)
	b.SettlementAmount = e.Amount
	b.SignalEmittedAt = nil
}
