package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

const (
	KindRefund = "refund"
	KindPayout = "payout"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Collaborator receives the financial signals of booking transitions. It
// does not move money synchronously.
type Collaborator interface {
	OnRefund(ctx context.Context, bookingID uint, amount decimal.Decimal, recipientID uint) error
	OnPayout(ctx context.Context, bookingID uint, amount decimal.Decimal, recipientID uint) error
}

// Gateway moves money for one recorded signal and returns the provider's
// reference.
type Gateway interface {
	Refund(ctx context.Context, sig models.SettlementSignal) (string, error)
	Payout(ctx context.Context, sig models.SettlementSignal) (string, error)
}
