package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementSignal is one refund or payout handed to the payments gateway.
// A booking owns at most one signal per kind.
type SettlementSignal struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingID   uint            `gorm:"not null;uniqueIndex:idx_signal_booking_kind" json:"booking_id"`
	Kind        string          `gorm:"size:20;not null;uniqueIndex:idx_signal_booking_kind" json:"kind"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	RecipientID uint            `gorm:"not null" json:"recipient_id"`

	Status      string `gorm:"size:20;not null;default:'pending'" json:"status"`
	ExternalRef string `gorm:"size:100" json:"external_ref"`
	Attempts    int    `gorm:"not null;default:0" json:"attempts"`
	LastError   string `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
