package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CounselorID uint `gorm:"index;not null" json:"counselor_id"`
	Counselor   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"counselor"`

	MemberID uint `gorm:"index;not null" json:"member_id"`
	Member   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"member"`

	// Set only for couple sessions; never changes after creation.
	Member2ID *uint `gorm:"index" json:"member2_id"`
	Member2   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"member2,omitempty"`

	TimeStart time.Time `gorm:"index;not null" json:"time_start"`
	TimeEnd   time.Time `gorm:"not null" json:"time_end"`

	Price decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	// Provider charge that refunds are issued against.
	PaymentRef string `gorm:"size:100" json:"-"`

	Status       string `gorm:"size:30;index;not null;default:'confirmed'" json:"status"`
	CancelReason string `gorm:"size:500" json:"cancel_reason"`

	ProblemSummary  string `gorm:"type:text" json:"problem_summary"`
	ProblemAnalysis string `gorm:"type:text" json:"problem_analysis"`
	Guides          string `gorm:"type:text" json:"guides"`

	IsReport      bool   `gorm:"not null;default:false" json:"is_report"`
	ReportMessage string `gorm:"type:text" json:"report_message"`
	Feedback      string `gorm:"type:text" json:"feedback"`

	SubCategories []string `gorm:"type:text;serializer:json" json:"sub_categories"`

	AdjudicationOutcome string `gorm:"size:30" json:"adjudication_outcome,omitempty"`

	// Settlement bookkeeping: which side effect the terminal state owes and
	// whether it was handed to the payments collaborator.
	Disposition      string          `gorm:"size:20" json:"disposition,omitempty"`
	SettlementAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"settlement_amount"`
	SignalEmittedAt  *time.Time      `json:"signal_emitted_at"`

	CancelledAt *time.Time `json:"cancelled_at"`
	ReportedAt  *time.Time `json:"reported_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
