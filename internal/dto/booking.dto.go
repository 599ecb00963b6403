package dto

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

type ParticipantDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type BookingDTO struct {
	ID        uint      `json:"id"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
	Kind      string    `json:"kind"`

	Counselor ParticipantDTO  `json:"counselor"`
	Member    ParticipantDTO  `json:"member"`
	Member2   *ParticipantDTO `json:"member2,omitempty"`

	Price decimal.Decimal `json:"price"`

	Status                string `json:"status"`
	EffectiveStatus       string `json:"effective_status"`
	RemainingGraceSeconds int64  `json:"remaining_grace_seconds"`

	CancelReason  string   `json:"cancel_reason,omitempty"`
	IsReport      bool     `json:"is_report"`
	ReportMessage string   `json:"report_message,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	SubCategories []string `json:"sub_categories,omitempty"`

	Notes domain.Notes `json:"notes"`

	AdjudicationOutcome string `json:"adjudication_outcome,omitempty"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Affordances domain.Affordances `json:"affordances"`
}

func participant(id uint, u *models.User) ParticipantDTO {
	p := ParticipantDTO{ID: id}
	if u != nil {
		p.Name = u.Name
	}
	return p
}

func FromView(v ucbooking.View) BookingDTO {
	b := v.Booking

	out := BookingDTO{
		ID:                    b.ID,
		TimeStart:             b.TimeStart,
		TimeEnd:               b.TimeEnd,
		Kind:                  string(domain.KindOf(b)),
		Counselor:             participant(b.CounselorID, &b.Counselor),
		Member:                participant(b.MemberID, &b.Member),
		Price:                 b.Price,
		Status:                b.Status,
		EffectiveStatus:       string(v.EffectiveStatus),
		RemainingGraceSeconds: int64(v.RemainingGrace / time.Second),
		CancelReason:          b.CancelReason,
		IsReport:              b.IsReport,
		ReportMessage:         b.ReportMessage,
		Feedback:              b.Feedback,
		SubCategories:         b.SubCategories,
		Notes:                 domain.NotesFromBooking(b),
		AdjudicationOutcome:   b.AdjudicationOutcome,
		CancelledAt:           b.CancelledAt,
		ReportedAt:            b.ReportedAt,
		CompletedAt:           b.CompletedAt,
		Affordances:           v.Affordances,
	}

	if b.Member2ID != nil {
		m2 := participant(*b.Member2ID, b.Member2)
		out.Member2 = &m2
	}
	return out
}

func FromViews(views []ucbooking.View) []BookingDTO {
	out := make([]BookingDTO, 0, len(views))
	for _, v := range views {
		out = append(out, FromView(v))
	}
	return out
}

type NotesFormDTO struct {
	Notes     domain.Notes `json:"notes"`
	Editable  bool         `json:"editable"`
	Finalizes bool         `json:"finalizes"`
	Required  []string     `json:"required"`
}

func FromNotesForm(f *ucbooking.NotesForm) NotesFormDTO {
	return NotesFormDTO{
		Notes:     f.Notes,
		Editable:  f.Editable,
		Finalizes: f.Finalizes,
		Required:  f.Required,
	}
}
