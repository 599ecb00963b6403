package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

var _ domain.Repository = (*BookingGormRepository)(nil)

func (r *BookingGormRepository) withParticipants(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Counselor").
		Preload("Member").
		Preload("Member2")
}

// --------------------------------------------------
// Read
// --------------------------------------------------

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	id uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.withParticipants(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) ListBookings(
	ctx context.Context,
	q domain.ListQuery,
) ([]models.Booking, error) {

	tx := r.withParticipants(ctx).Model(&models.Booking{})

	if !q.From.IsZero() {
		tx = tx.Where("time_start >= ?", q.From)
	}
	if !q.To.IsZero() {
		tx = tx.Where("time_start < ?", q.To)
	}

	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", statusStrings(q.Statuses))
	}

	if q.CounselorID != 0 {
		tx = tx.Where("counselor_id = ?", q.CounselorID)
	}
	if q.MemberID != 0 {
		tx = tx.Where("(member_id = ? OR member2_id = ?)", q.MemberID, q.MemberID)
	}

	switch q.Kind {
	case domain.KindCouple:
		tx = tx.Where("member2_id IS NOT NULL")
	case domain.KindIndividual:
		tx = tx.Where("member2_id IS NULL")
	}

	var out []models.Booking
	if err := tx.Order("time_start ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --------------------------------------------------
// Write
// --------------------------------------------------

func (r *BookingGormRepository) CompareAndSwap(
	ctx context.Context,
	b *models.Booking,
	expected domain.Status,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", b.ID, string(expected)).
		Updates(map[string]any{
			"status":               b.Status,
			"cancel_reason":        b.CancelReason,
			"problem_summary":      b.ProblemSummary,
			"problem_analysis":     b.ProblemAnalysis,
			"guides":               b.Guides,
			"is_report":            b.IsReport,
			"report_message":       b.ReportMessage,
			"feedback":             b.Feedback,
			"adjudication_outcome": b.AdjudicationOutcome,
			"disposition":          b.Disposition,
			"settlement_amount":    b.SettlementAmount,
			"signal_emitted_at":    b.SignalEmittedAt,
			"cancelled_at":         b.CancelledAt,
			"reported_at":          b.ReportedAt,
			"completed_at":         b.CompletedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingGormRepository) MarkSignalEmitted(
	ctx context.Context,
	bookingID uint,
	at time.Time,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND signal_emitted_at IS NULL", bookingID).
		Update("signal_emitted_at", at).Error
}

// --------------------------------------------------
// Reconciliation
// --------------------------------------------------

func (r *BookingGormRepository) ListElapsed(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status = ? AND time_end <= ?", string(domain.StatusConfirmed), now).
		Order("time_end ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingGormRepository) ListDueForCompletion(
	ctx context.Context,
	graceCutoff time.Time,
	limit int,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND time_end <= ?",
			statusStrings([]domain.Status{domain.StatusConfirmed, domain.StatusSessionEnded}),
			graceCutoff,
		).
		Order("time_end ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingGormRepository) ListUnsignalled(
	ctx context.Context,
	updatedBefore time.Time,
	limit int,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("disposition IN ? AND signal_emitted_at IS NULL AND updated_at <= ?",
			[]string{string(domain.DispositionRefund), string(domain.DispositionPayout)},
			updatedBefore,
		).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func statusStrings(in []domain.Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
