package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// Ledger records each signal once per (booking, kind) and hands new ones to
// the dispatcher. A repeated signal is accepted and ignored.
type Ledger struct {
	db         *gorm.DB
	currency   string
	dispatcher *Dispatcher
	log        *zap.Logger
}

var _ Collaborator = (*Ledger)(nil)

func NewLedger(db *gorm.DB, currency string, dispatcher *Dispatcher, log *zap.Logger) *Ledger {
	return &Ledger{
		db:         db,
		currency:   strings.ToLower(currency),
		dispatcher: dispatcher,
		log:        log,
	}
}

func (l *Ledger) OnRefund(ctx context.Context, bookingID uint, amount decimal.Decimal, recipientID uint) error {
	return l.record(ctx, KindRefund, bookingID, amount, recipientID)
}

func (l *Ledger) OnPayout(ctx context.Context, bookingID uint, amount decimal.Decimal, recipientID uint) error {
	return l.record(ctx, KindPayout, bookingID, amount, recipientID)
}

func (l *Ledger) record(
	ctx context.Context,
	kind string,
	bookingID uint,
	amount decimal.Decimal,
	recipientID uint,
) error {
	sig := models.SettlementSignal{
		BookingID:   bookingID,
		Kind:        kind,
		Amount:      amount,
		Currency:    l.currency,
		RecipientID: recipientID,
		Status:      StatusPending,
	}
	if !amount.IsPositive() {
		sig.Status = StatusSkipped
	}

	if err := l.db.WithContext(ctx).Create(&sig).Error; err != nil {
		if isUniqueViolation(err) {
			l.log.Info("settlement signal already recorded",
				zap.Uint("booking_id", bookingID),
				zap.String("kind", kind),
			)
			return nil
		}
		return fmt.Errorf("record %s for booking %d: %w", kind, bookingID, err)
	}

	l.log.Info("settlement signal recorded",
		zap.Uint("booking_id", bookingID),
		zap.String("kind", kind),
		zap.String("amount", amount.StringFixed(2)),
		zap.Uint("recipient_id", recipientID),
	)

	if sig.Status == StatusPending && l.dispatcher != nil {
		l.dispatcher.Dispatch(sig.ID)
	}
	return nil
}

// RetryStalled re-queues pending or failed signals last touched before
// olderThan. It returns how many were queued.
func (l *Ledger) RetryStalled(ctx context.Context, olderThan time.Time, maxAttempts, limit int) (int, error) {
	if l.dispatcher == nil {
		return 0, nil
	}

	var ids []uint
	if err := l.db.WithContext(ctx).
		Model(&models.SettlementSignal{}).
		Where("status IN ? AND attempts < ? AND updated_at <= ?",
			[]string{StatusPending, StatusFailed}, maxAttempts, olderThan).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("list stalled signals: %w", err)
	}

	for _, id := range ids {
		l.dispatcher.Dispatch(id)
	}
	return len(ids), nil
}

// ListForDay returns the signals created on [from, from+24h).
func (l *Ledger) ListForDay(ctx context.Context, from time.Time) ([]models.SettlementSignal, error) {
	var out []models.SettlementSignal
	if err := l.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, from.Add(24*time.Hour)).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
