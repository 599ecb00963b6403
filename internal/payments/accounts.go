package payments

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// Accounts resolves provider references for a signal.
type Accounts interface {
	PaymentRef(ctx context.Context, bookingID uint) (string, error)
	PayoutAccount(ctx context.Context, userID uint) (string, error)
}

type GormAccounts struct {
	db *gorm.DB
}

func NewGormAccounts(db *gorm.DB) *GormAccounts {
	return &GormAccounts{db: db}
}

func (a *GormAccounts) PaymentRef(ctx context.Context, bookingID uint) (string, error) {
	var b models.Booking
	if err := a.db.WithContext(ctx).Select("id", "payment_ref").First(&b, bookingID).Error; err != nil {
		return "", err
	}
	if b.PaymentRef == "" {
		return "", fmt.Errorf("booking %d has no payment reference", bookingID)
	}
	return b.PaymentRef, nil
}

func (a *GormAccounts) PayoutAccount(ctx context.Context, userID uint) (string, error) {
	var u models.User
	if err := a.db.WithContext(ctx).Select("id", "payout_account_id").First(&u, userID).Error; err != nil {
		return "", err
	}
	if u.PayoutAccountID == "" {
		return "", fmt.Errorf("user %d has no payout account", userID)
	}
	return u.PayoutAccountID, nil
}
