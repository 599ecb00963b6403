package payments

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// LogGateway stands in for a real provider when no Stripe key is configured.
type LogGateway struct {
	log *zap.Logger
}

func NewLogGateway(log *zap.Logger) *LogGateway {
	return &LogGateway{log: log}
}

func (g *LogGateway) Refund(_ context.Context, sig models.SettlementSignal) (string, error) {
	g.log.Info("refund (dry run)",
		zap.Uint("booking_id", sig.BookingID),
		zap.String("amount", sig.Amount.StringFixed(2)),
		zap.Uint("recipient_id", sig.RecipientID),
	)
	return fmt.Sprintf("dry-refund-%d", sig.ID), nil
}

func (g *LogGateway) Payout(_ context.Context, sig models.SettlementSignal) (string, error) {
	g.log.Info("payout (dry run)",
		zap.Uint("booking_id", sig.BookingID),
		zap.String("amount", sig.Amount.StringFixed(2)),
		zap.Uint("recipient_id", sig.RecipientID),
	)
	return fmt.Sprintf("dry-payout-%d", sig.ID), nil
}
