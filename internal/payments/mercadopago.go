package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// Subsets of the SDK clients the gateway calls.
type mpRefunds interface {
	CreatePartialRefund(ctx context.Context, paymentID int, amount float64) (*refund.Response, error)
}

type mpPayments interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
}

// MercadoPagoGateway refunds the member's original payment and books
// counselor payouts as account_money payments from the platform payer. The
// counselor's account travels in the payment metadata.
type MercadoPagoGateway struct {
	refunds    mpRefunds
	payments   mpPayments
	accounts   Accounts
	payerEmail string
}

var _ Gateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(accessToken, payerEmail string, accounts Accounts) (*MercadoPagoGateway, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPagoGateway{
		refunds:    refund.NewClient(cfg),
		payments:   payment.NewClient(cfg),
		accounts:   accounts,
		payerEmail: payerEmail,
	}, nil
}

func (g *MercadoPagoGateway) Refund(ctx context.Context, sig models.SettlementSignal) (string, error) {
	ref, err := g.accounts.PaymentRef(ctx, sig.BookingID)
	if err != nil {
		return "", err
	}

	paymentID, err := strconv.Atoi(ref)
	if err != nil {
		return "", fmt.Errorf("booking %d: payment reference %q is not a mercadopago id", sig.BookingID, ref)
	}

	if sig.Amount.IsNegative() {
		return "", fmt.Errorf("booking %d: negative refund amount", sig.BookingID)
	}

	r, err := g.refunds.CreatePartialRefund(ctx, paymentID, sig.Amount.Round(2).InexactFloat64())
	if err != nil {
		return "", fmt.Errorf("mercadopago refund: %w", err)
	}
	return strconv.Itoa(r.ID), nil
}

func (g *MercadoPagoGateway) Payout(ctx context.Context, sig models.SettlementSignal) (string, error) {
	account, err := g.accounts.PayoutAccount(ctx, sig.RecipientID)
	if err != nil {
		return "", err
	}

	if sig.Amount.IsNegative() {
		return "", fmt.Errorf("booking %d: negative payout amount", sig.BookingID)
	}

	p, err := g.payments.Create(ctx, payment.Request{
		TransactionAmount: sig.Amount.Round(2).InexactFloat64(),
		Description:       fmt.Sprintf("Counselling session payout, booking %d", sig.BookingID),
		PaymentMethodID:   "account_money",
		ExternalReference: idempotencyKey(sig),
		Payer:             &payment.PayerRequest{Email: g.payerEmail},
		Metadata: map[string]any{
			"booking_id":        sig.BookingID,
			"recipient_account": account,
		},
	})
	if err != nil {
		return "", fmt.Errorf("mercadopago payout: %w", err)
	}
	return strconv.Itoa(p.ID), nil
}
