package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// StripeGateway refunds the member's payment intent and transfers payouts
// to the counselor's connected account.
type StripeGateway struct {
	refunds   *refund.Client
	transfers *transfer.Client
	accounts  Accounts
}

var _ Gateway = (*StripeGateway)(nil)

func NewStripeGateway(secretKey string, accounts Accounts) *StripeGateway {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeGateway{
		refunds:   &refund.Client{B: backend, Key: secretKey},
		transfers: &transfer.Client{B: backend, Key: secretKey},
		accounts:  accounts,
	}
}

func (g *StripeGateway) Refund(ctx context.Context, sig models.SettlementSignal) (string, error) {
	intent, err := g.accounts.PaymentRef(ctx, sig.BookingID)
	if err != nil {
		return "", err
	}

	amount, err := MinorUnits(sig.Amount, sig.Currency)
	if err != nil {
		return "", err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intent),
		Amount:        stripe.Int64(amount),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey(sig))
	params.AddMetadata("booking_id", strconv.FormatUint(uint64(sig.BookingID), 10))

	r, err := g.refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund: %w", err)
	}
	return r.ID, nil
}

func (g *StripeGateway) Payout(ctx context.Context, sig models.SettlementSignal) (string, error) {
	account, err := g.accounts.PayoutAccount(ctx, sig.RecipientID)
	if err != nil {
		return "", err
	}

	amount, err := MinorUnits(sig.Amount, sig.Currency)
	if err != nil {
		return "", err
	}

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(sig.Currency),
		Destination:   stripe.String(account),
		TransferGroup: stripe.String(fmt.Sprintf("booking-%d", sig.BookingID)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey(sig))
	params.AddMetadata("booking_id", strconv.FormatUint(uint64(sig.BookingID), 10))

	tr, err := g.transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe transfer: %w", err)
	}
	return tr.ID, nil
}

func idempotencyKey(sig models.SettlementSignal) string {
	return fmt.Sprintf("booking-%d-%s", sig.BookingID, sig.Kind)
}

var zeroDecimalCurrencies = map[string]bool{
	"krw": true, "jpy": true, "vnd": true, "clp": true, "pyg": true,
	"ugx": true, "xaf": true, "xof": true, "bif": true, "gnf": true,
}

// MinorUnits converts an amount to the integer unit Stripe charges in.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, errors.New("negative amount")
	}
	if !zeroDecimalCurrencies[strings.ToLower(currency)] {
		amount = amount.Mul(decimal.NewFromInt(100))
	}
	return amount.Round(0).IntPart(), nil
}
