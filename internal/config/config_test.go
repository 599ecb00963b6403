package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.Equal(t, 5*time.Second, cfg.LockWait())
	assert.Equal(t, 10*time.Minute, cfg.SettlementRetryAfter())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.True(t, p.PayoutPct.Equal(decimal.NewFromInt(100)))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MEMBER_CANCEL_REFUND_PERCENT", "50")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.True(t, p.MemberCancelRefundPct.Equal(decimal.NewFromInt(50)))
}

func TestLoad_RejectsBadPercent(t *testing.T) {
	t.Setenv("COUNSELOR_PAYOUT_PERCENT", "120")

	_, err := Load()
	assert.ErrorContains(t, err, "COUNSELOR_PAYOUT_PERCENT")
}

func TestPaymentProvider(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
		err  string
	}{
		{name: "default without keys", cfg: Config{}, want: ProviderLog},
		{name: "default with stripe key", cfg: Config{StripeSecretKey: "sk"}, want: ProviderStripe},
		{
			name: "mercadopago",
			cfg:  Config{PaymentsProvider: "MercadoPago", MercadoPagoAccessToken: "tok", MercadoPagoPayerEmail: "ops@counsel.test"},
			want: ProviderMercadoPago,
		},
		{name: "mercadopago without token", cfg: Config{PaymentsProvider: "mercadopago"}, err: "MERCADOPAGO_ACCESS_TOKEN"},
		{name: "stripe without key", cfg: Config{PaymentsProvider: "stripe"}, err: "STRIPE_SECRET_KEY"},
		{name: "unknown", cfg: Config{PaymentsProvider: "paypal"}, err: "unknown provider"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cfg.PaymentProvider()
			if tc.err != "" {
				assert.ErrorContains(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad_RejectsUnknownPaymentsProvider(t *testing.T) {
	t.Setenv("PAYMENTS_PROVIDER", "paypal")

	_, err := Load()
	assert.ErrorContains(t, err, "PAYMENTS_PROVIDER")
}
