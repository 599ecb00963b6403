package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/counsel-console/internal/config"
)

// validConfig points at an unreachable database.
func validConfig() *config.Config {
	return &config.Config{
		DBUrl:                        "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		MemberCancelRefundPercent:    "100",
		CounselorCancelRefundPercent: "100",
		AdjudicatedRefundPercent:     "100",
		CounselorPayoutPercent:       "100",
	}
}

func TestBuild_RejectsPolicyBeforeConnecting(t *testing.T) {
	cfg := validConfig()
	cfg.CounselorPayoutPercent = "120"

	app, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Nil(t, app)
	assert.ErrorContains(t, err, "COUNSELOR_PAYOUT_PERCENT")
}

func TestBuild_RejectsPaymentsProviderBeforeConnecting(t *testing.T) {
	cfg := validConfig()
	cfg.PaymentsProvider = "mercadopago"

	app, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Nil(t, app)
	assert.ErrorContains(t, err, "MERCADOPAGO_ACCESS_TOKEN")
}
